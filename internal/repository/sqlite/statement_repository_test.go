package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polito-log/internal/domain"
	"polito-log/internal/repository"
)

func seedStatements(t *testing.T, repo repository.StatementRepository) {
	t.Helper()
	ctx := context.Background()
	date := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	fixtures := []domain.Statement{
		{PoliticianName: "A. Smith", Party: "Green", StatementText: "We will plant trees", StatementDate: date, Status: domain.StatementStatusVerified, IsActive: true},
		{PoliticianName: "A. Smith", Party: "Green", StatementText: "Taxes will not rise", StatementDate: date.AddDate(0, 0, 1), Status: domain.StatementStatusDisputed, IsActive: true},
		{PoliticianName: "B. Jones", Party: "Blue", StatementText: "Roads will be fixed", StatementDate: date.AddDate(0, 0, 2), Status: domain.StatementStatusPending, IsActive: true},
	}
	for i := range fixtures {
		_, err := repo.Create(ctx, &fixtures[i])
		require.NoError(t, err)
	}
}

func TestStatementRepositoryCRUD(t *testing.T) {
	repo := NewStatementRepository(newTestDB(t))
	ctx := context.Background()

	st := &domain.Statement{
		PoliticianName: "C. Brown",
		Party:          "Red",
		StatementText:  "Healthcare spending will double",
		StatementDate:  time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		Status:         domain.StatementStatusPending,
		IsActive:       true,
	}
	id, err := repo.Create(ctx, st)
	require.NoError(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "C. Brown", got.PoliticianName)
	assert.Equal(t, domain.StatementStatusPending, got.Status)

	got.Status = domain.StatementStatusRetracted
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatementStatusRetracted, got.Status)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, repository.ErrStatementNotFound)
}

func TestStatementRepositoryListFilters(t *testing.T) {
	repo := NewStatementRepository(newTestDB(t))
	seedStatements(t, repo)
	ctx := context.Background()

	byPolitician, err := repo.List(ctx, repository.StatementFilter{PoliticianName: "A. Smith", ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, byPolitician, 2)

	byParty, err := repo.List(ctx, repository.StatementFilter{Party: "Blue", ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, byParty, 1)

	byStatus, err := repo.List(ctx, repository.StatementFilter{Status: domain.StatementStatusDisputed, ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, byStatus, 1)

	search, err := repo.List(ctx, repository.StatementFilter{Search: "taxes", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Taxes will not rise", search[0].StatementText)

	paged, err := repo.List(ctx, repository.StatementFilter{ActiveOnly: true, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, paged, 2)
	// newest statement date first
	assert.Equal(t, "B. Jones", paged[0].PoliticianName)
}

func TestStatementRepositorySoftDelete(t *testing.T) {
	repo := NewStatementRepository(newTestDB(t))
	seedStatements(t, repo)
	ctx := context.Background()

	all, err := repo.List(ctx, repository.StatementFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.NotEmpty(t, all)

	require.NoError(t, repo.SoftDelete(ctx, all[0].ID, time.Now()))

	active, err := repo.List(ctx, repository.StatementFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, len(all)-1)

	// the row itself is still there
	got, err := repo.Get(ctx, all[0].ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	count, err := repo.Count(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(len(all)-1), count)

	total, err := repo.Count(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(len(all)), total)
}
