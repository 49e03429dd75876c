package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"polito-log/internal/domain"
	"polito-log/internal/repository"
	"polito-log/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth       service.AuthService
	statements service.StatementService
	logger     *logrus.Logger
}

func NewHandler(auth service.AuthService, statements service.StatementService, logger *logrus.Logger) *Handler {
	return &Handler{
		auth:       auth,
		statements: statements,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())

	api := router.Group("/api/v1")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/magic-link", h.requestMagicLink)
			authGroup.POST("/verify", h.verifyMagicLink)
			authGroup.GET("/me", h.requireUser(), h.currentUser)
			authGroup.PUT("/me", h.requireUser(), h.updateCurrentUser)
		}

		statements := api.Group("/statements")
		{
			statements.GET("", h.listStatements)
			statements.GET("/:id", h.getStatement)
			statements.GET("/politician/:name", h.listByPolitician)
			statements.GET("/party/:party", h.listByParty)
			statements.GET("/status/:status", h.listByStatus)
			statements.GET("/search", h.searchStatements)
			statements.POST("", h.requireUser(), h.createStatement)
			statements.PUT("/:id", h.requireUser(), h.updateStatement)
			statements.DELETE("/:id", h.requireUser(), h.deleteStatement)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

type statementRequest struct {
	PoliticianName string `json:"politician_name"`
	Party          string `json:"party"`
	StatementText  string `json:"statement_text"`
	SourceURL      string `json:"source_url"`
	StatementDate  string `json:"statement_date"`
	Category       string `json:"category"`
	Status         string `json:"status"`
}

func (r statementRequest) toInput() (service.StatementInput, bool) {
	in := service.StatementInput{
		PoliticianName: r.PoliticianName,
		Party:          r.Party,
		StatementText:  r.StatementText,
		SourceURL:      r.SourceURL,
		Category:       r.Category,
		Status:         domain.StatementStatus(r.Status),
	}
	if r.StatementDate != "" {
		date, err := time.Parse(time.RFC3339, r.StatementDate)
		if err != nil {
			return in, false
		}
		in.StatementDate = date
	}
	return in, true
}

func (h *Handler) createStatement(c *gin.Context) {
	var req statementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	in, ok := req.toInput()
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "statement_date must be RFC 3339"})
		return
	}

	st, err := h.statements.CreateStatement(c.Request.Context(), in)
	if err != nil {
		h.statementError(c, err)
		return
	}
	c.JSON(http.StatusCreated, statementToResponse(*st))
}

func (h *Handler) getStatement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	st, err := h.statements.GetStatement(c.Request.Context(), id)
	if err != nil {
		h.statementError(c, err)
		return
	}
	c.JSON(http.StatusOK, statementToResponse(*st))
}

func (h *Handler) listStatements(c *gin.Context) {
	filter, ok := listFilter(c)
	if !ok {
		return
	}
	h.respondList(c, filter)
}

func (h *Handler) listByPolitician(c *gin.Context) {
	filter, ok := listFilter(c)
	if !ok {
		return
	}
	filter.PoliticianName = c.Param("name")
	h.respondList(c, filter)
}

func (h *Handler) listByParty(c *gin.Context) {
	filter, ok := listFilter(c)
	if !ok {
		return
	}
	filter.Party = c.Param("party")
	h.respondList(c, filter)
}

func (h *Handler) listByStatus(c *gin.Context) {
	status := domain.StatementStatus(c.Param("status"))
	if !status.Known() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown statement status"})
		return
	}
	filter, ok := listFilter(c)
	if !ok {
		return
	}
	filter.Status = status
	h.respondList(c, filter)
}

func (h *Handler) searchStatements(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "query parameter q is required"})
		return
	}
	filter, ok := listFilter(c)
	if !ok {
		return
	}
	filter.Search = q
	h.respondList(c, filter)
}

func (h *Handler) respondList(c *gin.Context, filter repository.StatementFilter) {
	statements, err := h.statements.ListStatements(c.Request.Context(), filter)
	if err != nil {
		h.statementError(c, err)
		return
	}

	resp := make([]StatementResponse, len(statements))
	for i := range statements {
		resp[i] = statementToResponse(statements[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateStatement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req statementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	in, inputOK := req.toInput()
	if !inputOK {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "statement_date must be RFC 3339"})
		return
	}

	st, err := h.statements.UpdateStatement(c.Request.Context(), id, in)
	if err != nil {
		h.statementError(c, err)
		return
	}
	c.JSON(http.StatusOK, statementToResponse(*st))
}

func (h *Handler) deleteStatement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	soft, err := strconv.ParseBool(c.DefaultQuery("soft", "true"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid flag soft"})
		return
	}

	if err := h.statements.DeleteStatement(c.Request.Context(), id, soft); err != nil {
		h.statementError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) statementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrStatementNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "statement not found"})
	case errors.Is(err, service.ErrInvalidStatement):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.serverError(c, err)
	}
}

func (h *Handler) serverError(c *gin.Context, err error) {
	h.logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid statement id"})
		return 0, false
	}
	return id, true
}

func listFilter(c *gin.Context) (repository.StatementFilter, bool) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid skip"})
		return repository.StatementFilter{}, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid limit"})
		return repository.StatementFilter{}, false
	}
	activeOnly, err := strconv.ParseBool(c.DefaultQuery("active_only", "true"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid flag active_only"})
		return repository.StatementFilter{}, false
	}

	return repository.StatementFilter{
		ActiveOnly: activeOnly,
		Offset:     skip,
		Limit:      limit,
	}, true
}

type StatementResponse struct {
	ID             int64  `json:"id"`
	PoliticianName string `json:"politician_name"`
	Party          string `json:"party"`
	StatementText  string `json:"statement_text"`
	SourceURL      string `json:"source_url,omitempty"`
	StatementDate  string `json:"statement_date"`
	Category       string `json:"category,omitempty"`
	Status         string `json:"status"`
	IsActive       bool   `json:"is_active"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func statementToResponse(st domain.Statement) StatementResponse {
	return StatementResponse{
		ID:             st.ID,
		PoliticianName: st.PoliticianName,
		Party:          st.Party,
		StatementText:  st.StatementText,
		SourceURL:      st.SourceURL,
		StatementDate:  st.StatementDate.Format(time.RFC3339),
		Category:       st.Category,
		Status:         string(st.Status),
		IsActive:       st.IsActive,
		CreatedAt:      st.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      st.UpdatedAt.Format(time.RFC3339),
	}
}
