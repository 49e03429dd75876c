package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"polito-log/internal/domain"
	"polito-log/internal/service"
)

const currentUserKey = "currentUser"

type magicLinkRequest struct {
	Email string `json:"email" binding:"required"`
}

type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

type updateProfileRequest struct {
	Username *string `json:"username"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   string       `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// requestMagicLink always acknowledges with the same shape, whether or not
// the email belongs to a known account.
func (h *Handler) requestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "email is required"})
		return
	}

	if err := h.auth.RequestMagicLink(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid email address"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Magic link sent successfully",
		"email":   req.Email,
	})
}

func (h *Handler) verifyMagicLink(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "token is required"})
		return
	}

	user, token, expiresAt, err := h.auth.VerifyMagicLink(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidLink) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired magic link"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		User:        userToResponse(user),
	})
}

func (h *Handler) currentUser(c *gin.Context) {
	user := mustCurrentUser(c)
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) updateCurrentUser(c *gin.Context) {
	user := mustCurrentUser(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	username := ""
	if req.Username != nil {
		username = *req.Username
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		case errors.Is(err, service.ErrInvalidUsername):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUnauthenticated):
			unauthorized(c)
		default:
			h.serverError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, userToResponse(updated))
}

// requireUser resolves the bearer token to an active user and aborts with
// 401 otherwise.
func (h *Handler) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			c.Abort()
			return
		}

		user, err := h.auth.GetCurrentUser(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				unauthorized(c)
			} else {
				h.serverError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
}

func mustCurrentUser(c *gin.Context) *domain.User {
	return c.MustGet(currentUserKey).(*domain.User)
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}
