package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/middleware"
	"github.com/stemsi/exstem-progress/internal/model"
	"github.com/stemsi/exstem-progress/internal/response"
	"github.com/stemsi/exstem-progress/internal/service"
	"github.com/stemsi/exstem-progress/internal/validator"
)

// AuthHandler handles admin authentication.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// AdminLogin godoc
// POST /api/v1/auth/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Warn().Str("username", req.Username).Str("ip", c.ClientIP()).Msg("Failed login")
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// AdminProfile godoc
// GET /api/v1/admin/me
func (h *AuthHandler) AdminProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"username":   claims.Subject,
		"expires_at": claims.ExpiresAt.Time,
	})
}
