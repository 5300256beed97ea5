package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/stemsi/exstem-progress/internal/response"
	"github.com/stemsi/exstem-progress/internal/service"
)

// ContextKeyClaims is the Gin context key for JWT claims.
const ContextKeyClaims = "claims"

// RequireAdminJWT validates an admin JWT from the Authorization header.
func RequireAdminJWT(authService *service.AuthService) gin.HandlerFunc {
	return requireAdmin(authService, bearerToken)
}

// RequireAdminWSAuth validates an admin JWT from the ?token= query param.
// Browsers cannot set headers on WebSocket upgrade requests.
func RequireAdminWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return requireAdmin(authService, func(c *gin.Context) string { return c.Query("token") })
}

func requireAdmin(authService *service.AuthService, extract func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extract(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateToken(tokenStr)
		if err != nil {
			code := response.ErrTokenInvalid
			if errors.Is(err, jwt.ErrTokenExpired) {
				code = response.ErrTokenExpired
			}
			response.AbortFail(c, http.StatusUnauthorized, code)
			return
		}

		if claims.TokenType != service.TokenTypeAdmin {
			response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
