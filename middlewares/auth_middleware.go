package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middlewares.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRole     = "role"
	ContextToken    = "token"
)

// tokenFromRequest reads a bearer token from the Authorization header or,
// for websocket handshakes, the token query parameter.
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

func setClaims(c *gin.Context, token string, claims *utils.CustomClaims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextRole, claims.Role)
	c.Set(ContextToken, token)
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			utils.AbortError(c, http.StatusUnauthorized, errors.New("authorization token missing"))
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.AbortError(c, http.StatusUnauthorized, err)
			return
		}
		if claims.UserID == 0 || claims.Username == "" {
			utils.AbortError(c, http.StatusUnauthorized, errors.New("invalid user in token"))
			return
		}

		setClaims(c, token, claims)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromRequest(c); token != "" {
			if claims, err := utils.ParseToken(token); err == nil && claims.Username != "" {
				setClaims(c, token, claims)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated username and role, if any.
func CurrentUser(c *gin.Context) (username, role string, ok bool) {
	username = c.GetString(ContextUsername)
	role = c.GetString(ContextRole)
	return username, role, username != ""
}
