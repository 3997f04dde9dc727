package middlewares

import (
	"errors"
	"net/http"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
)

// RoleCheck allows the request only for the given roles. Must run after
// AuthMiddleware.
func RoleCheck(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextRole)
		if !exists {
			utils.AbortError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}
		utils.AbortError(c, http.StatusForbidden, errors.New(roles[0]+" access required"))
	}
}

func AdminOnly() gin.HandlerFunc {
	return RoleCheck(models.RoleAdmin)
}
