package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/customeros/cardstack/internal/utils"
)

func UserIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := ""
		for _, header := range utils.UserIdHeaders {
			if value := c.GetHeader(header); value != "" {
				userId = value
				break
			}
		}

		var roles []string
		for _, role := range strings.Split(c.GetHeader(utils.RolesHeader), ",") {
			if role = strings.ToUpper(strings.TrimSpace(role)); role != "" {
				roles = append(roles, role)
			}
		}

		c.Set("UserId", userId)
		c.Set("UserRoles", roles)
		c.Next()
	}
}
