package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/customeros/cardstack/internal/utils"
)

// CustomContextMiddleware copies tenant, user and roles from the gin context into the request context
func CustomContextMiddleware(appSource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.WithCustomContextFromGinRequest(c, appSource)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
