package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids caching of generated files and exports, whose content
// changes under the same URL family on every request.
const NoStore = "no-store"

// CacheControl sets the Cache-Control header for responses.
func CacheControl(value string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
