package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl marks report reads as cacheable by the client for
// maxAgeSeconds. Reports change only when a run completes.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := fmt.Sprintf("private, max-age=%d", maxAgeSeconds)
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// NoStore disables client caching, for endpoints that trigger work.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
