package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthHeader carries the shared secret on every protected request.
const AuthHeader = "X-API-Key"

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// authMiddleware rejects requests before the body is read. The two refusal
// messages distinguish an absent credential from a wrong one; neither ever
// includes the configured secret. Comparison is constant-time.
func (s *Service) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := s.conf.GetAPIKey()
		if secret == "" {
			// No credential configured: the gate is open.
			c.Next()
			return
		}

		supplied := c.GetHeader(AuthHeader)
		if supplied == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
			c.Abort()
			return
		}

		c.Next()
	}
}
