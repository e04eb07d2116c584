package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrorHandlerMiddleware assigns each request a unique ID and converts
// errors collected during handling into a single error response.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("RequestID", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors[0].Err
			Err(c, err)
			c.Abort()
		}
	}
}

// RecoveryMiddleware recovers from panics and answers with a 500.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestID, _ := c.Get("RequestID")
				requestIDStr, _ := requestID.(string)

				var err *AppError
				switch v := r.(type) {
				case error:
					err = Internal("panic recovered", v).WithRequestID(requestIDStr)
				default:
					err = Internal(fmt.Sprintf("panic recovered: %v", r), nil).WithRequestID(requestIDStr)
				}

				log.Error().Str("request_id", requestIDStr).Msgf("panic recovered: %v", r)

				c.JSON(http.StatusInternalServerError, err)
				c.Abort()
			}
		}()

		c.Next()
	}
}
