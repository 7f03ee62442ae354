// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // Import validator for binding errors

	"github.com/schemaforge/schemaforge/internal/auth"
	"github.com/schemaforge/schemaforge/internal/logger"
	"github.com/schemaforge/schemaforge/internal/schema"
	"github.com/schemaforge/schemaforge/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// ErrorHandler creates a Gin middleware for centralized error handling.
// Handlers attach errors with c.Error; this middleware maps the last one
// to an HTTP status and a {"error": ...} body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// We only handle the last error for the response.
		err := c.Errors.Last().Err
		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		var statusCode int
		var userMessage string

		switch {
		case errors.Is(err, storage.ErrUserNotFound),
			errors.Is(err, storage.ErrSchemaNotFound),
			errors.Is(err, storage.ErrRecordNotFound),
			errors.Is(err, storage.ErrNotificationNotFound),
			errors.Is(err, storage.ErrTableNotFound):
			statusCode = http.StatusNotFound
			userMessage = err.Error()

		case errors.Is(err, storage.ErrEmailExists),
			errors.Is(err, storage.ErrSchemaExists),
			errors.Is(err, storage.ErrConstraintViolation):
			statusCode = http.StatusConflict
			userMessage = err.Error()

		case errors.Is(err, storage.ErrInvalidCredentials):
			statusCode = http.StatusUnauthorized
			userMessage = err.Error()

		case errors.Is(err, storage.ErrAccountDisabled):
			statusCode = http.StatusForbidden
			userMessage = err.Error()

		case errors.Is(err, storage.ErrQuotaExceeded):
			statusCode = http.StatusTooManyRequests
			userMessage = err.Error()

		case errors.Is(err, auth.ErrTokenExpired):
			statusCode = http.StatusUnauthorized
			userMessage = "Authentication token has expired."

		case errors.Is(err, auth.ErrTokenMalformed),
			errors.Is(err, auth.ErrTokenInvalid),
			errors.Is(err, auth.ErrTokenClaimsInvalid),
			errors.Is(err, auth.ErrUnexpectedSigningMethod),
			errors.Is(err, storage.ErrAPIKeyNotFound):
			statusCode = http.StatusUnauthorized
			userMessage = "Invalid or malformed authentication credential."

		case errors.Is(err, auth.ErrUnauthorized):
			statusCode = http.StatusUnauthorized
			userMessage = err.Error()

		case errors.Is(err, auth.ErrForbidden):
			statusCode = http.StatusForbidden
			userMessage = err.Error()

		case errors.Is(err, schema.ErrInvalidDraft),
			errors.Is(err, storage.ErrColumnNotFound),
			errors.Is(err, storage.ErrUnknownField),
			errors.Is(err, storage.ErrMissingRequired),
			errors.Is(err, storage.ErrTypeMismatch),
			errors.Is(err, auth.ErrBadRequest):
			statusCode = http.StatusBadRequest
			userMessage = err.Error()

		default:
			if validationErrs, ok := err.(validator.ValidationErrors); ok {
				// Handle validation errors from c.ShouldBindJSON
				statusCode = http.StatusBadRequest
				userMessage = "Validation failed. Please check your input."
				for _, fe := range validationErrs {
					customLog.Printf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
				}
				break
			}
			// Assume internal server error for unexpected types
			statusCode = http.StatusInternalServerError
			userMessage = "An unexpected internal server error occurred."
			customLog.Printf("Unhandled error type: %T, Error: %v", err, err)
		}

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
		} else {
			customLog.Printf("[ErrorHandler] Warning: Response already written before handling error.")
		}
	}
}
