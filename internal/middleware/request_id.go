package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// maxRequestIDLength caps client-supplied request IDs before they reach logs
const maxRequestIDLength = 64

// RequestIDConfig configures the request ID middleware
type RequestIDConfig struct {
	// Header is the header key for the request ID
	Header string
	// Generator generates a new request ID
	Generator func() string
}

// DefaultRequestIDConfig returns default request ID config
func DefaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.New().String()
		},
	}
}

// RequestID creates a middleware that propagates the incoming request ID
// or generates one, exposing it via header and locals
func RequestID(config ...RequestIDConfig) fiber.Handler {
	cfg := DefaultRequestIDConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		requestID := c.Get(cfg.Header)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = cfg.Generator()
		}

		c.Set(cfg.Header, requestID)
		c.Locals("requestID", requestID)

		return c.Next()
	}
}
