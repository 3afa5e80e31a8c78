package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AdminOptions controls the diagnostics application bound to proxy.admin_port.
type AdminOptions struct {
	Logger *logrus.Logger
	Port   int
}

const contextKeyRequestID = "_mavenhub_request_id"

// NewAdminApp builds the Fiber diagnostics app with request-ID middleware and
// JSON 404s. Routes are registered separately (see package routes).
func NewAdminApp(opts AdminOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("invalid admin port: %d", opts.Port)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts.Logger))

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID 并记录诊断访问。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		err := c.Next()
		logger.WithFields(logrus.Fields{
			"action":     "admin",
			"request_id": reqID,
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
		}).Debug("admin request")
		return err
	}
}

// RequestID returns the request identifier stored by the admin middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

// NotFound 渲染统一的 JSON 404，应在所有路由注册完成后挂载。
func NotFound(app *fiber.App) {
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	})
}
