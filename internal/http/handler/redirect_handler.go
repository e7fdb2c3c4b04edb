package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortURL/internal/app/service"
	"go.uber.org/zap"
)

const (
	serviceName   = "ShortURL"
	healthTimeout = 2 * time.Second
)

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger *zap.Logger
	Links  service.LinkService
	// Ping checks the database for /health. Nil skips the check.
	Ping func(ctx context.Context) error
}

// RedirectHandler serves short code redirects and the service probes.
type RedirectHandler struct {
	logger *zap.Logger
	links  service.LinkService
	ping   func(ctx context.Context) error
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger: logger,
		links:  deps.Links,
		ping:   deps.Ping,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Root)
	router.Get("/health", h.Health)
	router.Get("/:short_code", h.Resolve)
}

// Root is a plain liveness banner.
func (h *RedirectHandler) Root(c *fiber.Ctx) error {
	return c.SendString("Short URL Service is running!")
}

// Health reports whether the database answers.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	status := fiber.StatusOK
	body := fiber.Map{
		"service":  serviceName,
		"status":   "ok",
		"database": "ok",
		"time":     time.Now().UTC().Format(time.RFC3339),
	}

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(requestContext(c), healthTimeout)
		defer cancel()

		if err := h.ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			status = fiber.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unavailable"
		}
	}

	return c.Status(status).JSON(body)
}

// Resolve handles GET /:short_code.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("short_code")

	longURL, err := h.links.Resolve(requestContext(c), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Short URL not found or expired")
		}
		h.logger.Error("failed to resolve short code", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	h.logger.Debug("redirecting short link", zap.String("code", code), zap.String("target", longURL))
	return c.Redirect(longURL, fiber.StatusFound)
}
