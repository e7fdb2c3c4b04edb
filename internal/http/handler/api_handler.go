package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortURL/internal/app/service"
	"go.uber.org/zap"
)

const notOwnedMessage = "URL not found or not owned by user"

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	// BaseURL prefixes short codes in responses, without a trailing slash.
	BaseURL string
}

// APIHandler implements the management API endpoints.
type APIHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	baseURL     string
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:      logger,
		linkService: deps.LinkService,
		baseURL:     strings.TrimRight(deps.BaseURL, "/"),
	}
}

// Register wires API routes onto the provided router. It must run before the
// catch-all short code route is registered.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		api.Post("/shorten", h.Shorten)
		api.Get("/urls/:user_id", h.ListUserURLs)
		api.Delete("/urls/:id/:user_id", h.DeleteURL)
		api.Get("/qrcode/:short_code", h.QRCode)
	}
}

// ShortenRequest represents the request body for creating a link.
type ShortenRequest struct {
	LongURL    string  `json:"long_url"`
	CustomCode *string `json:"custom_code,omitempty"`
	Timeout    *int64  `json:"timeout,omitempty"`
	UserID     string  `json:"user_id"`
}

// Shorten handles POST /api/shorten
func (h *APIHandler) Shorten(c *fiber.Ctx) error {
	var req ShortenRequest
	if err := c.BodyParser(&req); err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid request body")
	}

	// A blank custom code means "generate one".
	if req.CustomCode != nil && strings.TrimSpace(*req.CustomCode) == "" {
		req.CustomCode = nil
	}

	link, err := h.linkService.Create(requestContext(c), service.CreateLinkInput{
		LongURL:        req.LongURL,
		CustomCode:     req.CustomCode,
		TimeoutSeconds: req.Timeout,
		UserID:         req.UserID,
	})
	if err != nil {
		if service.IsValidationError(err) || errors.Is(err, service.ErrCodeConflict) {
			return failure(c, fiber.StatusBadRequest, errorMessage(err))
		}
		h.logger.Error("failed to create link", zap.Error(err))
		return failure(c, fiber.StatusInternalServerError, errorMessage(err))
	}

	return success(c, "Short URL created successfully", newShortURLResponse(*link, h.baseURL))
}

// ListUserURLs handles GET /api/urls/:user_id
func (h *APIHandler) ListUserURLs(c *fiber.Ctx) error {
	userID := c.Params("user_id")

	links, err := h.linkService.ListForUser(requestContext(c), userID)
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err), zap.String("user_id", userID))
		return failure(c, fiber.StatusInternalServerError, errorMessage(err))
	}

	response := make([]ShortURLResponse, len(links))
	for i, link := range links {
		response[i] = newShortURLResponse(link, h.baseURL)
	}

	return success(c, "URLs retrieved successfully", response)
}

// DeleteURL handles DELETE /api/urls/:id/:user_id
func (h *APIHandler) DeleteURL(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return failure(c, fiber.StatusNotFound, notOwnedMessage)
	}
	userID := c.Params("user_id")

	deleted, err := h.linkService.Delete(requestContext(c), id, userID)
	if err != nil {
		h.logger.Error("failed to delete link", zap.Error(err), zap.Int64("id", id))
		return failure(c, fiber.StatusInternalServerError, errorMessage(err))
	}
	if !deleted {
		return failure(c, fiber.StatusNotFound, notOwnedMessage)
	}

	return success(c, "URL deleted successfully", nil)
}

// QRCode handles GET /api/qrcode/:short_code, the target encoded in printed QR codes.
func (h *APIHandler) QRCode(c *fiber.Ctx) error {
	code := c.Params("short_code")

	longURL, err := h.linkService.Resolve(requestContext(c), code)
	if err != nil {
		// status only, no body
		if errors.Is(err, service.ErrNotFound) {
			c.Status(fiber.StatusNotFound)
			return nil
		}
		h.logger.Error("failed to resolve qr code", zap.Error(err), zap.String("code", code))
		c.Status(fiber.StatusInternalServerError)
		return nil
	}

	return c.Redirect(longURL, fiber.StatusFound)
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}
