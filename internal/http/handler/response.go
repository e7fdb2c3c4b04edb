package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortURL/internal/app/model"
	"github.com/sifan077/ShortURL/internal/app/service"
)

// Envelope is the JSON body of every /api response except the QR redirect.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ShortURLResponse is the public view of a stored link.
type ShortURLResponse struct {
	ID        int64   `json:"id"`
	LongURL   string  `json:"long_url"`
	ShortCode string  `json:"short_code"`
	ShortURL  string  `json:"short_url"`
	CreatedAt string  `json:"created_at"`
	ExpiresAt *string `json:"expires_at"`
}

func newShortURLResponse(link model.ShortLink, baseURL string) ShortURLResponse {
	resp := ShortURLResponse{
		ID:        link.ID,
		LongURL:   link.LongURL,
		ShortCode: link.ShortCode,
		ShortURL:  baseURL + "/" + link.ShortCode,
		CreatedAt: link.CreatedAt.UTC().Format(time.RFC3339),
	}
	if link.ExpiresAt != nil {
		expires := link.ExpiresAt.UTC().Format(time.RFC3339)
		resp.ExpiresAt = &expires
	}
	return resp
}

func success(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data})
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

// errorMessage renders service errors for API clients.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		return "Invalid URL format"
	case errors.Is(err, service.ErrCodeConflict):
		return "Custom code already exists"
	case errors.Is(err, service.ErrInvalidTimeout):
		return "Timeout must be a positive number of seconds"
	case errors.Is(err, service.ErrInvalidCode):
		return "Invalid custom code"
	case errors.Is(err, service.ErrInvalidUserID):
		return "User ID is required"
	case errors.Is(err, service.ErrNotFound):
		return "Short URL not found or expired"
	default:
		return "Internal server error"
	}
}
