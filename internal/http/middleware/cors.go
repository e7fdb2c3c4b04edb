package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// CORS allows any origin, method and header. Preflight requests stop here.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			origin = "*"
		}
		c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		c.Vary(fiber.HeaderOrigin)
		c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Set(fiber.HeaderAccessControlExposeHeaders, "Content-Length, Content-Type, "+RequestIDHeader)

		if c.Method() != fiber.MethodOptions {
			return c.Next()
		}

		headers := c.Get(fiber.HeaderAccessControlRequestHeaders)
		if headers == "" {
			headers = "Origin, Content-Type, Accept, Authorization"
		}
		c.Set(fiber.HeaderAccessControlAllowHeaders, headers)
		c.Set(fiber.HeaderAccessControlMaxAge, "86400")
		return c.SendStatus(fiber.StatusNoContent)
	}
}
