// Package handlers exposes the HTTP API: task submission, progress
// polling and cleanup, summary retrieval and anonymous claims.
package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
