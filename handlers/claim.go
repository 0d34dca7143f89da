package handlers

import (
	"github.com/gofiber/fiber/v2"

	"ytsum/errors"
	"ytsum/models"
	"ytsum/services/anonymous"
)

type ClaimHandler struct {
	service anonymous.Service
}

func NewClaimHandler(service anonymous.Service) *ClaimHandler {
	return &ClaimHandler{service: service}
}

func (h *ClaimHandler) Claim(c *fiber.Ctx) error {
	var req models.ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid request body",
			Err:     err,
		}
	}

	claimed, err := h.service.Claim(c.Context(), req.Fingerprint, req.UserID)
	if err != nil {
		return err
	}

	return c.JSON(models.ClaimResponse{ClaimedCount: claimed})
}
