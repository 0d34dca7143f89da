package handlers

import (
	"github.com/gofiber/fiber/v2"

	"ytsum/errors"
	"ytsum/models"
	"ytsum/orchestrator"
	"ytsum/repository"
)

type SummarizeHandler struct {
	orchestrator *orchestrator.Service
	summaries    repository.SummaryRepository
}

func NewSummarizeHandler(o *orchestrator.Service, summaries repository.SummaryRepository) *SummarizeHandler {
	return &SummarizeHandler{orchestrator: o, summaries: summaries}
}

// Summarize accepts a video URL and answers immediately with a task id.
// The summary itself is fetched once polling reports completion.
func (h *SummarizeHandler) Summarize(c *fiber.Ctx) error {
	var req models.SummarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid request body",
			Err:     err,
		}
	}

	taskID, err := h.orchestrator.Start(c.Context(), req, c.IP())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(models.SummarizeResponse{
		TaskID: taskID,
		Status: models.StatusQueued,
		URL:    req.URL,
	})
}

func (h *SummarizeHandler) GetSummary(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "ID is required",
		}
	}

	summary, err := h.summaries.Find(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    summary,
	})
}
