package handlers

import (
	"github.com/gofiber/fiber/v2"

	"ytsum/config"
	"ytsum/errors"
	"ytsum/progress"
)

type ProgressHandler struct {
	store   *progress.Store
	polling config.PollingConfig
}

func NewProgressHandler(store *progress.Store, polling config.PollingConfig) *ProgressHandler {
	return &ProgressHandler{store: store, polling: polling}
}

// Get returns the current record for a task. Unknown or expired ids are
// a 404; a freshly submitted task may legitimately 404 for a moment, so
// clients treat early misses as queued.
func (h *ProgressHandler) Get(c *fiber.Ctx) error {
	taskID := c.Params("task_id")
	if taskID == "" {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "Task ID is required",
		}
	}

	record, ok := h.store.Get(taskID)
	if !ok {
		return &errors.AppError{
			Code:    fiber.StatusNotFound,
			Message: "Task not found",
		}
	}

	return c.JSON(record)
}

// Delete lets a client acknowledge a finished task and free its record
// ahead of the retention sweep. Deleting an unknown id is not an error.
func (h *ProgressHandler) Delete(c *fiber.Ctx) error {
	taskID := c.Params("task_id")
	if taskID == "" {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "Task ID is required",
		}
	}

	if h.store.Delete(taskID) {
		return c.JSON(fiber.Map{"status": "cleaned"})
	}
	return c.JSON(fiber.Map{"status": "not_found"})
}

// PollingConfig serves the polling knobs so clients and the watch CLI
// stay in step with the server's settings.
func (h *ProgressHandler) PollingConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"base_interval_ms":   h.polling.BaseInterval.Milliseconds(),
		"max_interval_ms":    h.polling.MaxInterval.Milliseconds(),
		"jitter_ms":          h.polling.Jitter.Milliseconds(),
		"client_timeout_ms":  h.polling.ClientTimeout.Milliseconds(),
		"simulated_cap":      h.polling.SimulatedCap,
		"queued_grace_count": h.polling.QueuedGraceCount,
	})
}
