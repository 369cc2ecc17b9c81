package submit

import (
	"internhunt/internal/core/run"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service  *Service
	runs     *run.Service
	validate *validator.Validate
}

func NewHandler(service *Service, runs *run.Service) *Handler {
	return &Handler{service: service, runs: runs, validate: validator.New()}
}

type submitAPIResponse struct {
	Success bool `json:"success"`
	Response
}

// HandleCreateSubmission accepts a batch. Sync requests run inline and return
// full results; the default path enqueues and returns a run id.
func (h *Handler) HandleCreateSubmission(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if _, err := decodeResume(req.ResumeBase64); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid resume_base64"})
	}

	if req.Sync {
		resp, err := h.service.Submit(c.Context(), req)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
		return c.JSON(submitAPIResponse{Success: true, Response: *resp})
	}

	id, err := h.service.Enqueue(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "run_id": id})
}

// HandleGetRun reports submission run status; completed runs embed the results.
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	id := c.Params("runId")
	r, err := h.runs.Get(c.Context(), id)
	if err != nil || r.Kind != run.KindSubmission {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "not_found"})
	}

	resp := fiber.Map{"success": true, "run_id": r.RunID, "status": r.Status}
	if r.Status == run.StatusCompleted && len(r.Results) > 0 {
		resp["data"] = r.Results
	}
	if r.Error != "" {
		resp["error"] = r.Error
	}
	return c.JSON(resp)
}
