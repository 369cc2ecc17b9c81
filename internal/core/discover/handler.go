package discover

import (
	"strings"

	"internhunt/internal/core/run"
	"internhunt/internal/utils/parser"

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

type discoverQuery struct {
	Seed    string `form:"seed"`
	Refresh bool   `form:"refresh"`
	Limit   int    `form:"limit"`
	Hops    int    `form:"hops"`
}

type discoverAPIResponse struct {
	Success bool `json:"success"`
	Response
}

// HandleGetDiscover runs a synchronous cached discovery.
func (h *Handler) HandleGetDiscover(c *fiber.Ctx) error {
	var q discoverQuery
	if err := parser.ParseQuery(c, &q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid query"})
	}

	resp, err := h.service.Discover(c.Context(), Request{
		SeedURL: q.Seed,
		Refresh: q.Refresh,
		Limit:   q.Limit,
		Hops:    q.Hops,
	})
	if err != nil {
		status := fiber.StatusInternalServerError
		if strings.Contains(err.Error(), "no seed url") {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(discoverAPIResponse{Success: true, Response: *resp})
}

// HandleCreateDiscover enqueues a discovery run.
func (h *Handler) HandleCreateDiscover(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	id, err := h.service.Enqueue(c.Context(), req)
	if err != nil {
		status := fiber.StatusInternalServerError
		if strings.Contains(err.Error(), "no seed url") {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "run_id": id})
}

// HandleInvalidate drops the cached discovery result for a seed URL.
func (h *Handler) HandleInvalidate(c *fiber.Ctx) error {
	seed := c.Query("seed")
	if seed == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "seed is required"})
	}
	if err := h.service.Invalidate(c.Context(), seed); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleGetRun reports discovery run status; completed runs embed the response.
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	id := c.Params("runId")
	r, err := h.runs.Get(c.Context(), id)
	if err != nil || r.Kind != run.KindDiscovery {
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
