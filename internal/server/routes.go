package server

import (
	"internhunt/internal/core/discover"
	"internhunt/internal/core/run"
	"internhunt/internal/core/submit"
	"internhunt/internal/health"
	"internhunt/internal/platform/redis"

	"github.com/gofiber/fiber/v2"
)

type Dependencies struct {
	Discover *discover.Service
	Submit   *submit.Service
	Runs     *run.Service
	Redis    *redis.Service
	DataDir  string
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	// Health endpoints
	healthHandler := health.NewHealthHandler(d.Redis, d.DataDir)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/v1")

	discoverHandler := discover.NewHandler(d.Discover, d.Runs)
	api.Get("/discover", discoverHandler.HandleGetDiscover)
	api.Post("/discover", discoverHandler.HandleCreateDiscover)
	api.Delete("/discover", discoverHandler.HandleInvalidate)
	api.Get("/discover/:runId", discoverHandler.HandleGetRun)

	submitHandler := submit.NewHandler(d.Submit, d.Runs)
	api.Post("/submissions", submitHandler.HandleCreateSubmission)
	api.Get("/submissions/:runId", submitHandler.HandleGetRun)

	return healthHandler
}
