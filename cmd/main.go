package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"internhunt/internal/config"
	"internhunt/internal/core/classify"
	"internhunt/internal/core/decide"
	"internhunt/internal/core/discover"
	"internhunt/internal/core/fetch"
	"internhunt/internal/core/fetch/robots"
	"internhunt/internal/core/navigate"
	"internhunt/internal/core/run"
	"internhunt/internal/core/seeds"
	"internhunt/internal/core/submit"
	"internhunt/internal/logger"
	"internhunt/internal/platform/eino"
	rds "internhunt/internal/platform/redis"
	tasks "internhunt/internal/platform/tasks"
	"internhunt/internal/server"
	"internhunt/internal/worker"
	"internhunt/prompts"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()
	log.Printf("[internhunt] starting at %s (env=%s)\n", cfg.HTTPAddr, cfg.Env)

	// Initialize logger
	logr := logger.New("main")

	// Redis client
	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	// Asynq client and server
	taskClient := tasks.New(redisSvc)
	asynqServer := asynq.NewServer(redisSvc.AsynqRedisOpt(), asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
	})

	// Run lifecycle and webhook notifier
	runSvc := run.NewService(redisSvc)
	notifier := run.NewNotifier(cfg.WebhookSigningSecret)

	// Link classifier, with optional YAML rule overrides
	rules, err := classify.LoadRules(cfg.ClassifierRulesPath)
	if err != nil {
		log.Fatalf("failed to load classifier rules: %v", err)
	}
	classifier := classify.New(rules)

	// Robots policy is shared by the renderer and the seed harvester
	robotsSvc := robots.New()
	fetchSvc := fetch.NewService(cfg, robotsSvc)
	seedSvc := seeds.NewService(classifier, robotsSvc)

	// Navigation oracle: heuristic by default, model-assisted on demand
	var oracle decide.Oracle = decide.NewHeuristicOracle()
	if strings.EqualFold(cfg.OracleMode, "model") {
		einoSvc, err := eino.NewService(eino.Config{
			Provider: cfg.LLMProvider,
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.DefaultLLMModel,
		})
		if err != nil {
			log.Fatalf("failed to initialize Eino service: %v", err)
		}
		oracle = decide.NewModelAssistedOracle(decide.NewHeuristicOracle(), einoSvc, prompts.NewSystemPrompts(), cfg.OracleTimeoutSec)
	}

	// Discovery pipeline
	navigator := navigate.New(fetchSvc, classifier, oracle, navigate.ConfigFrom(cfg))
	discoverSvc := discover.NewService(cfg, redisSvc, seedSvc, navigator, runSvc, taskClient, notifier)

	// Submission pipeline, with optional YAML selector overrides
	selectors, err := submit.LoadSelectors(cfg.SubmitSelectorsPath)
	if err != nil {
		log.Fatalf("failed to load submit selectors: %v", err)
	}
	artifacts := submit.NewArtifacts(cfg)
	runner := submit.NewRunner(submit.ConfigFrom(cfg), submit.NewFillerFactory(selectors, artifacts))
	submitSvc := submit.NewService(cfg, runner, runSvc, taskClient, notifier)

	// Worker mux
	mux := worker.NewMux()
	mux.HandleFunc(tasks.TaskTypeDiscover, discoverSvc.HandleDiscoverTask)
	mux.HandleFunc(tasks.TaskTypeSubmit, submitSvc.HandleSubmitTask)

	// Start worker
	_, workerCancel := context.WithCancel(context.Background())
	go func() {
		if err := asynqServer.Start(mux.Mux()); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName: "Internhunt Engine",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})
	// Serve saved artifacts (e.g., submission proofs) from DATA_DIR under /files
	app.Static("/files", cfg.DataDir)

	// Register routes with health handler
	deps := server.Dependencies{
		Discover: discoverSvc,
		Submit:   submitSvc,
		Runs:     runSvc,
		Redis:    redisSvc,
		DataDir:  cfg.DataDir,
	}
	healthHandler := server.RegisterRoutes(app, deps)

	// Mark application as ready after all services are initialized
	go func() {
		time.Sleep(5 * time.Second) // Allow services to fully initialize
		healthHandler.SetReady()
	}()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		workerCancel()
		asynqServer.Shutdown()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
