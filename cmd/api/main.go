package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shortgen/internal/engine"
	"shortgen/internal/http/handlers"
	"shortgen/internal/http/httpapi"
	"shortgen/internal/infra"
	"shortgen/internal/jobstore"
	"shortgen/internal/providers/genai"
	"shortgen/internal/queue"
	"shortgen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	blobs, err := buildBlobStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}
	if blobs == nil {
		logger.Warn().Msg("api: no durable storage configured, jobs live in memory only")
	}

	outputURI := "videos/"
	if cfg.GCSBucket != "" {
		outputURI = fmt.Sprintf("gs://%s/videos/", cfg.GCSBucket)
	}
	backend, err := genai.NewClient(genai.Options{
		APIKey:           cfg.GeminiAPIKey,
		BaseURL:          cfg.GeminiBaseURL,
		ImageModel:       cfg.ImageModel,
		VideoModel:       cfg.VideoModel,
		OutputStorageURI: outputURI,
		Logger:           &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure generation backend")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("api: gemini api key missing, using synthetic generation")
	}

	store := jobstore.New(blobs, logger)
	eng := engine.New(engine.Options{
		Store:   store,
		Blobs:   blobs,
		Backend: backend,
		Logger:  logger,
	})

	if cfg.WorkerServiceURL != "" {
		dispatcher, err := queue.NewCloudTasks(queue.CloudTasksOptions{
			BaseURL:   cfg.CloudTasksBaseURL,
			Project:   cfg.CloudTasksProject,
			Location:  cfg.CloudTasksLocation,
			Queue:     cfg.CloudTasksQueue,
			WorkerURL: cfg.WorkerServiceURL,
			Token:     cfg.CloudTasksToken,
			Logger:    logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("api: failed to configure managed dispatch")
		}
		eng.UseDispatcher(dispatcher)
		logger.Info().Str("worker", cfg.WorkerServiceURL).Msg("api: managed dispatch enabled")
	} else {
		local := queue.NewLocal(eng.ProcessJob, logger)
		defer local.Close()
		eng.UseDispatcher(local)
		logger.Info().Msg("api: local dispatch enabled")
	}

	app := handlers.NewApp(eng, logger)
	router := httpapi.NewRouter(app, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := infra.Serve(ctx, cfg, router, logger); err != nil {
		logger.Error().Err(err).Msg("api: http server failed")
		return
	}
	logger.Info().Msg("api: stopped")
}

func buildBlobStore(cfg *infra.Config) (storage.BlobStore, error) {
	if cfg.GCSBucket != "" {
		return storage.NewGCSStore(storage.GCSOptions{
			Bucket: cfg.GCSBucket,
			Token:  cfg.GCSToken,
		})
	}
	if cfg.StoragePath != "" {
		return storage.NewFileStore(cfg.StoragePath, cfg.PublicBaseURL)
	}
	return nil, nil
}
