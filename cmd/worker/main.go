// The worker binary serves the push-task callback targeted by the managed
// queue. It holds no dispatcher: the tasks it receives were already
// enqueued, and the pipeline runs inline per request.
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
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}
	if blobs == nil {
		logger.Warn().Msg("worker: no durable storage configured, job state will not survive restarts")
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
		logger.Fatal().Err(err).Msg("worker: failed to configure generation backend")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("worker: gemini api key missing, using synthetic generation")
	}

	store := jobstore.New(blobs, logger)
	eng := engine.New(engine.Options{
		Store:   store,
		Blobs:   blobs,
		Backend: backend,
		Logger:  logger,
	})

	app := handlers.NewApp(eng, logger)
	router := httpapi.NewWorkerRouter(app, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := infra.Serve(ctx, cfg, router, logger); err != nil {
		logger.Error().Err(err).Msg("worker: http server failed")
		return
	}
	logger.Info().Msg("worker: stopped")
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
