package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/docs"
	"github.com/BarkinBalci/event-board-service/internal/config"
	"github.com/BarkinBalci/event-board-service/internal/handler"
	"github.com/BarkinBalci/event-board-service/internal/logger"
	"github.com/BarkinBalci/event-board-service/internal/media"
	"github.com/BarkinBalci/event-board-service/internal/media/cloudinary"
	"github.com/BarkinBalci/event-board-service/internal/media/s3"
	"github.com/BarkinBalci/event-board-service/internal/metrics"
	"github.com/BarkinBalci/event-board-service/internal/notifier"
	"github.com/BarkinBalci/event-board-service/internal/queue"
	"github.com/BarkinBalci/event-board-service/internal/queue/sqs"
	"github.com/BarkinBalci/event-board-service/internal/repository/mongo"
	"github.com/BarkinBalci/event-board-service/internal/service"
)

// @title Event Board Service API
// @version 1.0
// @description API for creating, listing and deleting events with real-time change notifications
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := cfg.ValidateAPI(); err != nil {
		panic(fmt.Sprintf("Invalid config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort),
		zap.String("media_provider", cfg.Media.Provider))

	// Configure Swagger host dynamically
	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx := context.Background()

	mongoClient, err := mongo.NewClient(ctx, &cfg.Mongo, log)
	if err != nil {
		log.Fatal("Failed to create MongoDB client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Close(closeCtx); err != nil {
			log.Error("Failed to close MongoDB client", zap.Error(err))
		}
	}()

	repo := mongo.NewRepository(mongoClient.Collection(), mongoClient, log)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to ensure MongoDB indexes", zap.Error(err))
	}

	m := metrics.New()

	mediaBackend, err := newMediaBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create media backend", zap.Error(err))
	}

	// Activity relay is optional; a nil interface disables it.
	var relay queue.ActivityPublisher
	if cfg.SQS.QueueURL != "" {
		sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
		if err != nil {
			log.Fatal("Failed to create SQS client", zap.Error(err))
		}
		relay = sqsClient
	}

	hub := notifier.NewHub(cfg.Service.StreamBufferSize, m, log)
	eventNotifier := notifier.NewNotifier(hub, relay, m, log)

	eventService := service.NewEventService(repo, media.NewInstrumented(mediaBackend, m, log), log)

	h := handler.NewHandler(eventService, eventNotifier, hub, m, handler.Options{
		Upload:          cfg.Upload,
		StreamHeartbeat: time.Duration(cfg.Service.StreamHeartbeatSec) * time.Second,
	}, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Service.APIPort),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("API server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Shutting down API service gracefully", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("API server error", zap.Error(err))
	}

	// Stream handlers only return once their subscription closes.
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Service.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}
	if err := eventNotifier.Close(shutdownCtx); err != nil {
		log.Error("Failed to flush activity relay", zap.Error(err))
	}
}

func newMediaBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (media.Backend, error) {
	switch cfg.Media.Provider {
	case config.MediaProviderCloudinary:
		return cloudinary.NewClient(cfg.Cloudinary, cfg.Media, log)
	case config.MediaProviderS3:
		return s3.NewClient(ctx, cfg.S3, cfg.Media, log)
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Media.Provider)
	}
}
