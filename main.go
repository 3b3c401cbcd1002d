package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/256dpi/lungo"
	"github.com/gin-gonic/gin"

	"quill/config"
	"quill/database"
	"quill/handlers"
	"quill/middleware"
	"quill/posts"
	"quill/routes"
	"quill/uploads"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("starting blog API", "port", cfg.Port, "database", cfg.Database, "memory", cfg.Memory)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	db := client.Database(cfg.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Error("failed to create indexes", "error", err)
		os.Exit(1)
	}

	postStore := database.NewPostStore(db)
	categoryStore := database.NewCategoryStore(db)
	userStore := database.NewUserStore(db)

	service := posts.NewService(postStore, categoryStore, userStore, cfg.PageLimit, cfg.MaxPageLimit)
	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL, userStore, logger)

	uploader, err := newUploader(cfg)
	if err != nil {
		logger.Error("failed to set up uploads", "error", err)
		os.Exit(1)
	}

	var limiter *middleware.IPRateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.RateLimit, time.Minute)
	}

	gin.SetMode(cfg.GinMode)

	uploadDir := cfg.UploadDir
	if cfg.CloudinaryURL != "" {
		uploadDir = ""
	}

	router := routes.SetupRouter(routes.Deps{
		Posts:          handlers.NewPostHandler(service, uploader, logger, cfg.RequestTimeout, cfg.MaxUploadSize),
		Categories:     handlers.NewCategoryHandler(service, logger, cfg.RequestTimeout),
		Accounts:       handlers.NewAuthHandler(userStore, auth, logger, cfg.RequestTimeout),
		Auth:           auth,
		Limiter:        limiter,
		Log:            logger,
		AllowedOrigins: cfg.AllowedOrigins,
		UploadDir:      uploadDir,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// openStore connects to MongoDB, retrying a few times since the database
// often comes up alongside the API. In memory mode it starts an embedded
// engine instead.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (lungo.IClient, func(), error) {
	if cfg.Memory {
		client, engine, err := database.OpenMemory(ctx)
		if err != nil {
			return nil, nil, err
		}
		logger.Warn("using in-memory store, data is lost on exit")
		return client, func() { engine.Close() }, nil
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		client, err := database.Connect(ctx, cfg.MongoURI)
		if err == nil {
			logger.Info("connected to MongoDB")
			return client, func() {
				if err := database.Disconnect(client); err != nil {
					logger.Error("failed to disconnect from MongoDB", "error", err)
				}
			}, nil
		}

		lastErr = err
		logger.Warn("MongoDB connection attempt failed", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	return nil, nil, lastErr
}

func newUploader(cfg *config.Config) (uploads.Uploader, error) {
	if cfg.CloudinaryURL != "" {
		return uploads.NewCloudinary(cfg.CloudinaryURL, "blog")
	}
	return uploads.NewDisk(cfg.UploadDir), nil
}
