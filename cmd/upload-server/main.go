package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"upload-service/internal/config"
	grpcServer "upload-service/internal/grpc"
	"upload-service/internal/handlers"
	"upload-service/internal/logging"
	"upload-service/internal/redis"
	"upload-service/internal/storage"
	"upload-service/internal/uploads"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	logger := logging.New(os.Stdout, cfg.Server.Environment)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize storage and the well-known folders
	fileStorage, err := storage.NewLocalStorage(cfg.Storage.Root, config.WellKnownFolders...)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it file events are simply not published
	var events uploads.EventPublisher
	if cfg.RedisEnabled() {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.Channel)
		if err != nil {
			logger.Error("failed to connect to Redis", "addr", cfg.GetRedisAddr(), "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		events = redisClient
		logger.Info("publishing file events", "addr", cfg.GetRedisAddr(), "channel", redisClient.Channel())
	}

	service := uploads.NewService(fileStorage, events, cfg.Storage.MaxUploadBytes, logger)

	routerCfg := handlers.RouterConfig{
		Uploads:     handlers.NewUploadHandler(service, cfg.IsProduction(), logger),
		Files:       handlers.NewFileHandler(fileStorage, cfg.IsProduction(), logger),
		Logger:      logger,
		Production:  cfg.IsProduction(),
		CORSOrigin:  cfg.Server.CORSOrigin,
		FrontendDir: cfg.Server.FrontendDir,
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		routerCfg.RateLimiter = handlers.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, handlers.APIPrefix+"/health")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var healthServer *grpcServer.Server
	if cfg.GRPC.Port != "" {
		healthServer = grpcServer.NewServer(cfg.GRPC.Port, logger)
		go func() {
			if err := healthServer.Start(); err != nil {
				logger.Error("gRPC server failed", "error", err)
				os.Exit(1)
			}
		}()
	}

	// Start HTTP server
	go func() {
		logger.Info("upload server starting",
			"port", cfg.Server.Port,
			"environment", cfg.Server.Environment,
			"root", fileStorage.Root(),
			"max_upload_bytes", cfg.Storage.MaxUploadBytes)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()
	if healthServer != nil {
		healthServer.SetServing(true)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	for sig := <-quit; sig == syscall.SIGQUIT; sig = <-quit {
		dumpGoroutines(logger, "upload-server")
	}

	logger.Info("Shutting down servers...")
	if healthServer != nil {
		healthServer.SetServing(false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if healthServer != nil {
		healthServer.Stop()
	}

	logger.Info("Servers exited")
}

// dumpGoroutines writes a goroutine dump to a file, falling back to stderr
func dumpGoroutines(logger *slog.Logger, serverName string) {
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("goroutine-dump-%s-%s.txt", serverName, timestamp)

	file, err := os.Create(filename)
	if err != nil {
		logger.Error("failed to create goroutine dump file", "error", err)
		fmt.Fprintf(os.Stderr, "\n=== Goroutine Dump for %s at %s ===\n", serverName, time.Now().Format(time.RFC3339))
		pprof.Lookup("goroutine").WriteTo(os.Stderr, 2)
		return
	}
	defer file.Close()

	fmt.Fprintf(file, "=== Goroutine Dump for %s at %s ===\n", serverName, time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "Total goroutines: %d\n\n", runtime.NumGoroutine())
	pprof.Lookup("goroutine").WriteTo(file, 2)

	logger.Info("goroutine dump written", "file", filename)
}
