package main

import (
	"context"
	"flag"
	"net"
	"os"
	"time"

	"upload-service/internal/config"
	"upload-service/internal/diagnostics"
	grpcServer "upload-service/internal/grpc"
	"upload-service/internal/handlers"
	"upload-service/internal/redis"
)

func main() {
	cfg := config.LoadConfig()

	root := flag.String("root", cfg.Storage.Root, "upload root directory")
	baseURL := flag.String("url", "http://localhost:"+cfg.Server.Port, "base URL of the upload server (empty to skip)")
	grpcAddr := flag.String("grpc", grpcDefault(cfg), "gRPC health address (empty to skip)")
	redisAddr := flag.String("redis", redisDefault(cfg), "Redis address for file events (empty to skip)")
	fix := flag.Bool("fix", false, "create missing well-known folders")
	timeout := flag.Duration("timeout", 10*time.Second, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	opts := diagnostics.Options{
		Root:        *root,
		Folders:     config.WellKnownFolders,
		Fix:         *fix,
		GRPCAddr:    *grpcAddr,
		GRPCChecker: grpcCheck,
		RedisAddr:   *redisAddr,
		RedisPing: func(ctx context.Context, addr string) error {
			return redisPing(ctx, addr, cfg.Redis.Password)
		},
	}
	if *baseURL != "" {
		opts.HealthURL = *baseURL + handlers.APIPrefix + "/health"
	}

	results := diagnostics.Run(ctx, opts)
	diagnostics.Print(os.Stdout, results)
	if !diagnostics.Passed(results) {
		os.Exit(1)
	}
}

func grpcCheck(ctx context.Context, addr string) (string, error) {
	return grpcServer.CheckHealth(ctx, addr)
}

func grpcDefault(cfg *config.Config) string {
	if cfg.GRPC.Port == "" {
		return ""
	}
	return "localhost:" + cfg.GRPC.Port
}

func redisDefault(cfg *config.Config) string {
	if !cfg.RedisEnabled() {
		return ""
	}
	return cfg.GetRedisAddr()
}

func redisPing(ctx context.Context, addr, password string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	client, err := redis.NewClient(host, port, password, "")
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Ping(ctx)
}
