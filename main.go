package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"updrsserve/config"
	qhttp "updrsserve/http"
	"updrsserve/logger"
	"updrsserve/ml"
)

func main() {
	// 1. Load config
	configPath := config.Locate()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	zlog, level, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	// 3. Model, loaded once before any traffic
	modelPath, err := ml.DefaultModelPath()
	if err != nil {
		zap.L().Error("Failed to load model.", zap.Error(err))
		zlog.Sync()
		os.Exit(1)
	}
	svc, err := loadModel(modelPath, cfg.Predict.CacheSize)
	if err != nil {
		zlog.Sync()
		os.Exit(1)
	}
	qhttp.SetPredictor(svc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if configPath != "" {
		go watchConfig(ctx, configPath, level)
	}

	// 4. HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:         cfg.Http.Port,
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		IdleTimeout:  cfg.Http.IdleTimeout,
		MaxBodyBytes: cfg.Http.MaxBodyBytes,
	})
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	// 5. Graceful shutdown
	select {
	case <-ctx.Done():
		zap.L().Info("Shutting down...")
	case err := <-serveErr:
		if err != nil {
			zap.L().Error("HTTP server failed", zap.Error(err))
			zlog.Sync()
			os.Exit(1)
		}
	}

	if err := server.Stop(); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}
	zap.L().Info("Exiting")
}

// loadModel loads the artifact at path. Failure is logged in full; the caller
// refuses to start.
func loadModel(path string, cacheSize int) (*ml.Service, error) {
	model, modelType, err := ml.LoadModel(path)
	if err != nil {
		zap.L().Error("Failed to load model.", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	zap.L().Info(fmt.Sprintf("Model loaded successfully from %s.", path),
		zap.String("path", path),
		zap.String("model_type", modelType),
	)

	svc, err := ml.NewService(model, cacheSize)
	if err != nil {
		zap.L().Error("Failed to create prediction service.", zap.Error(err))
		return nil, err
	}
	return svc, nil
}

// watchConfig applies log level edits live; everything else needs a restart.
func watchConfig(ctx context.Context, path string, level zap.AtomicLevel) {
	err := config.Watch(ctx, path, func(cfg *config.Config) {
		next, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			zap.L().Warn("Ignoring invalid log level.", zap.String("level", cfg.Log.Level))
			return
		}
		if next != level.Level() {
			level.SetLevel(next)
			zap.L().Info("Log level changed.", zap.Stringer("level", next))
		}
	})
	if err != nil {
		zap.L().Warn("Config watcher stopped.", zap.Error(err))
	}
}
