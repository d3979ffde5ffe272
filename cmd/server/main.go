package main

import (
	"log"

	"tabhook/internal/config"
	"tabhook/internal/handler"
	"tabhook/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	router := handler.NewRouter(cfg)

	logger.GetLogger().Info("starting tableau slack bridge", zap.String("addr", cfg.ListenAddr))
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.GetLogger().Fatal("server error", zap.Error(err))
	}
}
