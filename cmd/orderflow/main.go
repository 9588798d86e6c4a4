package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Bessima/orderflow/internal/app"
	"github.com/Bessima/orderflow/internal/config"
	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/Bessima/orderflow/internal/server"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		logger.Log.Fatal("Service stopped with error", zap.Error(err))
	}
}

func run() error {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conf := config.InitConfig()
	if err := logger.Initialize(conf.LogLevel); err != nil {
		logger.Log.Warn(err.Error())
	}
	defer func() { _ = logger.Log.Sync() }()

	application, err := app.Build(rootCtx, conf)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			logger.Log.Warn("Error closing resources", zap.Error(closeErr))
		}
	}()

	serverService := server.NewServerService(rootCtx, conf.Address)
	serverService.SetRouter(server.Dependencies{
		Auth:     application.Auth,
		Orders:   application.Orders,
		Imports:  application.Imports,
		Products: application.Products,
		Metrics:  application.Metrics.Handler(),
	})

	serverErr := make(chan error, 1)
	logger.Log.Info("Running Server on", zap.String("address", conf.Address))
	go serverService.RunServer(&serverErr)

	// Ждем сигнал завершения или ошибку сервера
	select {
	case <-rootCtx.Done():
		logger.Log.Info("Received shutdown signal, shutting down.")
	case err = <-serverErr:
		if err != nil {
			logger.Log.Error("Server error", zap.Error(err))
		}
	}

	if shutdownErr := serverService.Shutdown(); shutdownErr != nil {
		logger.Log.Error("Server shutdown error", zap.Error(shutdownErr))
	}

	return err
}
