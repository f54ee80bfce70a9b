package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/env"
	"github.com/ichi0g0y/fortune-wheel/internal/localdb"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/paths"
	"github.com/ichi0g0y/fortune-wheel/internal/version"
	"github.com/ichi0g0y/fortune-wheel/internal/webserver"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	logger.Info("Starting fortune-wheel server", zap.String("version", version.String()))

	if err := paths.EnsureDataDirs(); err != nil {
		logger.Fatal("Failed to ensure data directories", zap.Error(err))
	}

	if _, err := localdb.SetupDB(paths.GetDBPath()); err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}
	defer localdb.Close()

	initializeSettings()

	// env.LoadEnv must run after DB initialization.
	env.LoadEnv()
	if env.Value.DebugMode {
		logger.Init(true)
		logger.Info("Debug mode enabled")
	}

	session, err := buildSession()
	if err != nil {
		logger.Fatal("Failed to build wheel session", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		if err := session.Run(ctx, env.Value.FrameInterval()); err != nil && err != context.Canceled {
			logger.Error("Frame driver stopped", zap.Error(err))
		}
	}()

	port := 8080
	if env.Value.ServerPort != 0 {
		port = env.Value.ServerPort
	}

	if err := webserver.StartWebServer(port, session, env.Value.AllowedOrigins); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	logger.Info("Server started",
		zap.Int("port", port),
		zap.String("overlay", fmt.Sprintf("http://localhost:%d/", port)),
		zap.Int("segments", session.Table().Count()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")

	cancel()
	<-driverDone
	webserver.Shutdown()

	logger.Info("Shutdown complete")
}
