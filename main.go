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

	"github.com/sirupsen/logrus"

	googlemonitoring "github.com/llmgate/prompt-optimizer/googleMonitoring"
	"github.com/llmgate/prompt-optimizer/internal/config"
	"github.com/llmgate/prompt-optimizer/internal/logging"
	"github.com/llmgate/prompt-optimizer/internal/server"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "default"
	}

	log := logging.GetLogger()

	// Local .env for development
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	// Initialize configuration, fails without the provider credential
	config, err := config.LoadConfig(env)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.InitLogger(config.Logging.Level, config.Logging.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	log = logging.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Completion provider
	completionsClient, err := server.NewCompletionsClient(config.LLM)
	if err != nil {
		log.Fatalf("Failed to create completions client: %v", err)
	}

	// Google Monitoring Client
	googleMonitoringClient, err := googlemonitoring.NewMonitoringClient(ctx, config.GoogleService.ProjectId, config.GoogleService.JsonKey)
	if err != nil {
		log.Fatalf("Failed to create monitoring client: %v", err)
	}
	defer googleMonitoringClient.Close()

	if googleMonitoringClient.PushEnabled() {
		go func() {
			ticker := time.NewTicker(time.Duration(config.GoogleService.PushIntervalSeconds) * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := googleMonitoringClient.PushMetrics(ctx); err != nil {
						log.WithError(err).Warn("failed to push metrics")
					}
				}
			}
		}()
	}

	server.SetGinMode()
	router := server.NewRouter(server.Dependencies{
		Config:            config,
		CompletionsClient: completionsClient,
		Metrics:           googleMonitoringClient,
		Logger:            log,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Server.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":     srv.Addr,
		"provider": config.LLM.Provider,
		"model":    config.LLM.Model,
	}).Info("starting prompt optimizer")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
