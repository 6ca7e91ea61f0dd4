package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/llmgate/prompt-optimizer/internal/config"
	"github.com/llmgate/prompt-optimizer/internal/handlers"
	"github.com/llmgate/prompt-optimizer/internal/middleware"
)

// MetricsExporter records metrics and serves them.
type MetricsExporter interface {
	handlers.MetricsRecorder
	Handler() http.Handler
}

type Dependencies struct {
	Config            *config.Config
	CompletionsClient handlers.CompletionsClient
	Metrics           MetricsExporter
	Logger            *logrus.Logger
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	// preflights end in cors and never reach the access log or metrics
	router.Use(middleware.EchoRequestedHeaders())
	router.Use(cors.New(corsConfig(deps.Config.Server.AllowedOrigins)))
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Metrics(deps.Metrics))

	// Metrics handler
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	// Health Handler
	healthHandler := handlers.NewHealthHandler(deps.Config.LLM)
	router.GET("/health", healthHandler.IsHealthy)
	// Optimize Handler
	optimizeHandler := handlers.NewOptimizeHandler(deps.CompletionsClient, deps.Metrics, deps.Config.LLM, deps.Config.Handlers.OptimizeHandler)
	router.POST("/optimize", optimizeHandler.OptimizePrompt)

	return router
}

// corsConfig reflects any origin unless allowedOrigins narrows it. A literal
// "*" cannot be combined with credentials, so the origin is echoed instead.
// Requested headers are granted by middleware.EchoRequestedHeaders.
func corsConfig(allowedOrigins []string) cors.Config {
	corsConfig := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsConfig
}
