package cmd

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"releasegate/config"
	"releasegate/handlers"
	"releasegate/middleware"
	"releasegate/services"
	"releasegate/websocket"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand(cfg *config.Config, logger *log.Logger) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the validation web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				cfg.ServerPort = port
			}
			return StartWebServer(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.ServerPort, "Port for the web server")
	return cmd
}

// Server bundles the router with the background services it depends on
type Server struct {
	Router   *gin.Engine
	JobQueue services.JobQueue
	Hub      websocket.Hub
}

// NewServer wires services, handlers and routes. The job queue and hub run until ctx is done.
func NewServer(ctx context.Context, cfg *config.Config, runner services.ValidationRunner, logger *log.Logger) *Server {
	hub := websocket.NewHub(logger)
	go hub.Run()

	jobQueue := services.NewJobQueue(runner, hub, logger)
	jobQueue.Start(ctx)

	validationHandler := handlers.NewValidationHandler(jobQueue, hub, cfg.UploadDir, cfg.CORSOrigins, logger)
	healthHandler := handlers.NewHealthHandler(cfg)
	settingsHandler := handlers.NewSettingsHandler(cfg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	setupRoutes(r, validationHandler, healthHandler, settingsHandler)

	return &Server{Router: r, JobQueue: jobQueue, Hub: hub}
}

// StartWebServer serves the API until ctx is cancelled
func StartWebServer(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// progress bars have no terminal in server mode
	runner := NewValidator(cfg, logger, io.Discard)
	server := NewServer(ctx, cfg, runner, logger)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.ServerPort),
		Handler: server.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Releasegate web server starting on port %d", cfg.ServerPort)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Println("Shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, validationHandler *handlers.ValidationHandler, healthHandler *handlers.HealthHandler, settingsHandler *handlers.SettingsHandler) {
	r.GET("/health", healthHandler.HealthCheck)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		validationsGroup := apiGroup.Group("/validations")
		{
			validationsGroup.POST("", validationHandler.QueueValidation)
			validationsGroup.GET("", validationHandler.GetAllJobs)
			validationsGroup.GET("/:jobId", validationHandler.GetJob)
			validationsGroup.DELETE("/:jobId", validationHandler.CancelJob)
		}

		// WebSocket endpoints for real-time progress
		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/validations/:jobId", validationHandler.HandleWebSocketConnection)
			wsGroup.GET("/validations", validationHandler.HandleWebSocketAllConnection)
		}

		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.POST("/settings", settingsHandler.UpdateSettings)
	}
}
