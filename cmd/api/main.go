// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arunshreyas/Marketa-server/internal/ai"
	"github.com/arunshreyas/Marketa-server/internal/broadcast"
	"github.com/arunshreyas/Marketa-server/internal/config"
	"github.com/arunshreyas/Marketa-server/internal/handler"
	"github.com/arunshreyas/Marketa-server/internal/middleware"
	natsclient "github.com/arunshreyas/Marketa-server/internal/nats"
	"github.com/arunshreyas/Marketa-server/internal/service"
	"github.com/arunshreyas/Marketa-server/internal/store"
	"github.com/arunshreyas/Marketa-server/pkg/logger"
	"github.com/arunshreyas/Marketa-server/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "marketa-server", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Select the store. Postgres when a DSN is configured, in-memory
	// otherwise.
	var st store.Store
	if cfg.DatabaseDSN != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseDSN)
		if err != nil {
			log.Error("failed to connect to database", zap.Error(err))
			os.Exit(1)
		}
		st = pg
		log.Info("using postgres store")
	} else {
		st = store.NewMemoryStore()
		log.Info("using in-memory store")
	}
	defer st.Close()

	// Connect to NATS when configured. The archive is best effort, so a
	// missing broker only disables message mirroring.
	var natsConn *natsclient.Client
	var archiver service.Archiver
	if cfg.NATSURL != "" {
		natsConn, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsConn.Close()

		archive := natsclient.NewArchive(natsConn)
		if err := archive.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure archive stream", zap.Error(err))
			os.Exit(1)
		}
		archiver = archive
	}

	// Initialize the AI client. Missing credentials leave the assistant
	// answering with the unavailability fallback rather than failing boot.
	var aiClient ai.Client
	aiClient, err = ai.NewClient(ai.Provider(cfg.AIProvider), ai.Config{
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
		OpenRouterModel:  cfg.OpenRouterModel,
		AnthropicAPIKey:  cfg.AnthropicAPIKey,
		AnthropicModel:   cfg.AnthropicModel,
		WebhookURL:       cfg.AIWebhookURL,
	})
	if err != nil {
		log.Warn("AI client unavailable, assistant replies disabled", zap.Error(err))
		aiClient = nil
	}

	// Broadcast hub for live message streams
	hub := broadcast.NewHub(cfg.StreamMaxSubscribers, log)

	// Initialize services
	brandSvc := service.NewBrandService(st, log)
	campaignSvc := service.NewCampaignService(st, log)
	conversationSvc := service.NewConversationService(st, log)
	messageSvc := service.NewMessageService(st, hub, aiClient, archiver, cfg.AITimeout, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(st, natsConn)
	brandHandler := handler.NewBrandHandler(brandSvc, log)
	campaignHandler := handler.NewCampaignHandler(campaignSvc, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(messageSvc, log)
	streamHandler := handler.NewStreamHandler(hub, conversationSvc, cfg.StreamHeartbeatInterval, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Brands
		r.Route("/brands", func(r chi.Router) {
			r.Post("/", brandHandler.Create)
			r.Get("/user/{userID}", brandHandler.GetByUser)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", brandHandler.Get)
				r.Put("/", brandHandler.Update)
				r.Delete("/", brandHandler.Delete)
			})
		})

		// Campaigns
		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", campaignHandler.Create)
			r.Get("/user/{userID}", campaignHandler.ListByUser)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", campaignHandler.Get)
				r.Put("/", campaignHandler.Update)
				r.Delete("/", campaignHandler.Delete)
			})
		})

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/user/{userID}", conversationHandler.ListByUser)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Put("/", conversationHandler.Update)
				r.Delete("/", conversationHandler.Delete)
			})
		})

		// Messages
		r.Route("/messages", func(r chi.Router) {
			r.Post("/", messageHandler.Send)
			r.Get("/conversation/{conversationID}", messageHandler.ListByConversation)
			r.Get("/stream/{channelID}", streamHandler.Stream)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", messageHandler.Get)
				r.Delete("/", messageHandler.Delete)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
