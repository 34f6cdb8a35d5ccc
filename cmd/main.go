package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	anthropicclient "replygate/clients/anthropic"
	discordclient "replygate/clients/discord"
	"replygate/config"
	"replygate/db"
	"replygate/handlers"
	"replygate/middleware"
	"replygate/opsnotif"
	"replygate/services/delivery"
	"replygate/services/guildsettings"
	"replygate/services/mentionguard"
	"replygate/services/replytracker"
	"replygate/services/reviews"
	"replygate/services/sanitizer"
	"replygate/services/trigger"
	"replygate/services/txmanager"
	"replygate/services/usagecost"
	"replygate/usecases/reply"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize error alert middleware and ops notifications
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  cfg.SlackConfig.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "replygate",
		LogsURL:     cfg.ServerLogsURL,
	})
	opsnotif.Init(cfg.SlackConfig.OpsWebhookURL, cfg.Environment)

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	guildSettingsRepo := db.NewPostgresGuildSettingsRepository(dbConn, cfg.DatabaseSchema)
	usageCostsRepo := db.NewPostgresUsageCostsRepository(dbConn, cfg.DatabaseSchema)

	// Initialize transaction manager
	txManager := txmanager.NewTransactionManager(dbConn)

	// Shared Discord session for the chat client and the event handlers
	session, err := discordgo.New("Bot " + cfg.DiscordConfig.BotToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	chatClient := discordclient.NewDiscordChatClient(session)
	completionClient := anthropicclient.NewAnthropicCompletionClient(
		cfg.AnthropicConfig.APIKey,
		cfg.AnthropicConfig.Model,
		cfg.AnthropicConfig.MaxTokens,
	)

	// Core services
	replyTracker := replytracker.NewReplyTracker(cfg.BotConfig.ReplyTrackerTTL, cfg.BotConfig.ReplyTrackerMaxEntries)
	mentionGuard := mentionguard.NewMentionGuard()
	outputSanitizer := sanitizer.NewOutputSanitizer(cfg.BotConfig.MaxReplyLength)
	triggerDetector := trigger.NewTriggerDetector(replyTracker, chatClient, mentionGuard)
	reviewWorkflow := reviews.NewReviewWorkflow(chatClient, cfg.BotConfig.ReviewTTL)
	defer reviewWorkflow.Dispose()
	deliverySender := delivery.NewGuaranteedDeliverySender()
	guildSettingsService := guildsettings.NewGuildSettingsService(guildSettingsRepo, guildsettings.Defaults{
		RandomReplyProbability: cfg.BotConfig.RandomReplyProbability,
		GlobalReviewChannelID:  cfg.BotConfig.GlobalReviewChannelID,
		MaxReplyLength:         cfg.BotConfig.MaxReplyLength,
	})
	usageCostService := usagecost.NewUsageCostService(txManager, usageCostsRepo, guildSettingsRepo)

	replyUseCase := reply.NewReplyUseCase(
		chatClient,
		completionClient,
		guildSettingsService,
		triggerDetector,
		outputSanitizer,
		mentionGuard,
		replyTracker,
		reviewWorkflow,
		deliverySender,
		usageCostService,
		cfg.BotConfig.SystemPrompt,
		cfg.BotConfig.FallbackText,
		cfg.AnthropicConfig.MaxTokens,
	)

	discordHandler := handlers.NewDiscordEventsHandler(session, replyUseCase, alertMiddleware)
	if err := discordHandler.StartBot(); err != nil {
		return err
	}
	defer discordHandler.StopBot()

	// Periodic reply-tracker prune so the registry stays bounded
	pruneTicker := time.NewTicker(1 * time.Minute)
	go func() {
		for range pruneTicker.C {
			_ = alertMiddleware.WrapBackgroundTask("PruneReplyTracker", func() error {
				replyTracker.Prune()
				return nil
			})()
		}
	}()
	defer pruneTicker.Stop()

	// Admin API
	adminHandler := handlers.NewAdminHandler(
		cfg.AdminAPIKey,
		reviewWorkflow,
		guildSettingsService,
		usageCostService,
		replyTracker,
	)

	router := mux.NewRouter()
	adminHandler.RegisterRoutes(router)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Admin-Key"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func handleGracefulShutdown(server *http.Server) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
