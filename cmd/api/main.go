package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thinktank-backend/cmd"
	"thinktank-backend/internal/analytics"
	"thinktank-backend/internal/api"
	"thinktank-backend/internal/assistant"
	"thinktank-backend/internal/database"
	"thinktank-backend/internal/documents"
	"thinktank-backend/internal/messaging"
	"thinktank-backend/internal/references"
	"thinktank-backend/internal/session"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	DatabaseURL string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`

	cmd.StorageConfig

	AssistantBaseURL    string `env:"ASSISTANT_BASE_URL"`
	AssistantAPIKey     string `env:"ASSISTANT_API_KEY"`
	AssistantAPIVersion string `env:"ASSISTANT_API_VERSION" envDefault:"2024-05-01-preview"`
	AssistantModel      string `env:"ASSISTANT_MODEL" envDefault:"gpt-4o"`
	VectorStoreId       string `env:"VECTOR_STORE_ID"`

	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	CompletionModel string `env:"COMPLETION_MODEL" envDefault:"gpt-4o-mini"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	APIPort    string        `env:"API_PORT" envDefault:"8001"`
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	objectStore, err := cmd.NewObjectStore(cfg.StorageConfig)
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}

	resolver := references.NewResolver()

	store := session.NewStore(database.NewChatMirror(db), session.WithExpiry(cfg.SessionTTL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.StartSweeper(ctx, 5*time.Minute)

	// The assistant gateway is optional. Without an API key the chat endpoint
	// degrades to fallback replies instead of refusing to start.
	var gateway api.Sender
	client, err := assistant.NewClient(assistant.ClientConfig{
		BaseURL:       cfg.AssistantBaseURL,
		APIKey:        cfg.AssistantAPIKey,
		APIVersion:    cfg.AssistantAPIVersion,
		Model:         cfg.AssistantModel,
		VectorStoreId: cfg.VectorStoreId,
	})
	if errors.Is(err, assistant.ErrNotConfigured) {
		slog.Warn("ASSISTANT_API_KEY not set, chat will return fallback replies")
	} else if err != nil {
		log.Fatalf("Failed to create assistant client: %v", err)
	} else {
		gateway = assistant.NewGateway(client)
	}

	var completer api.Completer
	if c, err := assistant.NewCompleter(cfg.OpenAIAPIKey, cfg.CompletionModel); errors.Is(err, assistant.ErrNotConfigured) {
		slog.Warn("OPENAI_API_KEY not set, direct completions disabled")
	} else if err != nil {
		log.Fatalf("Failed to create completion client: %v", err)
	} else {
		completer = c
	}

	var engineOpts []analytics.EngineOption
	if cfg.OpenAIAPIKey != "" {
		engineOpts = append(engineOpts, analytics.WithSummarizer(analytics.NewOpenAISummarizer(cfg.OpenAIAPIKey, cfg.CompletionModel)))
	}
	engine := analytics.NewEngine(engineOpts...)

	var publisher messaging.Publisher
	if cfg.RabbitMQURL != "" {
		rabbit, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	} else {
		// No broker configured, process document tasks in this process.
		queue := messaging.NewInMemoryQueue()
		publisher = queue

		processor := documents.NewTaskProcessor(db, objectStore, queue, resolver)
		go processor.Start()
		defer processor.Stop()
	}

	// --- Chi Router Setup ---
	r := chi.NewRouter()

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // TODO: make this an env var
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300, // Cache preflight response for 5 minutes
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)                    // Log requests
	r.Use(middleware.Recoverer)                 // Recover from panics
	r.Use(middleware.Timeout(60 * time.Second)) // Set request timeout

	// API Handlers (dependency injection)
	assistantHandler := api.NewAssistantService(store, gateway, completer, resolver)
	chatsHandler := api.NewChatsService(db)
	documentsHandler := api.NewDocumentsService(db, objectStore, publisher)
	analyticsHandler := api.NewAnalyticsService(engine)
	configsHandler := api.NewConfigsService(db)

	r.Route("/api/v1", func(r chi.Router) {
		assistantHandler.AddRoutes(r)
		chatsHandler.AddRoutes(r)
		documentsHandler.AddRoutes(r)
		analyticsHandler.AddRoutes(r)
		configsHandler.AddRoutes(r)
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
