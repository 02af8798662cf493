package main

import (
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"formpilot/internal/config"
	"formpilot/internal/engine"
	"formpilot/internal/handler"
	"formpilot/internal/middleware"
	serviceLLM "formpilot/internal/service/llm"
	"formpilot/internal/session"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" || cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if logFile, err := config.SetupLogFile("logs", 10); err == nil {
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	} else {
		slog.Warn("file logging disabled", "error", err)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModelName,
	)

	// Setup LLM provider
	provider, err := serviceLLM.NewProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to setup LLM provider: %v", err)
	}
	logger.Info("llm provider initialized", "provider", provider.Name())

	// Form-filling engine
	eng := engine.New(provider, logger)

	// In-memory session store with background expiry
	sessions := session.NewStore(time.Duration(cfg.SessionTTLMinutes)*time.Minute, logger)
	janitorStop := make(chan struct{})
	defer close(janitorStop)
	sessions.StartJanitor(5*time.Minute, janitorStop)

	// Handlers
	chatHandler := handler.NewChatHandler(eng, sessions, logger)
	schemaHandler := handler.NewSchemaHandler(cfg.FormsDir, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, chatHandler, schemaHandler)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Logging → Routes
	h = middleware.RequestLogging(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.LLMTimeoutSecs+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
