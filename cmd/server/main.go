package main

import (
	"mailsearch/internal/agent"
	"mailsearch/internal/config"
	"mailsearch/internal/cosmos"
	"mailsearch/internal/openai"
	"mailsearch/internal/search"
	"mailsearch/internal/server"
	"mailsearch/internal/session"
	"mailsearch/internal/translator"

	"github.com/jmoiron/sqlx"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	// Initialize the OpenAI client (Azure primary, platform OpenAI fallback)
	aiClient, err := openai.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create OpenAI client")
	}

	// Connect to the email document store
	container, err := cosmos.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Cosmos DB")
	}

	engine := search.NewEngine(aiClient, container, logger)
	queryTranslator := translator.New(aiClient, logger)
	chatAgent := agent.New(queryTranslator, engine, logger)

	// Session storage: durable MySQL when configured, in-memory otherwise
	var store session.Store
	var sessionsDB *sqlx.DB
	if cfg.SessionsDatabaseURL != "" {
		sqlStore, err := session.NewSQLStore(cfg.SessionsDatabaseURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Sessions database connection failed, falling back to in-memory sessions")
			store = session.NewMemoryStore()
		} else {
			logger.Info().Msg("Sessions database connection established successfully")
			store = sqlStore
			sessionsDB = sqlStore.DB()
		}
	} else {
		logger.Info().Msg("No sessions database configured, using in-memory sessions")
		store = session.NewMemoryStore()
	}
	sessions := session.NewManager(store)

	// Create and initialize server
	srv := server.New(cfg, chatAgent, sessions, sessionsDB, logger)
	srv.Initialize()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
