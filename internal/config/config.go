package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port                           string
	Version                        string
	LogLevel                       string
	AzureOpenAIEndpoint            string // Azure OpenAI endpoint (primary provider)
	AzureOpenAIKey                 string
	AzureOpenAIGPTDeployment       string // Chat deployment name
	AzureOpenAIEmbeddingDeployment string // Embedding deployment name
	OpenAIKey                      string // Platform OpenAI key (fallback provider)
	OpenAITimeout                  int    // OpenAI API timeout in seconds
	CosmosURI                      string // Cosmos DB account endpoint
	CosmosDatabase                 string
	CosmosContainer                string
	SessionsDatabaseURL            string // Optional MySQL/MariaDB DSN for durable session storage
	EmailImportPath                string // Directory scanned by the ingestion pipeline
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:                           getEnv("PORT", "8080"),
		Version:                        getEnv("VERSION", "1.0.0"),
		LogLevel:                       getEnv("LOG_LEVEL", "info"),
		AzureOpenAIEndpoint:            os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIKey:                 os.Getenv("AZURE_OPENAI_KEY"),
		AzureOpenAIGPTDeployment:       getEnv("AZURE_OPENAI_GPT_DEPLOYMENT", "gpt-4o-mini"),
		AzureOpenAIEmbeddingDeployment: getEnv("AZURE_OPENAI_EMBEDDING_DEPLOYMENT", "text-embedding-3-small"),
		OpenAIKey:                      os.Getenv("OPENAI_API_KEY"),
		OpenAITimeout:                  getEnvInt("OPENAI_TIMEOUT", 60), // Default 60 seconds
		CosmosURI:                      os.Getenv("COSMOS_URI"),
		CosmosDatabase:                 getEnv("COSMOS_DB_NAME", "vectordb"),
		CosmosContainer:                getEnv("COSMOS_CONTAINER_NAME", "emails_hybridsearch"),
		SessionsDatabaseURL:            os.Getenv("SESSIONS_DATABASE_URL"),
		EmailImportPath:                getEnv("EMAIL_IMPORT_PATH", "/emails"),
	}

	return config
}

// UseAzureOpenAI returns true when the Azure OpenAI provider is configured
func (c *Config) UseAzureOpenAI() bool {
	return c.AzureOpenAIEndpoint != "" && c.AzureOpenAIKey != ""
}

// HasOpenAIFallback returns true when a platform OpenAI key is available
func (c *Config) HasOpenAIFallback() bool {
	return c.OpenAIKey != ""
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	// Configure zerolog to output JSON without newlines
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Create logger with JSON output to stdout
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "mailsearch").
		Str("version", c.Version).
		Logger()

	// Set log level based on configuration
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
