package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Model and prompt settings are fixed in source, mirroring the deployment
// this service was built for. Only credentials and paths come from the
// environment.
const (
	ChatModelName      = "gemini-2.0-flash"
	EmbeddingModelName = "text-embedding-004"
)

type Config struct {
	GeminiAPIKey string
	DatabaseURL  string
	HTTPPort     string
	LogLevel     string
	PapersDir    string
	LogsDir      string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	apiKey := getEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("GOOGLE_API_KEY", "")
	}

	AppConfig = Config{
		GeminiAPIKey: apiKey,
		DatabaseURL:  getEnv("DATABASE_URL", "paperchat.db"),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
		PapersDir:    getEnv("PAPERS_DIR", "my_papers"),
		LogsDir:      getEnv("LOGS_DIR", "logs"),
	}

	// A missing credential is not fatal: the chat endpoint reports it
	// per request so the rest of the API (logs, health) stays usable.
	if AppConfig.GeminiAPIKey == "" {
		log.Println("Warning: GEMINI_API_KEY / GOOGLE_API_KEY is not set; /api/chat will be disabled")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
