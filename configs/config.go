// config.go - Configuration loaded from environment variables

package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	// Server Configuration
	PORT            string
	UPLOAD_DIR      string
	ALLOWED_ORIGINS string
	MAX_UPLOAD_MB   int

	// OCR Provider Configuration
	OCR_PROVIDER       string // "gemini" or "mistral"
	GEMINI_API_KEY     string
	OCR_MODEL_NAME     string
	MISTRAL_API_KEY    string
	MISTRAL_MODEL_NAME string
	MISTRAL_BASE_URL   string

	// OCR Pricing Configuration (per 1M tokens in USD)
	OCR_INPUT_PRICE_PER_MILLION  float64
	OCR_OUTPUT_PRICE_PER_MILLION float64
	USD_TO_THB                   float64

	// OCR call limits
	OCR_TIMEOUT           int // seconds per OCR call
	OCR_RATE_LIMIT_TOKENS int // burst size of the OCR rate limiter
	OCR_RATE_LIMIT_REFILL int // seconds between token refills

	// Image settings
	ENABLE_IMAGE_RESIZE bool
	MAX_IMAGE_DIMENSION int

	// MongoDB Configuration (empty URI keeps records in memory)
	MONGO_URI        string
	MONGO_DB_NAME    string
	MONGO_COLLECTION string
)

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	PORT = getEnv("PORT", "8080")
	UPLOAD_DIR = getEnv("UPLOAD_DIR", "uploads")
	ALLOWED_ORIGINS = getEnv("ALLOWED_ORIGINS", "*")
	MAX_UPLOAD_MB = getEnvInt("MAX_UPLOAD_MB", 10)

	OCR_PROVIDER = getEnv("OCR_PROVIDER", "gemini")
	GEMINI_API_KEY = getEnv("GEMINI_API_KEY", "")
	OCR_MODEL_NAME = getEnv("OCR_MODEL_NAME", "gemini-2.5-flash")
	MISTRAL_API_KEY = getEnv("MISTRAL_API_KEY", "")
	MISTRAL_MODEL_NAME = getEnv("MISTRAL_MODEL_NAME", "mistral-ocr-latest")
	MISTRAL_BASE_URL = getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai/v1")

	// Gemini 2.5 Flash pricing by default
	OCR_INPUT_PRICE_PER_MILLION = getEnvFloat("OCR_INPUT_PRICE_PER_MILLION", 0.30)
	OCR_OUTPUT_PRICE_PER_MILLION = getEnvFloat("OCR_OUTPUT_PRICE_PER_MILLION", 2.50)
	USD_TO_THB = getEnvFloat("USD_TO_THB", 36.0)

	OCR_TIMEOUT = getEnvInt("OCR_TIMEOUT", 45)
	OCR_RATE_LIMIT_TOKENS = getEnvInt("OCR_RATE_LIMIT_TOKENS", 12)
	OCR_RATE_LIMIT_REFILL = getEnvInt("OCR_RATE_LIMIT_REFILL", 5)

	ENABLE_IMAGE_RESIZE = getEnvBool("ENABLE_IMAGE_RESIZE", true)
	MAX_IMAGE_DIMENSION = getEnvInt("MAX_IMAGE_DIMENSION", 2000)

	MONGO_URI = getEnv("MONGO_URI", "")
	MONGO_DB_NAME = getEnv("MONGO_DB_NAME", "document_extractor")
	MONGO_COLLECTION = getEnv("MONGO_COLLECTION", "extraction_records")

	log.Println("✓ Configuration loaded successfully")
}

// Validate checks that the selected OCR provider can be constructed.
func Validate() error {
	switch OCR_PROVIDER {
	case "gemini":
		if GEMINI_API_KEY == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required for OCR_PROVIDER=gemini")
		}
	case "mistral":
		if MISTRAL_API_KEY == "" {
			return fmt.Errorf("MISTRAL_API_KEY environment variable is required for OCR_PROVIDER=mistral")
		}
	default:
		return fmt.Errorf("unsupported OCR_PROVIDER %q (supported: gemini, mistral)", OCR_PROVIDER)
	}
	if OCR_RATE_LIMIT_TOKENS <= 0 || OCR_RATE_LIMIT_REFILL <= 0 {
		return fmt.Errorf("OCR rate limit settings must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
