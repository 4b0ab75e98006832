package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Generation backend identifiers selectable via AI_BACKEND.
const (
	BackendLocal  = "local"
	BackendGemini = "gemini"
)

type Config struct {
	HTTPPort     string `validate:"required"`
	DatabaseURL  string `validate:"required"`
	JWTSecret    string `validate:"required"`
	Debug        bool
	AllowedHosts []string
	MediaDir     string `validate:"required"`

	AIBackend      string `validate:"required,oneof=local gemini"`
	GeminiAPIKey   string `validate:"required_if=AIBackend gemini"`
	LocalAIBaseURL string `validate:"required_if=AIBackend local"`
	AIModel        string `validate:"required"`
	AIMaxTokens    int    `validate:"gt=0"`
	AITemperature  float32
	AITimeout      time.Duration
}

func Load() (*Config, error) {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		DatabaseURL:  getEnv("DATABASE_URL", "wanasa.db"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		Debug:        getEnvAsBool("DEBUG", false),
		AllowedHosts: splitHosts(getEnv("ALLOWED_HOSTS", "")),
		MediaDir:     getEnv("MEDIA_DIR", "media"),

		AIBackend:      getEnv("AI_BACKEND", BackendLocal),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		LocalAIBaseURL: getEnv("LOCAL_AI_BASE_URL", "http://localhost:8000/v1"),
		AIModel:        getEnv("AI_MODEL", ""),
		AIMaxTokens:    getEnvAsInt("AI_MAX_TOKENS", 256),
		AITemperature:  getEnvAsFloat32("AI_TEMPERATURE", 0.7),
		AITimeout:      getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
	}

	if cfg.AIModel == "" {
		switch cfg.AIBackend {
		case BackendGemini:
			cfg.AIModel = "gemini-1.5-flash-latest"
		default:
			cfg.AIModel = "deepseek-ai/DeepSeek-R1-Distill-Qwen-1.5B"
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// splitHosts parses a comma-separated host list. An empty list means no
// host filtering is applied.
func splitHosts(raw string) []string {
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
