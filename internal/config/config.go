package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/how-als/how-als/internal/llm"
	"github.com/joho/godotenv"
)

const (
	AppName     = "how-als"
	EnvFileName = "config.env"
)

// Model transports selectable with GEMINI_TRANSPORT.
const (
	TransportStream = llm.TransportStream
	TransportSDK    = llm.TransportSDK
	TransportREST   = llm.TransportREST
)

type Config struct {
	Host string
	Port string

	GeminiAPIKey        string
	GeminiModel         string
	GeminiTransport     string
	GeminiThinkingLevel string
	GeminiGoogleSearch  bool
	GeminiBaseURL       string

	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	JournalPath      string
	TelegramBotToken string

	LogLevel  string
	LogFormat string
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

// GeneratorOptions returns the model client settings.
func (c *Config) GeneratorOptions() llm.Options {
	return llm.Options{
		Transport:     c.GeminiTransport,
		APIKey:        c.GeminiAPIKey,
		Model:         c.GeminiModel,
		BaseURL:       c.GeminiBaseURL,
		ThinkingLevel: c.GeminiThinkingLevel,
		GoogleSearch:  c.GeminiGoogleSearch,
	}
}

// LoadEnvFile loads variables from .env in the working directory and from the
// config file in the user's config directory. Variables already set in the
// environment win. Missing files are ignored.
func LoadEnvFile() {
	_ = godotenv.Load(".env")

	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	_ = godotenv.Load(filepath.Join(configBase, AppName, EnvFileName))
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "3000"),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:         getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiTransport:     strings.ToLower(getEnvOrDefault("GEMINI_TRANSPORT", TransportStream)),
		GeminiThinkingLevel: getEnvOrDefault("GEMINI_THINKING_LEVEL", "HIGH"),
		GeminiGoogleSearch:  parseBoolOrDefault("GEMINI_GOOGLE_SEARCH", true),
		GeminiBaseURL:       os.Getenv("GEMINI_BASE_URL"),
		AnalysisTimeout:     parseDurationOrDefault("ANALYSIS_TIMEOUT", 60*time.Second),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024),
		JournalPath:         os.Getenv("JOURNAL_PATH"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogLevel:            strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:           strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console")),
	}

	// "none" turns the thinking knob off without unsetting the default.
	if strings.EqualFold(cfg.GeminiThinkingLevel, "none") {
		cfg.GeminiThinkingLevel = ""
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	switch cfg.GeminiTransport {
	case TransportStream, TransportSDK, TransportREST:
	default:
		return nil, fmt.Errorf("invalid GEMINI_TRANSPORT: %q (want stream, sdk or rest)", cfg.GeminiTransport)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT: %q (want console or json)", cfg.LogFormat)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
