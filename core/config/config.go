package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel        OTelConfig
	Slack       SlackConfig
	AzureOpenAI AzureOpenAIConfig
	AzureSearch AzureSearchConfig
	Pipeline    PipelineConfig
	Bot         BotConfig
	Env         string
	Port        string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type SlackConfig struct {
	BotToken      string // xoxb-..., Web API calls
	AppToken      string // xapp-..., Socket Mode; empty disables it
	SigningSecret string // verifies Events API requests
}

type AzureOpenAIConfig struct {
	Endpoint   string
	Deployment string
	APIKey     string
	APIVersion string
	MaxTokens  int
}

type AzureSearchConfig struct {
	Endpoint              string
	Key                   string
	Index                 string
	SemanticConfiguration string
	InScope               bool
	TopNDocuments         int
	Strictness            int
}

type PipelineConfig struct {
	RedisURL       string
	RedisStream    string
	RedisGroup     string
	RedisDLQStream string
	RedisConsumer  string
	DedupeTTL      time.Duration
}

type BotConfig struct {
	SystemPrompt string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the ingest server
//   - .env.worker for the conversation worker
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("SLACKBRIDGE_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:  getEnv("SLACKBRIDGE_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "slackbridge-"+string(serviceType)),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Slack: SlackConfig{
			BotToken:      getEnv("SLACK_BOT_TOKEN", ""),
			AppToken:      getEnv("SLACK_APP_TOKEN", ""),
			SigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		},
		AzureOpenAI: AzureOpenAIConfig{
			Endpoint:   getEnv("AZURE_AI_ENDPOINT", ""),
			Deployment: getEnv("AZURE_AI_DEPLOYMENT", ""),
			APIKey:     getEnv("AZURE_AI_API_KEY", ""),
			APIVersion: getEnv("AZURE_AI_API_VERSION", "2024-05-01-preview"),
			MaxTokens:  getEnvInt("AZURE_AI_MAX_TOKENS", 800),
		},
		AzureSearch: AzureSearchConfig{
			Endpoint:              getEnv("AZURE_AI_SEARCH_ENDPOINT", ""),
			Key:                   getEnv("AZURE_AI_SEARCH_KEY", ""),
			Index:                 getEnv("AZURE_AI_SEARCH_INDEX", ""),
			SemanticConfiguration: getEnv("AZURE_AI_SEARCH_SEMANTIC_CONFIGURATION", ""),
			InScope:               getEnvBool("AZURE_AI_SEARCH_IN_SCOPE", false),
			TopNDocuments:         getEnvInt("AZURE_AI_SEARCH_TOP_N_DOCUMENTS", 3),
			Strictness:            getEnvInt("AZURE_AI_SEARCH_STRICTNESS", 3),
		},
		Pipeline: PipelineConfig{
			RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisStream:    getEnv("REDIS_STREAM", "slackbridge_events"),
			RedisGroup:     getEnv("REDIS_CONSUMER_GROUP", "slackbridge_group"),
			RedisDLQStream: getEnv("REDIS_DLQ_STREAM", "slackbridge_events_dlq"),
			RedisConsumer:  getEnv("REDIS_CONSUMER_NAME", "worker-1"),
			DedupeTTL:      getEnvDuration("EVENT_DEDUPE_TTL", time.Hour),
		},
		Bot: BotConfig{
			SystemPrompt: getEnv("BOT_SYSTEM_PROMPT", ""),
		},
	}

	if err := cfg.validate(serviceType); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate(serviceType ServiceType) error {
	if c.Slack.BotToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}

	switch serviceType {
	case ServiceTypeServer:
		if c.Slack.SigningSecret == "" && c.Slack.AppToken == "" {
			return fmt.Errorf("SLACK_SIGNING_SECRET or SLACK_APP_TOKEN is required")
		}
	case ServiceTypeWorker:
		if !c.AzureOpenAI.Enabled() {
			return fmt.Errorf("AZURE_AI_ENDPOINT, AZURE_AI_DEPLOYMENT and AZURE_AI_API_KEY are required")
		}
		if !c.AzureSearch.Enabled() {
			return fmt.Errorf("AZURE_AI_SEARCH_ENDPOINT and AZURE_AI_SEARCH_INDEX are required")
		}
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c SlackConfig) SocketModeEnabled() bool {
	return c.AppToken != ""
}

func (c SlackConfig) EventsAPIEnabled() bool {
	return c.SigningSecret != ""
}

func (c AzureOpenAIConfig) Enabled() bool {
	return c.Endpoint != "" && c.Deployment != "" && c.APIKey != ""
}

func (c AzureSearchConfig) Enabled() bool {
	return c.Endpoint != "" && c.Index != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
