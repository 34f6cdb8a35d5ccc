package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DiscordConfig struct {
	BotToken string
}

// IsConfigured returns true if all required Discord configuration is present
func (c DiscordConfig) IsConfigured() bool {
	return c.BotToken != ""
}

type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// IsConfigured returns true if all required Anthropic configuration is present
func (c AnthropicConfig) IsConfigured() bool {
	return c.APIKey != ""
}

type SlackConfig struct {
	OpsWebhookURL   string
	AlertWebhookURL string
}

// IsConfigured returns true if any Slack webhook is present. Both are
// optional; without them notifications and alerts are disabled.
func (c SlackConfig) IsConfigured() bool {
	return c.OpsWebhookURL != "" || c.AlertWebhookURL != ""
}

type BotConfig struct {
	SystemPrompt           string
	GlobalReviewChannelID  string
	RandomReplyProbability float64
	ReviewTTL              time.Duration
	MaxReplyLength         int
	FallbackText           string
	ReplyTrackerTTL        time.Duration
	ReplyTrackerMaxEntries int
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL        string
	DatabaseSchema     string
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	ServerLogsURL      string
	AdminAPIKey        string
	UseStrictConfig    bool // If true, error when any integration is not fully configured

	// Integration configurations (grouped)
	DiscordConfig   DiscordConfig
	AnthropicConfig AnthropicConfig
	SlackConfig     SlackConfig
	BotConfig       BotConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	// Core required configuration
	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		// Core configuration
		DatabaseURL:        databaseURL,
		DatabaseSchema:     databaseSchema,
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		ServerLogsURL:      getEnvWithDefault("SERVER_LOGS_URL", ""),
		AdminAPIKey:        os.Getenv("ADMIN_API_KEY"),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",

		DiscordConfig: DiscordConfig{
			BotToken: os.Getenv("DISCORD_BOT_TOKEN"),
		},

		AnthropicConfig: AnthropicConfig{
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			Model:     getEnvWithDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			MaxTokens: getEnvIntWithDefault("ANTHROPIC_MAX_TOKENS", 1024),
		},

		// Slack configuration (optional)
		SlackConfig: SlackConfig{
			OpsWebhookURL:   os.Getenv("SLACK_OPS_WEBHOOK_URL"),
			AlertWebhookURL: os.Getenv("SLACK_ALERT_WEBHOOK_URL"),
		},

		BotConfig: BotConfig{
			SystemPrompt:           getEnvWithDefault("BOT_SYSTEM_PROMPT", "You are a helpful, concise chat bot."),
			GlobalReviewChannelID:  os.Getenv("GLOBAL_REVIEW_CHANNEL_ID"),
			RandomReplyProbability: getEnvFloatWithDefault("REPLY_RANDOM_PROBABILITY", 0.02),
			ReviewTTL:              time.Duration(getEnvIntWithDefault("REVIEW_TTL_SECONDS", 60)) * time.Second,
			MaxReplyLength:         getEnvIntWithDefault("MAX_REPLY_LENGTH", 2000),
			FallbackText:           getEnvWithDefault("REPLY_FALLBACK_TEXT", "sorry, I had trouble putting a reply together just now"),
			ReplyTrackerTTL:        time.Duration(getEnvIntWithDefault("REPLY_TRACKER_TTL_SECONDS", 21600)) * time.Second,
			ReplyTrackerMaxEntries: getEnvIntWithDefault("REPLY_TRACKER_MAX_ENTRIES", 5000),
		},
	}

	if config.BotConfig.RandomReplyProbability < 0 || config.BotConfig.RandomReplyProbability > 1 {
		return nil, fmt.Errorf("REPLY_RANDOM_PROBABILITY must be between 0 and 1")
	}

	// Log which integrations are configured
	if config.DiscordConfig.IsConfigured() {
		log.Printf("✅ Discord integration configured")
	} else {
		log.Printf("⚠️ Discord integration not configured - the bot cannot connect")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("discord integration is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.AnthropicConfig.IsConfigured() {
		log.Printf("✅ Anthropic integration configured")
	} else {
		log.Printf("⚠️ Anthropic integration not configured - reply generation will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("anthropic integration is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.SlackConfig.IsConfigured() {
		log.Printf("✅ Slack webhooks configured")
	} else {
		log.Printf("⚠️ Slack webhooks not configured - ops notifications and alerts will be disabled")
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("⚠️ Invalid integer for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Printf("⚠️ Invalid float for %s, using default %g", key, defaultValue)
	}
	return defaultValue
}
