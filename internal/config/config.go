package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Sanity CMS
	SanityProjectID  string
	SanityDataset    string
	SanityAPIToken   string
	SanityAPIVersion string
	// SanityAPIHost overrides https://<project>.api.sanity.io, mainly for tests and proxies.
	SanityAPIHost string

	// Notifications
	DiscordWebhookURL string
	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTableName string
	AirtableAPIURL    string
	NotifyTimeout     time.Duration

	// Intake
	ScreenshotMaxBytes int64
	HTTPTimeout        time.Duration

	// Consent
	DatabaseURL          string
	VisitorSigningSecret string

	// Supabase storage, used by the seed pipeline as a screenshot source
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseSeedBucket string

	// Server
	// BaseURL is the public URL; its host is advertised in the API docs.
	BaseURL     string
	Port        string
	Environment string
	LogLevel    string
}

var defaults = map[string]any{
	"SANITY_DATASET":       "production",
	"SANITY_API_VERSION":   "v2021-10-21",
	"AIRTABLE_TABLE_NAME":  "Submissions",
	"AIRTABLE_API_URL":     "https://api.airtable.com/v0",
	"NOTIFY_TIMEOUT":       "10s",
	"SCREENSHOT_MAX_BYTES": 5 << 20,
	"HTTP_TIMEOUT":         "30s",
	"SUPABASE_SEED_BUCKET": "demo-screenshots",
	"PORT":                 "8080",
	"ENVIRONMENT":          "development",
	"LOG_LEVEL":            "info",
}

// Load reads configuration from the environment, falling back to an optional
// config.yaml in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		SanityProjectID:  v.GetString("SANITY_PROJECT_ID"),
		SanityDataset:    v.GetString("SANITY_DATASET"),
		SanityAPIToken:   v.GetString("SANITY_API_TOKEN"),
		SanityAPIVersion: v.GetString("SANITY_API_VERSION"),
		SanityAPIHost:    v.GetString("SANITY_API_HOST"),

		DiscordWebhookURL: v.GetString("DISCORD_WEBHOOK_URL"),
		AirtableAPIKey:    v.GetString("AIRTABLE_API_KEY"),
		AirtableBaseID:    v.GetString("AIRTABLE_BASE_ID"),
		AirtableTableName: v.GetString("AIRTABLE_TABLE_NAME"),
		AirtableAPIURL:    v.GetString("AIRTABLE_API_URL"),
		NotifyTimeout:     v.GetDuration("NOTIFY_TIMEOUT"),

		ScreenshotMaxBytes: v.GetInt64("SCREENSHOT_MAX_BYTES"),
		HTTPTimeout:        v.GetDuration("HTTP_TIMEOUT"),

		DatabaseURL:          v.GetString("DATABASE_URL"),
		VisitorSigningSecret: v.GetString("VISITOR_SIGNING_SECRET"),

		SupabaseURL:        v.GetString("SUPABASE_URL"),
		SupabaseServiceKey: v.GetString("SUPABASE_SERVICE_KEY"),
		SupabaseSeedBucket: v.GetString("SUPABASE_SEED_BUCKET"),

		BaseURL:     v.GetString("BASE_URL"),
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
	}
}

// Validate rejects malformed values only. Missing Sanity credentials are not a
// startup error: the intake endpoint fails closed per request instead.
func (c *Config) Validate() error {
	if c.ScreenshotMaxBytes <= 0 {
		return fmt.Errorf("SCREENSHOT_MAX_BYTES must be positive")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.SanityDataset == "" {
		return fmt.Errorf("SANITY_DATASET must not be empty")
	}
	return nil
}

// SanityConfigured reports whether the CMS write credentials are present.
func (c *Config) SanityConfigured() bool {
	return c.SanityProjectID != "" && c.SanityAPIToken != ""
}

func (c *Config) DiscordConfigured() bool {
	return c.DiscordWebhookURL != ""
}

func (c *Config) AirtableConfigured() bool {
	return c.AirtableAPIKey != "" && c.AirtableBaseID != ""
}

func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
