package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported AI providers.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderHeuristic = "heuristic"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseDriver     string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	EventsChannel      string
	JWTSecret          string
	AIProvider         string
	AIModel            string
	AITimeout          time.Duration
	OpenAIAPIKey       string
	GeminiAPIKey       string
	DashboardCacheTTL  time.Duration
	RoadmapCacheTTL    time.Duration
	SessionTTL         time.Duration
	PersistenceTimeout time.Duration
	AnalyzeRateLimit   int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COACH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Coach API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("events.channel", "coach")
	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("roadmap.cache_ttl", "30m")
	v.SetDefault("session.ttl", "168h")
	v.SetDefault("persistence.timeout", "10s")
	v.SetDefault("rate_limit.analyze", 10)

	durations := map[string]time.Duration{}
	for key, fallback := range map[string]string{
		"ai.timeout":          "60s",
		"dashboard.cache_ttl": "5m",
		"roadmap.cache_ttl":   "30m",
		"session.ttl":         "168h",
		"persistence.timeout": "10s",
	} {
		raw := strings.TrimSpace(v.GetString(key))
		if raw == "" {
			raw = fallback
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("invalid %s: must be positive", key)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseDriver:     strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		EventsChannel:      v.GetString("events.channel"),
		JWTSecret:          v.GetString("jwt.secret"),
		AIProvider:         strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		AIModel:            v.GetString("ai.model"),
		AITimeout:          durations["ai.timeout"],
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		GeminiAPIKey:       v.GetString("gemini_api_key"),
		DashboardCacheTTL:  durations["dashboard.cache_ttl"],
		RoadmapCacheTTL:    durations["roadmap.cache_ttl"],
		SessionTTL:         durations["session.ttl"],
		PersistenceTimeout: durations["persistence.timeout"],
		AnalyzeRateLimit:   v.GetInt("rate_limit.analyze"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.AIProvider {
	case ProviderOpenAI, ProviderGemini, ProviderHeuristic:
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.AnalyzeRateLimit <= 0 {
		cfg.AnalyzeRateLimit = 10
	}

	return cfg, nil
}
