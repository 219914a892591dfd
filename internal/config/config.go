package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone    = "UTC"
	configPathEnv      = "NEWS_GENERATOR_CONFIG"
	temporalAddressEnv = "TEMPORAL_ADDRESS"
	temporalNSEnv      = "TEMPORAL_NAMESPACE"
	temporalKeyEnv     = "TEMPORAL_API_KEY"
	temporalQueueEnv   = "TEMPORAL_TASK_QUEUE"
	databaseDSNEnv     = "DATABASE_DSN"
	dataForSEOLoginEnv = "DATAFORSEO_LOGIN"
	dataForSEOPassEnv  = "DATAFORSEO_PASSWORD"
	serperKeyEnv       = "SERPER_API_KEY"
	zepKeyEnv          = "ZEP_API_KEY"
	openAIKeyEnv       = "OPENAI_API_KEY"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Temporal      TemporalConfig     `yaml:"temporal"`
	Database      DatabaseConfig     `yaml:"database"`
	Providers     ProviderConfig     `yaml:"providers"`
	Zep           ZepConfig          `yaml:"zep"`
	Assessor      AssessorConfig     `yaml:"assessor"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	Timezone      string             `yaml:"timezone"`
	Domains       []DomainConfig     `yaml:"domains"`

	location *time.Location `yaml:"-"`
}

// TemporalConfig describes the durable-execution connection.
type TemporalConfig struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
	APIKey    string `yaml:"apiKey"`
	TaskQueue string `yaml:"taskQueue"`
}

// DatabaseConfig describes the recent-article store connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ProviderConfig groups credentials and endpoints for the news providers.
type ProviderConfig struct {
	DataForSEO DataForSEOConfig `yaml:"dataforseo"`
	Serper     SerperConfig     `yaml:"serper"`
}

// DataForSEOConfig wires the DataForSEO news search API.
type DataForSEOConfig struct {
	Endpoint string `yaml:"endpoint"`
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
}

// SerperConfig wires the Serper news search API.
type SerperConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// ZepConfig wires the optional knowledge-graph service.
type ZepConfig struct {
	Endpoint            string  `yaml:"endpoint"`
	APIKey              string  `yaml:"apiKey"`
	SimilarityThreshold float64 `yaml:"similarityThreshold"`
}

// AssessorConfig defines how to contact the relevance-scoring model.
type AssessorConfig struct {
	Endpoint               string  `yaml:"endpoint"`
	Model                  string  `yaml:"model"`
	APIKey                 string  `yaml:"apiKey"`
	BatchSize              int     `yaml:"batchSize"`
	PromptCostPer1K        float64 `yaml:"promptCostPer1k"`
	CompletionCostPer1K    float64 `yaml:"completionCostPer1k"`
	EstimatedCostPerStory  float64 `yaml:"estimatedCostPerStory"`
	MaxRunCost             float64 `yaml:"maxRunCost"`
	AssessmentInstructions string  `yaml:"assessmentInstructions"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig controls log verbosity and output encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DomainConfig describes one topical domain ("app") the pipeline monitors.
type DomainConfig struct {
	ID                  string   `yaml:"id"`
	DisplayName         string   `yaml:"displayName"`
	Keywords            []string `yaml:"keywords"`
	Exclusions          []string `yaml:"exclusions"`
	Location            string   `yaml:"location"`
	Language            string   `yaml:"language"`
	MinRelevanceScore   float64  `yaml:"minRelevanceScore"`
	AutoCreate          bool     `yaml:"autoCreate"`
	MaxArticlesToCreate int      `yaml:"maxArticlesToCreate"`
	LookbackDays        int      `yaml:"lookbackDays"`
	Cron                string   `yaml:"cron"`
}

// Location resolves the configured timezone string to a time.Location.
func (c Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Domain returns the configuration for the given domain ID.
func (c Config) Domain(id string) (DomainConfig, bool) {
	for _, d := range c.Domains {
		if d.ID == id {
			return d, true
		}
	}
	return DomainConfig{}, false
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Domains) == 0 {
		cfg.Domains = defaultConfig().Domains
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(temporalAddressEnv); v != "" {
		c.Temporal.Address = v
	}
	if v := os.Getenv(temporalNSEnv); v != "" {
		c.Temporal.Namespace = v
	}
	if v := os.Getenv(temporalKeyEnv); v != "" {
		c.Temporal.APIKey = v
	}
	if v := os.Getenv(temporalQueueEnv); v != "" {
		c.Temporal.TaskQueue = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(dataForSEOLoginEnv); v != "" {
		c.Providers.DataForSEO.Login = v
	}
	if v := os.Getenv(dataForSEOPassEnv); v != "" {
		c.Providers.DataForSEO.Password = v
	}
	if v := os.Getenv(serperKeyEnv); v != "" {
		c.Providers.Serper.APIKey = v
	}

	if v := os.Getenv(zepKeyEnv); v != "" {
		c.Zep.APIKey = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.Assessor.APIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Temporal.Address != "" {
		base.Temporal.Address = override.Temporal.Address
	}
	if override.Temporal.Namespace != "" {
		base.Temporal.Namespace = override.Temporal.Namespace
	}
	if override.Temporal.APIKey != "" {
		base.Temporal.APIKey = override.Temporal.APIKey
	}
	if override.Temporal.TaskQueue != "" {
		base.Temporal.TaskQueue = override.Temporal.TaskQueue
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Providers.DataForSEO.Endpoint != "" {
		base.Providers.DataForSEO.Endpoint = override.Providers.DataForSEO.Endpoint
	}
	if override.Providers.DataForSEO.Login != "" {
		base.Providers.DataForSEO.Login = override.Providers.DataForSEO.Login
	}
	if override.Providers.DataForSEO.Password != "" {
		base.Providers.DataForSEO.Password = override.Providers.DataForSEO.Password
	}
	if override.Providers.Serper.Endpoint != "" {
		base.Providers.Serper.Endpoint = override.Providers.Serper.Endpoint
	}
	if override.Providers.Serper.APIKey != "" {
		base.Providers.Serper.APIKey = override.Providers.Serper.APIKey
	}

	if override.Zep.Endpoint != "" {
		base.Zep.Endpoint = override.Zep.Endpoint
	}
	if override.Zep.APIKey != "" {
		base.Zep.APIKey = override.Zep.APIKey
	}
	if override.Zep.SimilarityThreshold > 0 {
		base.Zep.SimilarityThreshold = override.Zep.SimilarityThreshold
	}

	if override.Assessor.Endpoint != "" {
		base.Assessor.Endpoint = override.Assessor.Endpoint
	}
	if override.Assessor.Model != "" {
		base.Assessor.Model = override.Assessor.Model
	}
	if override.Assessor.APIKey != "" {
		base.Assessor.APIKey = override.Assessor.APIKey
	}
	if override.Assessor.BatchSize > 0 {
		base.Assessor.BatchSize = override.Assessor.BatchSize
	}
	if override.Assessor.PromptCostPer1K > 0 {
		base.Assessor.PromptCostPer1K = override.Assessor.PromptCostPer1K
	}
	if override.Assessor.CompletionCostPer1K > 0 {
		base.Assessor.CompletionCostPer1K = override.Assessor.CompletionCostPer1K
	}
	if override.Assessor.EstimatedCostPerStory > 0 {
		base.Assessor.EstimatedCostPerStory = override.Assessor.EstimatedCostPerStory
	}
	if override.Assessor.MaxRunCost > 0 {
		base.Assessor.MaxRunCost = override.Assessor.MaxRunCost
	}
	if override.Assessor.AssessmentInstructions != "" {
		base.Assessor.AssessmentInstructions = override.Assessor.AssessmentInstructions
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}
	if override.Timezone != "" {
		base.Timezone = override.Timezone
	}

	if len(override.Domains) > 0 {
		base.Domains = override.Domains
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Temporal: TemporalConfig{
			Address:   "localhost:7233",
			Namespace: "default",
			TaskQueue: "quest-content-queue",
		},
		Database: DatabaseConfig{DSN: ""},
		Providers: ProviderConfig{
			DataForSEO: DataForSEOConfig{
				Endpoint: "https://api.dataforseo.com/v3/news/search/live",
			},
			Serper: SerperConfig{
				Endpoint: "https://google.serper.dev/news",
			},
		},
		Zep: ZepConfig{
			Endpoint:            "https://api.getzep.com/api/v2",
			SimilarityThreshold: 0.85,
		},
		Assessor: AssessorConfig{
			Endpoint:              "https://api.openai.com/v1/chat/completions",
			Model:                 "gpt-4o-mini",
			BatchSize:             10,
			PromptCostPer1K:       0.00015,
			CompletionCostPer1K:   0.0006,
			EstimatedCostPerStory: 0.002,
			MaxRunCost:            1.0,
		},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Timezone: defaultTimezone,
		Domains: []DomainConfig{
			{
				ID:                  "placement",
				DisplayName:         "Placement",
				Keywords:            []string{"job placement", "campus hiring"},
				Language:            "en",
				MinRelevanceScore:   0.7,
				AutoCreate:          true,
				MaxArticlesToCreate: 3,
				LookbackDays:        7,
				Cron:                "0 9 * * *",
			},
		},
	}
}
