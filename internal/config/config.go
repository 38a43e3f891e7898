package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	OCR      OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Scorer   ScorerConfig   `yaml:"scorer" mapstructure:"scorer"`
	Notify   NotifyConfig   `yaml:"notify" mapstructure:"notify"`
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ScrapeConfig configures the enforcement index crawl and PDF downloads.
type ScrapeConfig struct {
	IndexURL       string  `yaml:"index_url" mapstructure:"index_url"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	CutoffDate     string  `yaml:"cutoff_date" mapstructure:"cutoff_date"`
}

// OCRConfig configures the recognition engine used when the PDF text layer
// is unusable.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToPpmPath  string `yaml:"pdftoppm_path" mapstructure:"pdftoppm_path"`
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	DPI           int    `yaml:"dpi" mapstructure:"dpi"`
	Lang          string `yaml:"lang" mapstructure:"lang"`
}

// PipelineConfig configures document processing concurrency.
type PipelineConfig struct {
	MaxConcurrentDocs int `yaml:"max_concurrent_docs" mapstructure:"max_concurrent_docs"`
	MaxConcurrentOCR  int `yaml:"max_concurrent_ocr" mapstructure:"max_concurrent_ocr"`
}

// KeywordWeight maps a lowercase keyword to the points it contributes.
type KeywordWeight struct {
	Keyword string `yaml:"keyword" mapstructure:"keyword"`
	Points  int    `yaml:"points" mapstructure:"points"`
}

// PenaltyBand awards points when the parsed penalty is at least Min.
type PenaltyBand struct {
	Min    float64 `yaml:"min" mapstructure:"min"`
	Points int     `yaml:"points" mapstructure:"points"`
}

// CountBonus awards points when the key-violation count is at least Min.
type CountBonus struct {
	Min    int `yaml:"min" mapstructure:"min"`
	Points int `yaml:"points" mapstructure:"points"`
}

// RecencyBonus awards points when the enforcement date is at most MaxAgeDays
// old at scoring time.
type RecencyBonus struct {
	MaxAgeDays int `yaml:"max_age_days" mapstructure:"max_age_days"`
	Points     int `yaml:"points" mapstructure:"points"`
}

// ScorerConfig externalizes the severity/priority policy: keyword sets,
// point weights, and threshold cut points are configuration, not mechanism.
type ScorerConfig struct {
	ActionWeights    []KeywordWeight `yaml:"action_weights" mapstructure:"action_weights"`
	ViolationWeights []KeywordWeight `yaml:"violation_weights" mapstructure:"violation_weights"`
	PenaltyBands     []PenaltyBand   `yaml:"penalty_bands" mapstructure:"penalty_bands"`
	CountBonuses     []CountBonus    `yaml:"count_bonuses" mapstructure:"count_bonuses"`
	RecencyBonuses   []RecencyBonus  `yaml:"recency_bonuses" mapstructure:"recency_bonuses"`

	// Severity cut points over the priority score; must be monotonic.
	MediumThreshold int `yaml:"medium_threshold" mapstructure:"medium_threshold"`
	HighThreshold   int `yaml:"high_threshold" mapstructure:"high_threshold"`

	// RulesFile optionally overrides the whole table from a YAML file.
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// NotifyConfig configures the notification sinks for new records.
type NotifyConfig struct {
	WebhookURL   string `yaml:"webhook_url" mapstructure:"webhook_url"`
	NotionToken  string `yaml:"notion_token" mapstructure:"notion_token"`
	NotionDB     string `yaml:"notion_db" mapstructure:"notion_db"`
	AnthropicKey string `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	DraftModel   string `yaml:"draft_model" mapstructure:"draft_model"`
	DraftPrompt  string `yaml:"draft_prompt_file" mapstructure:"draft_prompt_file"`
}

// ScheduleConfig configures the watch loop.
type ScheduleConfig struct {
	Times    []string `yaml:"times" mapstructure:"times"`
	Timezone string   `yaml:"timezone" mapstructure:"timezone"`
}

// ServerConfig configures the records API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENFORCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "enforcement.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("scrape.index_url", "https://www.nj.gov/health/healthfacilities/surveys-insp/enforcement_actions.shtml")
	v.SetDefault("scrape.user_agent", "enforcement-cli/1.0")
	v.SetDefault("scrape.timeout_secs", 60)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.requests_per_sec", 2)
	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.lang", "eng")
	v.SetDefault("pipeline.max_concurrent_docs", 4)
	v.SetDefault("pipeline.max_concurrent_ocr", 1)
	v.SetDefault("schedule.times", []string{"09:00", "14:00"})
	v.SetDefault("schedule.timezone", "America/New_York")
	v.SetDefault("notify.draft_model", "claude-haiku-4-5-20251001")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
