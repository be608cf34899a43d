package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RECEIPTS_EVAL_LLM_API_KEY.
const EnvPrefix = "RECEIPTS_EVAL"

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	S3       S3Config       `mapstructure:"s3"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Eval     EvalConfig     `mapstructure:"eval"`
	Prompt   PromptConfig   `mapstructure:"prompt"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds database-related configuration.
// A postgres:// DSN selects pgx, anything else is treated as a sqlite path.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DatasetConfig selects where data points are read from
type DatasetConfig struct {
	Backend string `mapstructure:"backend"` // fs | s3
	Root    string `mapstructure:"root"`
	Name    string `mapstructure:"name"`
	Split   string `mapstructure:"split"`
}

// S3Config holds object storage settings for the s3 dataset backend
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Command       string        `mapstructure:"command"`
	Language      string        `mapstructure:"language"`
	TessdataDir   string        `mapstructure:"tessdata_dir"`
	HeicConverter string        `mapstructure:"heic_converter"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Concurrency   int           `mapstructure:"concurrency"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider          string        `mapstructure:"provider"` // openai | anthropic
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Temperature       float64       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// EvalConfig holds evaluation run settings
type EvalConfig struct {
	Strategy        string        `mapstructure:"strategy"`
	Concurrency     int           `mapstructure:"concurrency"`
	Limit           int           `mapstructure:"limit"`
	Seed            int64         `mapstructure:"seed"`
	FailFast        bool          `mapstructure:"fail_fast"`
	OutputDir       string        `mapstructure:"output_dir"`
	DocumentTimeout time.Duration `mapstructure:"document_timeout"`
}

// PromptConfig holds prompt strategy settings.
// An empty Demonstrations list selects the built-in ones.
type PromptConfig struct {
	Demonstrations []DemonstrationConfig `mapstructure:"demonstrations"`
}

// DemonstrationConfig points at a labeled word run inside an annotated data point
type DemonstrationConfig struct {
	ID     string `mapstructure:"id"`
	Split  string `mapstructure:"split"`
	Prefix string `mapstructure:"prefix"`
	Words  int    `mapstructure:"words"`
	Kind   string `mapstructure:"kind"` // hard | format
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-haiku-latest",
}

// DefaultModel returns the model used when llm.model is unset for provider.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("dataset.backend", "fs")
	v.SetDefault("dataset.root", "data")
	v.SetDefault("dataset.name", "custom")
	v.SetDefault("dataset.split", "eval")

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")

	v.SetDefault("ocr.command", "tesseract")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.heic_converter", "magick")
	v.SetDefault("ocr.min_confidence", 60.0)
	v.SetDefault("ocr.timeout", "60s")
	v.SetDefault("ocr.concurrency", 8)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("llm.timeout", "45s")
	v.SetDefault("llm.requests_per_second", 5.0)
	v.SetDefault("llm.burst", 4)

	v.SetDefault("eval.strategy", "simple")
	v.SetDefault("eval.concurrency", 16)
	v.SetDefault("eval.limit", 0)
	v.SetDefault("eval.seed", 1)
	v.SetDefault("eval.fail_fast", true)
	v.SetDefault("eval.output_dir", "evaluations")
	v.SetDefault("eval.document_timeout", "2m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads an optional YAML/JSON file at path, then applies
// RECEIPTS_EVAL_* environment overrides on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// nested keys need explicit binding for Unmarshal to see env values
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, NewAppError(CodeConfig, fmt.Sprintf("bind env for %s", key), err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, NewAppError(CodeConfig, "read config file", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError(CodeConfig, "decode config", err)
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel(cfg.LLM.Provider)
	}
	return &cfg, nil
}

// Validate checks settings shared by every command
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("dataset.backend", c.Dataset.Backend, OneOf("fs", "s3"))
	v.Field("dataset.name", c.Dataset.Name, Required)
	v.Field("eval.concurrency", c.Eval.Concurrency, Positive)
	v.Field("eval.limit", c.Eval.Limit, NonNegative)
	v.Field("ocr.concurrency", c.OCR.Concurrency, Positive)
	v.Field("ocr.min_confidence", c.OCR.MinConfidence, NonNegative)
	v.Field("log.format", c.Log.Format, OneOf("json", "text"))
	v.Field("log.level", strings.ToLower(c.Log.Level), OneOf("debug", "info", "warn", "error"))
	for i, d := range c.Prompt.Demonstrations {
		key := fmt.Sprintf("prompt.demonstrations[%d]", i)
		v.Field(key+".id", d.ID, Required)
		v.Field(key+".prefix", d.Prefix, Required)
		v.Field(key+".words", d.Words, Positive)
		v.Field(key+".kind", d.Kind, OneOf("hard", "format"))
	}
	if c.Dataset.Backend == "fs" {
		v.Field("dataset.root", c.Dataset.Root, Required)
	}
	if c.Dataset.Backend == "s3" {
		v.Field("s3.bucket", c.S3.Bucket, Required)
	}
	return v.Err(CodeConfig)
}

// Validate checks the settings needed to call the completion provider
func (c *LLMConfig) Validate() error {
	v := NewValidator()
	v.Field("llm.provider", c.Provider, OneOf("openai", "anthropic"))
	v.Field("llm.api_key", c.APIKey, Required)
	v.Field("llm.model", c.Model, Required)
	v.Field("llm.max_tokens", c.MaxTokens, Positive)
	v.Field("llm.temperature", c.Temperature, NonNegative)
	return v.Err(CodeConfig)
}
