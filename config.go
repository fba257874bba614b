package deckchat

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Desarso/deckchat/models/anthropic"
	"github.com/Desarso/deckchat/models/gemini"
	"github.com/Desarso/deckchat/models/openai"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"

	// ConfigEnv names the YAML config file when --config is not given.
	ConfigEnv = "DECKCHAT_CONFIG"
)

// DefaultModels is the model used for each provider when none is configured.
var DefaultModels = map[string]string{
	ProviderOpenAI:    openai.DefaultModel,
	ProviderGemini:    gemini.DefaultModel,
	ProviderAnthropic: anthropic.DefaultModel,
}

// Config holds everything the gateway needs to serve requests.
type Config struct {
	Addr      string `yaml:"addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Provider        string   `yaml:"provider"`
	ChatModel       string   `yaml:"chat_model"`
	MetaModel       string   `yaml:"meta_model"`
	ChatTemperature *float64 `yaml:"chat_temperature"`
	MetaTemperature float64  `yaml:"meta_temperature"`
	BaseURL         string   `yaml:"base_url"`
	APIKeyEnv       string   `yaml:"api_key_env"`
	SiteURL         string   `yaml:"site_url"`
	SiteName        string   `yaml:"site_name"`
	MaxTokens       int      `yaml:"max_tokens"` // Anthropic only; the Messages API requires it

	MaxPDFPages   int           `yaml:"max_pdf_pages"`
	MaxPDFBytes   int64         `yaml:"max_pdf_bytes"`
	MetaTimeout   time.Duration `yaml:"meta_timeout"`
	TopicsTimeout time.Duration `yaml:"topics_timeout"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

// NewConfig creates a configuration with default values
func NewConfig() *Config {
	return &Config{
		Addr:            ":8000",
		LogLevel:        "info",
		LogFormat:       "console",
		Provider:        ProviderOpenAI,
		MetaTemperature: 0.2,
		MaxTokens:       2048,
		MaxPDFPages:     20,
		MaxPDFBytes:     25 << 20,
		MetaTimeout:     45 * time.Second,
		TopicsTimeout:   30 * time.Second,
		AllowedOrigins:  []string{"*"},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (or $DECKCHAT_CONFIG), then environment variables. A .env file in the
// working directory is loaded first if present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := NewConfig()
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ChatModelName is the configured chat model, or the provider's default
// when none was set.
func (c *Config) ChatModelName() string {
	if c.ChatModel != "" {
		return c.ChatModel
	}
	return DefaultModels[c.Provider]
}

// MetaModelName is the model used for deck metadata; it falls back to the
// chat model.
func (c *Config) MetaModelName() string {
	if c.MetaModel != "" {
		return c.MetaModel
	}
	return c.ChatModelName()
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("DECKCHAT_ADDR", &c.Addr)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_FORMAT", &c.LogFormat)
	setString("LLM_PROVIDER", &c.Provider)
	setString("CHAT_MODEL", &c.ChatModel)
	setString("META_MODEL", &c.MetaModel)
	setString("LLM_BASE_URL", &c.BaseURL)
	setString("LLM_API_KEY_ENV", &c.APIKeyEnv)
	setString("SITE_URL", &c.SiteURL)
	setString("SITE_NAME", &c.SiteName)

	var errs []error
	if v := os.Getenv("CHAT_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("CHAT_TEMPERATURE: %w", err))
		} else {
			c.ChatTemperature = &t
		}
	}
	if v := os.Getenv("META_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("META_TEMPERATURE: %w", err))
		} else {
			c.MetaTemperature = t
		}
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LLM_MAX_TOKENS: %w", err))
		} else {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv("MAX_PDF_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_PDF_PAGES: %w", err))
		} else {
			c.MaxPDFPages = n
		}
	}
	if v := os.Getenv("MAX_PDF_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_PDF_BYTES: %w", err))
		} else {
			c.MaxPDFBytes = n
		}
	}
	if v := os.Getenv("META_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("META_TIMEOUT: %w", err))
		} else {
			c.MetaTimeout = d
		}
	}
	if v := os.Getenv("TOPICS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TOPICS_TIMEOUT: %w", err))
		} else {
			c.TopicsTimeout = d
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the configuration for values the gateway cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	if c.MaxPDFPages <= 0 {
		errs = append(errs, errors.New("max_pdf_pages must be positive"))
	}
	if c.MaxPDFBytes <= 0 {
		errs = append(errs, errors.New("max_pdf_bytes must be positive"))
	}
	if c.MetaTimeout <= 0 || c.TopicsTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, errors.New("max_tokens must be positive"))
	}
	return errors.Join(errs...)
}

// WithAddr sets the listen address
func (c *Config) WithAddr(addr string) *Config {
	c.Addr = addr
	return c
}

// WithProvider sets the LLM provider
func (c *Config) WithProvider(provider string) *Config {
	c.Provider = provider
	return c
}

// WithChatModel sets the model used for chat completions
func (c *Config) WithChatModel(model string) *Config {
	c.ChatModel = model
	return c
}

// WithMetaModel sets the model used for deck metadata extraction
func (c *Config) WithMetaModel(model string) *Config {
	c.MetaModel = model
	return c
}

// WithChatTemperature sets the chat sampling temperature
func (c *Config) WithChatTemperature(t float64) *Config {
	c.ChatTemperature = &t
	return c
}

// WithBaseURL points the provider at a custom endpoint
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = baseURL
	return c
}

// WithAPIKeyEnv sets the env var the provider reads its API key from
func (c *Config) WithAPIKeyEnv(env string) *Config {
	c.APIKeyEnv = env
	return c
}

// WithMaxPDFPages sets how many pages are read from uploaded decks
func (c *Config) WithMaxPDFPages(n int) *Config {
	c.MaxPDFPages = n
	return c
}

// WithAllowedOrigins sets the CORS allow-list
func (c *Config) WithAllowedOrigins(origins ...string) *Config {
	c.AllowedOrigins = origins
	return c
}
