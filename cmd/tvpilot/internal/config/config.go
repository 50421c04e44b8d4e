// Package config loads the tvpilot server configuration.
//
// The configuration is one YAML file, passed via 'tvpilot serve --config'.
// Every field has a default; API keys fall back to environment variables so
// deployments can keep secrets out of the file:
//
//	addr: :8000
//	language: en
//	historyWindow: 20
//	transcriber:
//	  model: whisper-1          # apiKey defaults to $OPENAI_API_KEY
//	intent:
//	  provider: openai          # or gemini ($GEMINI_API_KEY)
//	  model: gpt-4o-mini
//	  maxTokens: 512
//	catalog:
//	  config: /etc/tvpilot/catalog.yaml
//	journal:
//	  dir: /var/lib/tvpilot/journal
//	timeouts:
//	  transcribe: 30s
//	  intent: 30s
//	  audioWait: 15s
//	  ping: 30s
//	  read: 60s
//	  write: 10s
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/hearthware/tvpilot/pkg/jsontime"
)

// Providers accepted in IntentConfig.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config is the root server configuration.
type Config struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`

	// Language is the transcription language hint.
	Language string `yaml:"language"`

	// HistoryWindow bounds each session's conversation history.
	HistoryWindow int `yaml:"historyWindow"`

	Transcriber TranscriberConfig `yaml:"transcriber"`
	Intent      IntentConfig      `yaml:"intent"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Journal     JournalConfig     `yaml:"journal"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
}

// TranscriberConfig selects the speech-to-text backend.
type TranscriberConfig struct {
	// APIKey authenticates against the endpoint. Empty means
	// $OPENAI_API_KEY.
	APIKey string `yaml:"apiKey"`

	// BaseURL overrides the API endpoint, e.g. for a local whisper server.
	BaseURL string `yaml:"baseURL"`

	// Model is the transcription model name.
	Model string `yaml:"model"`
}

// IntentConfig selects the inference backend.
type IntentConfig struct {
	// Provider is "openai" or "gemini".
	Provider string `yaml:"provider"`

	// APIKey authenticates against the provider. Empty means
	// $OPENAI_API_KEY or $GEMINI_API_KEY depending on Provider.
	APIKey string `yaml:"apiKey"`

	// BaseURL overrides the endpoint (openai provider only).
	BaseURL string `yaml:"baseURL"`

	// Model is the inference model name.
	Model string `yaml:"model"`

	// MaxTokens caps the spoken reply length. 0 keeps the engine default.
	MaxTokens int `yaml:"maxTokens"`
}

// CatalogConfig points at the streaming-service catalog definition.
type CatalogConfig struct {
	// Config is the catalog YAML path. Empty disables catalog resolution.
	Config string `yaml:"config"`
}

// JournalConfig configures the voice exchange journal.
type JournalConfig struct {
	// Dir is the badger directory. Empty disables the journal.
	Dir string `yaml:"dir"`
}

// TimeoutConfig carries the hub timeouts. Zero values keep the hub
// defaults.
type TimeoutConfig struct {
	Transcribe jsontime.Duration `yaml:"transcribe"`
	Intent     jsontime.Duration `yaml:"intent"`
	AudioWait  jsontime.Duration `yaml:"audioWait"`
	Ping       jsontime.Duration `yaml:"ping"`
	Read       jsontime.Duration `yaml:"read"`
	Write      jsontime.Duration `yaml:"write"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Addr:     ":8000",
		Language: "en",
		Transcriber: TranscriberConfig{
			Model: "whisper-1",
		},
		Intent: IntentConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
	}
}

// Load reads the configuration file at path. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	switch c.Intent.Provider {
	case "", ProviderOpenAI:
		c.Intent.Provider = ProviderOpenAI
	case ProviderGemini:
	default:
		return fmt.Errorf("unknown intent provider %q (want %s or %s)",
			c.Intent.Provider, ProviderOpenAI, ProviderGemini)
	}
	return nil
}

// TranscriberKey resolves the transcriber API key, falling back to
// $OPENAI_API_KEY.
func (c *Config) TranscriberKey() (string, error) {
	if c.Transcriber.APIKey != "" {
		return c.Transcriber.APIKey, nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("transcriber API key missing: set transcriber.apiKey or OPENAI_API_KEY")
}

// IntentKey resolves the intent API key for the configured provider.
func (c *Config) IntentKey() (string, error) {
	if c.Intent.APIKey != "" {
		return c.Intent.APIKey, nil
	}
	env := "OPENAI_API_KEY"
	if c.Intent.Provider == ProviderGemini {
		env = "GEMINI_API_KEY"
	}
	if key := os.Getenv(env); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("intent API key missing: set intent.apiKey or %s", env)
}
