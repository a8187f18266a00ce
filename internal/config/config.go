package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Error is a configuration error detected at startup.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config holds everything the services need, constructed once at startup
// and passed down explicitly. There is no package-level state.
type Config struct {
	// GeminiAPIKeys is the credential pool. Suggestion batches and cover
	// generation rotate across it round-robin. Must be non-empty.
	GeminiAPIKeys []string `yaml:"gemini_api_keys"`

	TextModel  string `yaml:"text_model"`
	ImageModel string `yaml:"image_model"`

	// SuggestionTarget is the merged list size cap per suggestion call.
	SuggestionTarget int `yaml:"suggestion_target"`
	// SuggestionBatchSize is how many books each parallel sub-request asks for.
	SuggestionBatchSize int `yaml:"suggestion_batch_size"`

	Port string `yaml:"port"`
}

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "gemini-2.5-flash-image"

	defaultSuggestionTarget    = 6
	defaultSuggestionBatchSize = 2

	defaultPort = "8888"
)

// Load builds a Config from the environment, with an optional YAML overlay
// taken from FLASHCLEV_CONFIG (or ./flashclev.yaml if present). Environment
// variables win over the file. Fails fast with a typed *Error when no
// Gemini credential is configured.
func Load() (*Config, error) {
	cfg := &Config{
		TextModel:           defaultTextModel,
		ImageModel:          defaultImageModel,
		SuggestionTarget:    defaultSuggestionTarget,
		SuggestionBatchSize: defaultSuggestionBatchSize,
		Port:                defaultPort,
	}

	path := os.Getenv("FLASHCLEV_CONFIG")
	if path == "" {
		if _, err := os.Stat("flashclev.yaml"); err == nil {
			path = "flashclev.yaml"
		}
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(file.GeminiAPIKeys) > 0 {
		c.GeminiAPIKeys = file.GeminiAPIKeys
	}
	if file.TextModel != "" {
		c.TextModel = file.TextModel
	}
	if file.ImageModel != "" {
		c.ImageModel = file.ImageModel
	}
	if file.SuggestionTarget > 0 {
		c.SuggestionTarget = file.SuggestionTarget
	}
	if file.SuggestionBatchSize > 0 {
		c.SuggestionBatchSize = file.SuggestionBatchSize
	}
	if file.Port != "" {
		c.Port = file.Port
	}
	return nil
}

func (c *Config) applyEnv() {
	if keys := os.Getenv("GEMINI_API_KEYS"); keys != "" {
		c.GeminiAPIKeys = splitKeys(keys)
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.GeminiAPIKeys = []string{key}
	}

	if model := os.Getenv("GEMINI_TEXT_MODEL"); model != "" {
		c.TextModel = model
	}
	if model := os.Getenv("GEMINI_IMAGE_MODEL"); model != "" {
		c.ImageModel = model
	}
	if target := os.Getenv("SUGGESTION_TARGET"); target != "" {
		if n, err := strconv.Atoi(target); err == nil && n > 0 {
			c.SuggestionTarget = n
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Port = port
	}
}

func (c *Config) validate() error {
	if len(c.GeminiAPIKeys) == 0 {
		return &Error{
			Field:  "gemini_api_keys",
			Reason: "no Gemini API key configured; set GEMINI_API_KEY or GEMINI_API_KEYS",
		}
	}
	for i, key := range c.GeminiAPIKeys {
		if strings.TrimSpace(key) == "" {
			return &Error{
				Field:  "gemini_api_keys",
				Reason: fmt.Sprintf("credential %d is empty", i),
			}
		}
	}
	if c.SuggestionBatchSize > c.SuggestionTarget {
		return &Error{
			Field:  "suggestion_batch_size",
			Reason: "batch size cannot exceed the suggestion target",
		}
	}
	return nil
}

func splitKeys(s string) []string {
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}
