package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hexa/internal/llm"
)

// Config holds all configuration values
type Config struct {
	Provider       string `yaml:"provider"`
	RemoteEndpoint string `yaml:"remote_endpoint"`
	APIKey         string `yaml:"api_key"`
	RemoteModel    string `yaml:"remote_model"`
	LocalBaseURL   string `yaml:"local_base_url"`
	LocalModel     string `yaml:"local_model"`
	LocalAPIKey    string `yaml:"local_api_key"`
}

// LoadConfig loads configuration from an optional YAML file, then lets
// environment variables (including a .env file) override it.
func LoadConfig(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Provider:     string(llm.ProviderCanned),
		RemoteModel:  llm.DefaultRemoteModel,
		LocalBaseURL: llm.DefaultLocalBaseURL,
		LocalModel:   llm.DefaultLocalModel,
	}

	if path == "" {
		path = os.Getenv("HEXA_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	overrideFromEnv(&config.Provider, "HEXA_PROVIDER")
	overrideFromEnv(&config.RemoteEndpoint, "HEXA_REMOTE_ENDPOINT")
	overrideFromEnv(&config.APIKey, "HEXA_API_KEY")
	overrideFromEnv(&config.RemoteModel, "HEXA_REMOTE_MODEL")
	overrideFromEnv(&config.LocalBaseURL, "HEXA_LOCAL_BASE_URL")
	overrideFromEnv(&config.LocalModel, "HEXA_LOCAL_MODEL")
	overrideFromEnv(&config.LocalAPIKey, "HEXA_LOCAL_API_KEY")

	if _, err := llm.ParseProvider(config.Provider); err != nil {
		return nil, err
	}
	return config, nil
}

func overrideFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Settings converts the configuration into coordinator settings.
func (c *Config) Settings(simulateLatency bool) llm.Settings {
	return llm.Settings{
		RemoteEndpoint:  c.RemoteEndpoint,
		APIKey:          c.APIKey,
		RemoteModel:     c.RemoteModel,
		LocalBaseURL:    c.LocalBaseURL,
		LocalModel:      c.LocalModel,
		LocalAPIKey:     c.LocalAPIKey,
		SimulateLatency: simulateLatency,
	}
}
