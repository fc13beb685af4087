package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type Config struct {
	Source struct {
		URL          string        `yaml:"url"`
		Timeout      time.Duration `yaml:"timeout"`
		RateLimit    float64       `yaml:"rate_limit"`
		UserAgent    string        `yaml:"user_agent"`
		MaxBodyBytes int64         `yaml:"max_body_bytes"`
	} `yaml:"source"`

	Server struct {
		Name      string `yaml:"name"`
		Version   string `yaml:"version"`
		Transport string `yaml:"transport"`
		Addr      string `yaml:"addr"`
	} `yaml:"server"`

	LLM struct {
		BaseURL   string `yaml:"base_url"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
		// pointer so an explicit 0 survives applyDefaults
		Temperature *float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/giavang/config.yaml"),
			"/etc/giavang/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Source.URL == "" {
		config.Source.URL = "https://cccsonline.click/gia-vang-giao-thuy"
	}
	if config.Source.Timeout == 0 {
		config.Source.Timeout = 15 * time.Second
	}
	if config.Source.RateLimit == 0 {
		config.Source.RateLimit = 1.0
	}
	if config.Source.UserAgent == "" {
		config.Source.UserAgent = "giavang-mcp/1.0"
	}
	if config.Source.MaxBodyBytes == 0 {
		config.Source.MaxBodyBytes = 4 << 20
	}

	if config.Server.Name == "" {
		config.Server.Name = "gia-vang-giao-thuy-mcp"
	}
	if config.Server.Version == "" {
		config.Server.Version = "1.0.0"
	}
	if config.Server.Transport == "" {
		config.Server.Transport = TransportStdio
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}

	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == nil {
		temperature := 0.7
		config.LLM.Temperature = &temperature
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

func mergeWithEnv(config *Config) {
	if sourceURL := os.Getenv("GIAVANG_SOURCE_URL"); sourceURL != "" {
		config.Source.URL = sourceURL
	}
	if transport := os.Getenv("GIAVANG_TRANSPORT"); transport != "" {
		config.Server.Transport = transport
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}
