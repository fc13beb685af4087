package config

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Source config
	if u, err := url.Parse(c.Source.URL); err != nil || !u.IsAbs() || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "source.url",
			Message: "source URL must be an absolute http(s) URL",
		})
	}

	if c.Source.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "source.timeout",
			Message: "timeout must be positive",
		})
	}

	if c.Source.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "source.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Source.MaxBodyBytes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "source.max_body_bytes",
			Message: "max_body_bytes must be positive",
		})
	}

	// Validate Server config
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errors = append(errors, ValidationError{
			Field:   "server.transport",
			Message: fmt.Sprintf("unsupported transport %q (want stdio or http)", c.Server.Transport),
		})
	}

	if c.Server.Transport == TransportHTTP && c.Server.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Message: "addr is required for the http transport",
		})
	}

	// Validate LLM config
	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature == nil || *c.LLM.Temperature < 0 || *c.LLM.Temperature > 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 1",
		})
	}

	if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	// Validate Log config
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level %q", c.Log.Level),
		})
	}

	return errors
}
