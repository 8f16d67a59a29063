package core

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Credentials holds API authentication credentials for an exchange.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key"`
	// SecretKey is the private API key used for signing requests.
	SecretKey string `json:"secret_key"`
}

// Valid reports whether both the key and the secret are set.
// A client without valid credentials can only call public endpoints.
func (c *Credentials) Valid() bool {
	return c != nil && c.APIKey != "" && c.SecretKey != ""
}

// MaskedKey returns the API key with everything but its edges hidden, for logging.
func (c *Credentials) MaskedKey() string {
	if c == nil || len(c.APIKey) <= 8 {
		return "****"
	}
	return c.APIKey[:4] + "****" + c.APIKey[len(c.APIKey)-4:]
}

// Config contains all configuration options for an exchange client.
type Config struct {
	Exchange    string       `json:"exchange" validate:"required"`
	BaseURL     string       `json:"base_url" validate:"required,url"`
	Credentials *Credentials `json:"credentials,omitempty"`

	// Timeout is the maximum duration for HTTP requests. Zero means no timeout.
	Timeout time.Duration `json:"timeout" validate:"min=0"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config for the named exchange pointing at baseURL.
// No timeout is set and the log level is info.
func DefaultConfig(exchange, baseURL string) *Config {
	return &Config{
		Exchange: exchange,
		BaseURL:  baseURL,
		LogLevel: "info",
	}
}

var validate = validator.New()

// Validate checks the config against its field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithBaseURL overrides the API base URL and returns the config for chaining.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithLogLevel sets the log level and returns the config for chaining.
func (c *Config) WithLogLevel(level string) *Config {
	c.LogLevel = level
	return c
}
