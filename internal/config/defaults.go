package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultProviderBaseURL      = "https://query1.finance.yahoo.com"
	DefaultProviderTimeout      = 30 * time.Second
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 10
	DefaultMinConns             = 2
	DefaultStorageRoot          = "data"
	DefaultNotifierTimeout      = 10 * time.Second
	DefaultConcurrency          = 4
	DefaultUnitTimeout          = 2 * time.Minute
	DefaultRetryInitialInterval = 1 * time.Second
	DefaultRetryMaxElapsed      = 30 * time.Second
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

func (c *Config) applyDefaults() {
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = DefaultProviderBaseURL
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = DefaultProviderTimeout
	}

	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	if c.Storage.Root == "" {
		c.Storage.Root = DefaultStorageRoot
	}

	if c.Notifier.Timeout == 0 {
		c.Notifier.Timeout = DefaultNotifierTimeout
	}

	if c.Pipeline.Concurrency == 0 {
		c.Pipeline.Concurrency = DefaultConcurrency
	}
	if c.Pipeline.UnitTimeout == 0 {
		c.Pipeline.UnitTimeout = DefaultUnitTimeout
	}
	if c.Pipeline.RetryInitialInterval == 0 {
		c.Pipeline.RetryInitialInterval = DefaultRetryInitialInterval
	}
	if c.Pipeline.RetryMaxElapsed == 0 {
		c.Pipeline.RetryMaxElapsed = DefaultRetryMaxElapsed
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}
