package config

import "time"

// Config is the root configuration for one ETL instance.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Database DBConfig       `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Notifier NotifierConfig `yaml:"notifier"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProviderConfig holds market-data provider settings.
type ProviderConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// DBConfig holds the warehouse database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// StorageConfig holds the raw object store location.
type StorageConfig struct {
	Root string `yaml:"root"`
}

// NotifierConfig holds webhook notification settings.
type NotifierConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	Concurrency          int           `yaml:"concurrency"`
	UnitTimeout          time.Duration `yaml:"unit_timeout"`
	RetryInitialInterval time.Duration `yaml:"retry_initial_interval"`
	RetryMaxElapsed      time.Duration `yaml:"retry_max_elapsed"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
