// Package config holds the worker's process configuration, populated
// by the cmd package (cmd/run.go's loadConfig) from viper, which
// cmd/root.go sets up over flags, environment variables, and an
// optional config file.
package config

import "time"

const (
	defaultWorkerCount           = 10
	defaultBatchDownloaderCount  = 1
	defaultRequestTimeout        = 20 * time.Second
	defaultAdminAddr             = ":9091"
	defaultLogLevel              = "info"
	defaultLogFormat             = "json"
	defaultMasterDomainsFilePath = "./data/domains.txt"
	defaultOutputDir             = "./data/batches"
)

// Config is the fully resolved process configuration.
type Config struct {
	CoordinatorBaseURL string `env:"COORDINATOR_BASE_URL" yaml:"coordinator_base_url"`
	UploadBaseURL       string `env:"UPLOAD_BASE_URL" yaml:"upload_base_url"`

	MasterDomainsFilePath string `env:"MASTER_DOMAINS_FILE" yaml:"master_domains_file"`
	OutputDir             string `env:"OUTPUT_DIR" yaml:"output_dir"`

	WorkerCount          int `env:"WORKER_COUNT" yaml:"worker_count"`
	BatchDownloaderCount int `env:"BATCH_DOWNLOADER_COUNT" yaml:"batch_downloader_count"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" yaml:"request_timeout"`

	RedisAddr string `env:"REDIS_ADDR" yaml:"redis_addr"`

	AdminAddr string `env:"ADMIN_ADDR" yaml:"admin_addr"`

	LogLevel  string `env:"LOG_LEVEL" yaml:"log_level"`
	LogFormat string `env:"LOG_FORMAT" yaml:"log_format"`

	Debug bool `env:"APP_DEBUG" yaml:"debug"`
}

// WithDefaults fills zero-valued fields with their defaults and
// returns the receiver for chaining.
func (c Config) WithDefaults() Config {
	if c.WorkerCount == 0 {
		c.WorkerCount = defaultWorkerCount
	}
	if c.BatchDownloaderCount == 0 {
		c.BatchDownloaderCount = defaultBatchDownloaderCount
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.AdminAddr == "" {
		c.AdminAddr = defaultAdminAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	if c.MasterDomainsFilePath == "" {
		c.MasterDomainsFilePath = defaultMasterDomainsFilePath
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	return c
}
