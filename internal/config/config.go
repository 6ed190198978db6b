package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultVSOURL is the VSO SOAP endpoint.
const DefaultVSOURL = "https://vso.nascom.nasa.gov/cgi-bin/VSOi_rpc_literal"

// Config holds all tool settings, populated from environment variables.
type Config struct {
	DataDir      string
	OutputPath   string
	DownloadMode string
	SceneFile    string
	FigureDPI    int

	// VSO archive configuration.
	VSOURL           string
	VSOTimeout       time.Duration
	ProgressInterval time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional event publishing; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	vsoTimeout, err := parsePositiveDuration("VSO_TIMEOUT", "10m")
	if err != nil {
		return nil, err
	}

	progressInterval, err := parsePositiveDuration("PROGRESS_INTERVAL", "2s")
	if err != nil {
		return nil, err
	}

	dpi, err := strconv.Atoi(sharedcfg.EnvOrDefault("FIGURE_DPI", "100"))
	if err != nil || dpi <= 0 || dpi > 1200 {
		return nil, errors.New("invalid FIGURE_DPI: must be an integer between 1 and 1200")
	}

	var brokers []string
	if raw := sharedcfg.EnvOrDefault("KAFKA_BROKERS", ""); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		DataDir:          sharedcfg.EnvOrDefault("DATA_DIR", "./data"),
		OutputPath:       sharedcfg.EnvOrDefault("OUTPUT_PATH", "composite.png"),
		DownloadMode:     sharedcfg.EnvOrDefault("DOWNLOAD_MODE", "missing"),
		SceneFile:        sharedcfg.EnvOrDefault("SCENE_FILE", ""),
		FigureDPI:        dpi,
		VSOURL:           sharedcfg.EnvOrDefault("VSO_URL", DefaultVSOURL),
		VSOTimeout:       vsoTimeout,
		ProgressInterval: progressInterval,
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ""),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		KafkaBrokers:     brokers,
		KafkaTopic:       sharedcfg.EnvOrDefault("KAFKA_TOPIC", "sdo-composites"),
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	switch cfg.DownloadMode {
	case "always", "missing", "never":
	default:
		return nil, fmt.Errorf("invalid DOWNLOAD_MODE %q: want always, missing or never", cfg.DownloadMode)
	}
	if u, err := url.Parse(cfg.VSOURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid VSO_URL %q", cfg.VSOURL)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether composite events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}
