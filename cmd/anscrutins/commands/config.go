package commands

import (
	"time"

	"anscrutins/internal/components/telemetry"
	"anscrutins/internal/export"
	"anscrutins/internal/scrapers/assemblee"
	"anscrutins/lib/configutil"
)

type RendererConfig struct {
	// Disabled stores analyses without a hemicycle screenshot.
	Disabled   bool   `json:"disabled"`
	ChromePath string `json:"chrome_path"`
}

type Config struct {
	BaseUrl        string           `json:"base_url"`
	DataDir        string           `json:"data_dir"`
	Workers        int              `json:"workers"`
	TimeoutSeconds int              `json:"timeout_seconds"`
	UserAgent      string           `json:"user_agent"`
	Renderer       RendererConfig   `json:"renderer"`
	Export         export.Database  `json:"export"`
	Telemetry      telemetry.Config `json:"telemetry"`
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func defaultConfig() Config {
	return Config{
		BaseUrl:        assemblee.DefaultBaseUrl,
		DataDir:        "data",
		Workers:        8,
		TimeoutSeconds: 60,
		UserAgent:      "anscrutins/1.0",
		Export: export.Database{
			File: "anscrutins.db",
		},
	}
}

func loadConfig(path string) (Config, error) {
	return configutil.ReadConfigWithDefaults(path, defaultConfig())
}
