package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"tutorsched/internal/schedule"
)

type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console or json
	} `yaml:"log"`

	Registry struct {
		RoomsPath            string `yaml:"rooms_path"`
		SessionTimesPath     string `yaml:"session_times_path"`
		WatchIntervalSeconds int    `yaml:"watch_interval_seconds"`
	} `yaml:"registry"`

	Scheduling struct {
		MaxSessionsPerDay int `yaml:"max_sessions_per_day"`
		// PartialMultiDay keeps days inserted before a failing day of a
		// multi-day time string instead of rejecting the whole string.
		PartialMultiDay bool `yaml:"partial_multi_day"`
	} `yaml:"scheduling"`

	Input struct {
		RequestsPath string `yaml:"requests_path"`
	} `yaml:"input"`

	Export struct {
		TextPath     string `yaml:"text_path"`
		XLSXPath     string `yaml:"xlsx_path"`
		AssignedOnly bool   `yaml:"assigned_only"`
	} `yaml:"export"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Registry.RoomsPath == "" {
		cfg.Registry.RoomsPath = "configs/rooms.yaml"
	}
	if cfg.Scheduling.MaxSessionsPerDay <= 0 {
		cfg.Scheduling.MaxSessionsPerDay = schedule.MaxSessionsPerDay
	}

	for _, out := range []string{cfg.Export.TextPath, cfg.Export.XLSXPath} {
		if out == "" {
			continue
		}
		if err = os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) WatchInterval() time.Duration {
	if c.Registry.WatchIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Registry.WatchIntervalSeconds) * time.Second
}
