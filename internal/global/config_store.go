package global

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	configTOMLFileName = "config.toml"

	DefaultAPIBaseURL            = "http://127.0.0.1:5000/api"
	DefaultRequestTimeoutSeconds = 30
	DefaultPollAttempts          = 10
	DefaultPollIntervalMS        = 2000
	DefaultHistoryLimit          = 20
)

type PollConfig struct {
	Attempts   int `json:"attempts" toml:"attempts"`
	IntervalMS int `json:"interval_ms" toml:"interval_ms"`
}

type ClientConfig struct {
	APIBaseURL            string     `json:"api_base_url" toml:"api_base_url"`
	RequestTimeoutSeconds int        `json:"request_timeout_seconds" toml:"request_timeout_seconds"`
	LogLevel              string     `json:"log_level" toml:"log_level"`
	HistoryLimit          int        `json:"history_limit" toml:"history_limit"`
	Poll                  PollConfig `json:"poll" toml:"poll"`
}

type ConfigStore struct {
	dir string
}

func NewConfigStore(dir string) *ConfigStore {
	return &ConfigStore{dir: dir}
}

func (s *ConfigStore) Path() string {
	return filepath.Join(s.dir, configTOMLFileName)
}

// LoadOrInit reads config.toml, writing one with defaults when it is missing.
func (s *ConfigStore) LoadOrInit() (ClientConfig, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return ClientConfig{}, err
	}

	path := s.Path()
	if b, err := os.ReadFile(path); err == nil {
		var cfg ClientConfig
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return ClientConfig{}, err
		}
		return normalizeConfig(cfg), nil
	} else if !os.IsNotExist(err) {
		return ClientConfig{}, err
	}

	cfg := normalizeConfig(ClientConfig{})
	if err := writeTOMLAtomically(path, cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func (s *ConfigStore) Save(cfg ClientConfig) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return writeTOMLAtomically(s.Path(), normalizeConfig(cfg))
}

func normalizeConfig(cfg ClientConfig) ClientConfig {
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		cfg.LogLevel = "info"
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.Poll.Attempts <= 0 {
		cfg.Poll.Attempts = DefaultPollAttempts
	}
	if cfg.Poll.IntervalMS <= 0 {
		cfg.Poll.IntervalMS = DefaultPollIntervalMS
	}
	return cfg
}

func writeTOMLAtomically(path string, v any) error {
	b, err := toml.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
