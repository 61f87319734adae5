package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"butler/cli/internal/global"
)

type Config struct {
	ConfigDir      string
	DBPath         string
	APIBaseURL     string
	LogLevel       string
	RequestTimeout time.Duration
	HistoryLimit   int
	PollAttempts   int
	PollInterval   time.Duration
	// FileErr is set when config.toml could not be read; defaults were used.
	FileErr error
}

var (
	cacheTTL   = 10 * time.Second
	nowFunc    = time.Now
	cacheMu    sync.RWMutex
	cachedCfg  Config
	cachedAt   time.Time
	cacheValid bool
)

// LoadConfig resolves env over config.toml over defaults.
func LoadConfig() Config {
	cfg := load()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = nowFunc()
	cacheValid = true
	cacheMu.Unlock()
	return cfg
}

func GetConfig() *Config {
	now := nowFunc()
	cacheMu.RLock()
	valid := cacheValid && now.Sub(cachedAt) < cacheTTL
	if valid {
		out := cachedCfg
		cacheMu.RUnlock()
		return &out
	}
	cacheMu.RUnlock()

	cfg := load()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = now
	cacheValid = true
	cacheMu.Unlock()

	out := cfg
	return &out
}

func load() Config {
	dir, err := global.DefaultConfigDir()
	if err != nil {
		dir = ".butler"
	}
	file, fileErr := global.NewConfigStore(dir).LoadOrInit()
	if fileErr != nil {
		file = global.ClientConfig{}
	}

	base := strings.TrimRight(strings.TrimSpace(os.Getenv("BUTLER_API_BASE_URL")), "/")
	if base == "" {
		base = file.APIBaseURL
	}
	if base == "" {
		base = global.DefaultAPIBaseURL
	}

	level := strings.TrimSpace(os.Getenv("BUTLER_LOG_LEVEL"))
	if level == "" {
		level = file.LogLevel
	}
	if level == "" {
		level = "info"
	}

	timeoutSeconds := atoiOrDefault(os.Getenv("BUTLER_REQUEST_TIMEOUT_SECONDS"), file.RequestTimeoutSeconds)
	if timeoutSeconds <= 0 {
		timeoutSeconds = global.DefaultRequestTimeoutSeconds
	}
	historyLimit := file.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = global.DefaultHistoryLimit
	}
	pollAttempts := atoiOrDefault(os.Getenv("BUTLER_POLL_ATTEMPTS"), file.Poll.Attempts)
	if pollAttempts <= 0 {
		pollAttempts = global.DefaultPollAttempts
	}
	pollIntervalMS := atoiOrDefault(os.Getenv("BUTLER_POLL_INTERVAL_MS"), file.Poll.IntervalMS)
	if pollIntervalMS <= 0 {
		pollIntervalMS = global.DefaultPollIntervalMS
	}

	return Config{
		ConfigDir:      dir,
		DBPath:         global.DatabasePath(dir),
		APIBaseURL:     base,
		LogLevel:       level,
		RequestTimeout: time.Duration(timeoutSeconds) * time.Second,
		HistoryLimit:   historyLimit,
		PollAttempts:   pollAttempts,
		PollInterval:   time.Duration(pollIntervalMS) * time.Millisecond,
		FileErr:        fileErr,
	}
}

func atoiOrDefault(v string, fallback int) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	n := 0
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fallback
		}
		n = n*10 + int(v[i]-'0')
	}
	if n == 0 {
		return fallback
	}
	return n
}
