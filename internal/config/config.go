package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration is returned by Load when the service cannot start.
var ErrConfiguration = errors.New("configuration error")

// History backends.
const (
	HistoryFile     = "file"
	HistoryMemory   = "memory"
	HistoryPostgres = "postgres"
)

type AppConfig struct {
	WeatherAPIKey     string
	WeatherAPIBaseURL string

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration

	HistoryBackend    string
	HistoryFile       string
	HistoryMaxEntries int // memory backend only (0 = unlimited)
	DatabaseURL       string

	// Cities probed periodically for /health. Empty disables the probe.
	ProbeCities   []string
	ProbeInterval time.Duration

	CORSAllowOrigins string
	Port             string
}

// fileConfig mirrors AppConfig for the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	WeatherAPIKey     string   `yaml:"weather_api_key"`
	WeatherAPIBaseURL string   `yaml:"weather_api_base_url"`
	HTTPTimeout       string   `yaml:"http_timeout"`
	HistoryBackend    string   `yaml:"history_backend"`
	HistoryFile       string   `yaml:"history_file"`
	HistoryMaxEntries int      `yaml:"history_max_entries"`
	DatabaseURL       string   `yaml:"database_url"`
	ProbeCities       []string `yaml:"probe_cities"`
	ProbeInterval     string   `yaml:"probe_interval"`
	CORSAllowOrigins  string   `yaml:"cors_allow_origins"`
	Port              string   `yaml:"port"`
}

// Load reads configuration from an optional YAML file and the environment,
// environment winning, and fails fast on anything the service cannot run
// without.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	fc := fileConfig{
		WeatherAPIBaseURL: "https://api.openweathermap.org",
		HTTPTimeout:       "10s",
		HistoryBackend:    HistoryFile,
		HistoryFile:       "db/searchHistory.json",
		ProbeInterval:     "15m",
		CORSAllowOrigins:  "*",
		Port:              "8080",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read CONFIG_FILE: %v", ErrConfiguration, err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("%w: parse CONFIG_FILE: %v", ErrConfiguration, err)
		}
	}

	cfg := &AppConfig{
		WeatherAPIKey:     getenvDefault("WEATHER_API_KEY", fc.WeatherAPIKey),
		WeatherAPIBaseURL: getenvDefault("WEATHER_API_BASE_URL", fc.WeatherAPIBaseURL),
		HistoryBackend:    strings.ToLower(getenvDefault("HISTORY_BACKEND", fc.HistoryBackend)),
		HistoryFile:       getenvDefault("HISTORY_FILE", fc.HistoryFile),
		DatabaseURL:       getenvDefault("DATABASE_URL", fc.DatabaseURL),
		ProbeCities:       fc.ProbeCities,
		CORSAllowOrigins:  getenvDefault("CORS_ALLOW_ORIGINS", fc.CORSAllowOrigins),
		Port:              getenvDefault("PORT", fc.Port),
	}

	if v := os.Getenv("PROBE_CITIES"); v != "" {
		cfg.ProbeCities = splitList(v)
	}

	var err error
	if cfg.HistoryMaxEntries, err = getenvInt("HISTORY_MAX_ENTRIES", fc.HistoryMaxEntries); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", fc.HTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.ProbeInterval, err = getenvDuration("PROBE_INTERVAL", fc.ProbeInterval); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.WeatherAPIKey) == "" {
		return fmt.Errorf("%w: WEATHER_API_KEY is required", ErrConfiguration)
	}

	u, err := url.Parse(c.WeatherAPIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid WEATHER_API_BASE_URL %q", ErrConfiguration, c.WeatherAPIBaseURL)
	}

	if c.HistoryMaxEntries < 0 {
		return fmt.Errorf("%w: HISTORY_MAX_ENTRIES must not be negative", ErrConfiguration)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: HTTP_TIMEOUT must be positive", ErrConfiguration)
	}

	switch c.HistoryBackend {
	case HistoryFile:
		if c.HistoryFile == "" {
			return fmt.Errorf("%w: HISTORY_FILE is required for the file backend", ErrConfiguration)
		}
	case HistoryMemory:
	case HistoryPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres backend", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown HISTORY_BACKEND %q", ErrConfiguration, c.HistoryBackend)
	}

	if len(c.ProbeCities) > 0 && c.ProbeInterval < time.Minute {
		return fmt.Errorf("%w: PROBE_INTERVAL must be at least 1m", ErrConfiguration)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %v", ErrConfiguration, key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %v", ErrConfiguration, key, err)
	}
	return d, nil
}
