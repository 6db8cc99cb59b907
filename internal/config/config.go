// Package config loads client settings from the environment (.env supported
// via godotenv) and holds the tunables shared by the chat subsystem.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the CLI and SDK need to talk to the backend.
type Config struct {
	// BaseURL is the REST API root, e.g. "http://localhost:8080/api".
	BaseURL string
	// WSBaseURL is the websocket root, derived from BaseURL when empty.
	WSBaseURL string
	// Token is the bearer token obtained from the login endpoint.
	Token string
	// YandexAPIKey authorises geocoder calls.
	YandexAPIKey string
	// Locale selects CLI strings ("ru" by default).
	Locale string
	// LogLevel is a zerolog level name ("debug", "info", ...).
	LogLevel string
}

// Load reads the configuration from CURS_* environment variables.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	// .env отсутствует в проде — это не ошибка
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:      getenv("CURS_API_URL", "http://localhost:8080/api"),
		WSBaseURL:    os.Getenv("CURS_WS_URL"),
		Token:        os.Getenv("CURS_TOKEN"),
		YandexAPIKey: os.Getenv("CURS_YANDEX_API_KEY"),
		Locale:       getenv("CURS_LOCALE", "ru"),
		LogLevel:     getenv("CURS_LOG_LEVEL", "info"),
	}

	if cfg.WSBaseURL == "" {
		ws, err := deriveWSURL(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("config: cannot derive websocket URL: %w", err)
		}
		cfg.WSBaseURL = ws
	}

	return cfg, nil
}

// deriveWSURL turns the API root into the websocket root on the same host:
// "https://host/api" -> "wss://host".
func deriveWSURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = ""
	return strings.TrimSuffix(u.String(), "/"), nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
