// package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// database
	DatabasePath string

	// nats (optional, event publishing disabled when unreachable)
	NatsURL string

	// telegram
	TGApiID      int
	TGApiHash    string
	TGSessionStr string

	// translator
	TranslateBaseURL string
	TranslateModel   string
	TranslateAPIKey  string

	// scraping
	ChannelsFile string // optional yaml allowlist of channel usernames

	// server
	HTTPPort  int
	StaticDir string

	// logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:     getEnv("DATABASE_PATH", "./data/telegram_backup.db"),
		NatsURL:          getEnv("NATS_URL", ""),
		TGApiHash:        getEnv("TG_API_HASH", ""),
		TGSessionStr:     getEnv("TG_SESSION_STRING", ""),
		TGApiID:          getEnvInt("TG_API_ID", 0),
		TranslateBaseURL: getEnv("TRANSLATE_BASE_URL", ""),
		TranslateModel:   getEnv("TRANSLATE_MODEL", "gpt-4o-mini"),
		TranslateAPIKey:  getEnv("TRANSLATE_API_KEY", ""),
		ChannelsFile:     getEnv("CHANNELS_FILE", ""),
		HTTPPort:         getEnvInt("HTTP_PORT", 8000),
		StaticDir:        getEnv("STATIC_DIR", "./static"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
	}

	return cfg, nil
}

// ChannelList is an optional allowlist of channel usernames to ingest.
// An empty list means every broadcast channel visible to the account.
type ChannelList struct {
	Channels []string `yaml:"channels"`
}

// LoadChannelList reads a yaml allowlist file.
// Returns an empty list when path is empty.
func LoadChannelList(path string) (*ChannelList, error) {
	if path == "" {
		return &ChannelList{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}

	var list ChannelList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse channels file: %w", err)
	}

	return &list, nil
}

// Allows reports whether the given channel username passes the allowlist.
func (l *ChannelList) Allows(username string) bool {
	if len(l.Channels) == 0 {
		return true
	}
	for _, ch := range l.Channels {
		if ch == username {
			return true
		}
	}
	return false
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
