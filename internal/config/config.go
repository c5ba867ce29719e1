// Package config provides configuration for the workforce simulator.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the simulator configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Content generation
	LiteLLMURL    string
	LiteLLMAPIKey string
	LLMModel      string
	LLMTimeout    time.Duration

	// Directory (identity) settings
	TenantID          string
	AppID             string
	ClientSecret      string
	GraphBaseURL      string
	GraphAuthorityURL string
	WorkerDomain      string

	// Scheduling
	CycleInterval     time.Duration
	DisplayNamePrefix string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:          getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:       getEnv("DATABASE_URL", "file:workforce.db?cache=shared&mode=rwc"),
		LiteLLMURL:        getEnv("LITELLM_URL", ""),
		LiteLLMAPIKey:     getEnv("LITELLM_API_KEY", ""),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:        time.Duration(getEnvInt("LLM_TIMEOUT_MS", 30000)) * time.Millisecond,
		TenantID:          getEnv("KW_TENANT_ID", ""),
		AppID:             getEnv("KW_APP_ID", ""),
		ClientSecret:      getEnv("KW_CLIENT_SECRET", ""),
		GraphBaseURL:      getEnv("GRAPH_BASE_URL", ""),
		GraphAuthorityURL: getEnv("GRAPH_AUTHORITY_URL", ""),
		WorkerDomain:      getEnv("WORKER_DOMAIN", ""),
		CycleInterval:     time.Duration(getEnvInt("CYCLE_INTERVAL_MS", 60000)) * time.Millisecond,
		DisplayNamePrefix: getEnv("DISPLAY_NAME_PREFIX", "Workforce"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
