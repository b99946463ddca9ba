package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port            int
	LogLevel        string
	LogFormat       string
	APIKey          string   // API key for authentication
	TreeConfigPath  string   // path to the recipe tree JSON
	PermissionsPath string   // path to role default overrides, optional
	StrictPrereqs   bool     // treat unknown prerequisite ids as unmet instead of satisfied
	DatabaseURL     string   // optional; empty means in-memory player storage
	TrustedProxies  []string // peers whose X-Forwarded-For is trusted
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		APIKey:          getEnv("API_KEY", ""),
		TreeConfigPath:  getEnv("TREE_CONFIG_PATH", ConfigPathRecipeTree),
		PermissionsPath: getEnv("PERMISSIONS_PATH", ConfigPathPermissions),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	strictStr := getEnv("STRICT_PREREQS", "false")
	strict, err := strconv.ParseBool(strictStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STRICT_PREREQS value: %w", err)
	}
	cfg.StrictPrereqs = strict

	if proxies := getEnv("TRUSTED_PROXIES", ""); proxies != "" {
		for _, p := range strings.Split(proxies, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, p)
			}
		}
	}

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
