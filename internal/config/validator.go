package config

import "fmt"

const minAPIKeyLength = 16

// Warnings returns non-fatal configuration concerns worth surfacing at
// startup. Fatal problems are rejected by Load directly.
func (c *Config) Warnings() []string {
	var warnings []string

	switch {
	case c.APIKey == "changeme" || c.APIKey == "generate_with_openssl_rand_hex_32":
		warnings = append(warnings, "API_KEY appears to be a placeholder - generate a secure key with: openssl rand -hex 32")
	case len(c.APIKey) < minAPIKeyLength:
		warnings = append(warnings, fmt.Sprintf("API_KEY is shorter than %d characters", minAPIKeyLength))
	}

	if c.DatabaseURL == "" {
		warnings = append(warnings, "DATABASE_URL not set - player progression will not survive restarts")
	}

	return warnings
}
