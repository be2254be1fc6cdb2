package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("SHELFMARK_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("SHELFMARK_JWT_ISSUER")
	if issuer == "" {
		issuer = "shelfmark"
	}

	dur := 24 * time.Hour
	if ttl := os.Getenv("SHELFMARK_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			dur = time.Duration(h) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: dur,
	}
}

// ServerConfig is the YAML-file side of configuration: listen address,
// CORS origins for the dev SPA, and the admin fallback allow-list. The
// allow-list is the second tier of role resolution: a user with no role
// record is admin iff their id or email appears here.
type ServerConfig struct {
	Mode        string   `yaml:"mode"` // "dev" | "release"
	Addr        string   `yaml:"addr"`
	DBPath      string   `yaml:"db_path"`
	CORSOrigins []string `yaml:"cors_origins"`
	AdminIDs    []string `yaml:"admin_ids"`
	AdminEmails []string `yaml:"admin_emails"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Mode:        "dev",
		Addr:        ":8080",
		CORSOrigins: []string{"http://localhost:3000"},
	}
}

// LoadServerConfig reads config/config.yaml if present, else returns dev
// defaults. SHELFMARK_CONFIG overrides the path.
func LoadServerConfig() (ServerConfig, error) {
	path := os.Getenv("SHELFMARK_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}

	cfg := defaultServerConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Mode != "dev" && cfg.Mode != "release" {
		return cfg, fmt.Errorf("config mode must be dev or release, got %q", cfg.Mode)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return cfg, nil
}

// EnrichConfig controls the Open Library batch jobs: politeness delay
// between books and the per-run book cap.
type EnrichConfig struct {
	Delay    time.Duration
	MaxBooks int
}

func LoadEnrichConfig(defaultDelayMS int) EnrichConfig {
	delay := defaultDelayMS
	if v := os.Getenv("OPENLIB_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			delay = n
		}
	}

	maxBooks := 500
	if v := os.Getenv("OPENLIB_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxBooks = n
		}
	}

	return EnrichConfig{
		Delay:    time.Duration(delay) * time.Millisecond,
		MaxBooks: maxBooks,
	}
}
