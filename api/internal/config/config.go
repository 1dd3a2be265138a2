package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
	"github.com/adscale/pricecrypt/api/internal/infrastructure/crypto"
)

// Config holds all dynamic configuration for the price service.
type Config struct {
	Environment    string // "development" or "production"
	DatabaseURL    string // empty: alerts are only logged
	Port           string
	AllowedOrigins []string

	// Service token signing secret.
	JWTSecret string

	RateLimitRPS   float64
	RateLimitBurst int

	// Base64 key text as supplied by the operator.
	ExternalEncryptionKey string
	ExternalIntegrityKey  string
	InternalEncryptionKey string
	InternalIntegrityKey  string
}

// Load reads an optional .env file, then the environment, and applies
// fallbacks. Keys are mandatory in every environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	env := getEnv("PRICECRYPT_ENV", "production")

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" && env == "production" {
		return nil, errors.New("config: JWT_SECRET is required in production")
	}

	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "")
	if corsOrigins == "" && env != "production" {
		corsOrigins = "http://localhost:5173"
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "50"), 64)
	if err != nil || rps <= 0 {
		return nil, errors.New("config: RATE_LIMIT_RPS must be a positive number")
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "100"))
	if err != nil || burst <= 0 {
		return nil, errors.New("config: RATE_LIMIT_BURST must be a positive integer")
	}

	cfg := &Config{
		Environment:    env,
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitOrigins(corsOrigins),
		JWTSecret:      jwtSecret,
		RateLimitRPS:   rps,
		RateLimitBurst: burst,

		ExternalEncryptionKey: getEnv("EXTERNAL_ENCRYPTION_KEY", ""),
		ExternalIntegrityKey:  getEnv("EXTERNAL_INTEGRITY_KEY", ""),
		InternalEncryptionKey: getEnv("INTERNAL_ENCRYPTION_KEY", ""),
		InternalIntegrityKey:  getEnv("INTERNAL_INTEGRITY_KEY", ""),
	}

	for name, value := range map[string]string{
		"EXTERNAL_ENCRYPTION_KEY": cfg.ExternalEncryptionKey,
		"EXTERNAL_INTEGRITY_KEY":  cfg.ExternalIntegrityKey,
		"INTERNAL_ENCRYPTION_KEY": cfg.InternalEncryptionKey,
		"INTERNAL_INTEGRITY_KEY":  cfg.InternalIntegrityKey,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("config: %s is required", name)
		}
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// KeyMaterial decodes the external and internal key pairs.
func (c *Config) KeyMaterial() (external, internal domain.KeyMaterial, err error) {
	if external, err = decodePair(c.ExternalEncryptionKey, c.ExternalIntegrityKey); err != nil {
		return external, internal, fmt.Errorf("config: external keys: %w", err)
	}
	if internal, err = decodePair(c.InternalEncryptionKey, c.InternalIntegrityKey); err != nil {
		return external, internal, fmt.Errorf("config: internal keys: %w", err)
	}
	return external, internal, nil
}

// Keyring decodes both key pairs and builds the process-wide keyring.
func (c *Config) Keyring() (*crypto.Keyring, error) {
	external, internal, err := c.KeyMaterial()
	if err != nil {
		return nil, err
	}
	return crypto.NewKeyring(external, internal)
}

func decodePair(encText, intText string) (domain.KeyMaterial, error) {
	enc, err := crypto.DecodeKey(encText)
	if err != nil {
		return domain.KeyMaterial{}, fmt.Errorf("encryption key: %w", err)
	}
	integrity, err := crypto.DecodeKey(intText)
	if err != nil {
		return domain.KeyMaterial{}, fmt.Errorf("integrity key: %w", err)
	}
	return domain.KeyMaterial{EncryptionKey: enc, IntegrityKey: integrity}, nil
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
