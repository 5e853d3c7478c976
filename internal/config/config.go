package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Database. Optional: when empty, receipts and notes are not archived
	// and listings are unavailable.
	DatabaseURL string

	// Auth0. Optional: when empty, JWT authentication is disabled and
	// only API keys are accepted.
	Auth0Domain   string
	Auth0Audience string

	// Ledger genesis state
	Ledger LedgerConfig

	// Credentials mapped onto ledger identities
	WriterAPIKey     string
	AdminAPIKey      string
	OperatorSubjects map[string]domain.Address
}

// LedgerConfig holds the ledger's genesis roles and fee policy
type LedgerConfig struct {
	Owner        domain.Address
	Writer       domain.Address
	FeeRecipient domain.Address
	Custody      domain.Address
	FeeRateBps   uint16

	// WonUnitMultiplier converts KRW amounts into base units.
	WonUnitMultiplier int64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:           getEnv("ENV", "development"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		WriterAPIKey:  getEnv("WRITER_API_KEY", ""),
		AdminAPIKey:   getEnv("ADMIN_API_KEY", ""),
	}

	var err error
	if cfg.Ledger.Owner, err = requireAddress("LEDGER_ADMIN"); err != nil {
		return nil, err
	}
	if cfg.Ledger.Writer, err = requireAddress("LEDGER_WRITER"); err != nil {
		return nil, err
	}
	if cfg.Ledger.FeeRecipient, err = requireAddress("FEE_RECIPIENT"); err != nil {
		return nil, err
	}

	// Custody defaults to the administrator account.
	if raw := getEnv("CUSTODY_ADDRESS", ""); raw != "" {
		if cfg.Ledger.Custody, err = domain.ParseAddress(raw); err != nil {
			return nil, fmt.Errorf("CUSTODY_ADDRESS is not a valid address")
		}
	} else {
		cfg.Ledger.Custody = cfg.Ledger.Owner
	}

	feeBps, err := strconv.ParseUint(getEnv("FEE_BPS", "0"), 10, 16)
	if err != nil || feeBps > domain.MaxFeeBps {
		return nil, fmt.Errorf("FEE_BPS must be an integer between 0 and %d", domain.MaxFeeBps)
	}
	cfg.Ledger.FeeRateBps = uint16(feeBps)

	multiplier, err := strconv.ParseInt(getEnv("WON_UNIT_MULTIPLIER", "1000000000"), 10, 64)
	if err != nil || multiplier <= 0 {
		return nil, fmt.Errorf("WON_UNIT_MULTIPLIER must be a positive integer")
	}
	cfg.Ledger.WonUnitMultiplier = multiplier

	if cfg.OperatorSubjects, err = parseSubjects(getEnv("OPERATOR_SUBJECTS", "")); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.WriterAPIKey == "" && c.AdminAPIKey == "" && c.Auth0Domain == "" {
		return fmt.Errorf("at least one of WRITER_API_KEY, ADMIN_API_KEY or AUTH0_DOMAIN is required")
	}
	// Dual auth routes credentials by the key prefix; an unprefixed key
	// would never reach key authentication.
	if c.WriterAPIKey != "" && !strings.HasPrefix(c.WriterAPIKey, domain.APIKeyPrefix) {
		return fmt.Errorf("WRITER_API_KEY must start with %q", domain.APIKeyPrefix)
	}
	if c.AdminAPIKey != "" && !strings.HasPrefix(c.AdminAPIKey, domain.APIKeyPrefix) {
		return fmt.Errorf("ADMIN_API_KEY must start with %q", domain.APIKeyPrefix)
	}
	if c.Auth0Domain != "" && c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required when AUTH0_DOMAIN is set")
	}
	return nil
}

// parseSubjects parses "subject=address" pairs separated by commas, e.g.
// "auth0|abc123=0x1111...,google-oauth2|def=0x2222..."
func parseSubjects(raw string) (map[string]domain.Address, error) {
	subjects := make(map[string]domain.Address)
	if raw == "" {
		return subjects, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.LastIndex(pair, "=")
		if idx <= 0 || idx == len(pair)-1 {
			return nil, fmt.Errorf("OPERATOR_SUBJECTS entry %q is not subject=address", pair)
		}
		addr, err := domain.ParseAddress(pair[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("OPERATOR_SUBJECTS entry %q has an invalid address", pair)
		}
		subjects[pair[:idx]] = addr
	}
	return subjects, nil
}

func requireAddress(key string) (domain.Address, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return domain.ZeroAddress, fmt.Errorf("%s is required", key)
	}
	addr, err := domain.ParseAddress(raw)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("%s is not a valid address", key)
	}
	return addr, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
