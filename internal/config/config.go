package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Token store backends
const (
	TokenStoreFile     = "file"
	TokenStoreSQLite   = "sqlite"
	TokenStoreRedis    = "redis"
	TokenStorePostgres = "postgres"
	TokenStoreMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	Environment   string
	LogJSON       bool
	ListenAddress string // Address of the local console server
	RoutesFile    string // Optional YAML route table; empty uses the built-in table
	CORS          CORSConfig
	API           APIConfig
	TokenStore    TokenStoreConfig
	Session       SessionConfig
}

// CORSConfig holds the browser origins allowed to call the console besides its own address
type CORSConfig struct {
	AllowedOrigins []string
}

// APIConfig holds remote backend configuration
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// TokenStoreConfig selects and configures the durable token slot
type TokenStoreConfig struct {
	Backend          string
	Path             string // directory for the file backend, database file for sqlite
	DSN              string // redis and postgres backends
	KeyPrefix        string // redis key prefix / postgres namespace
	EncryptionSecret string // file backend only; empty stores the token in plaintext
}

// SessionConfig holds session lifecycle configuration
type SessionConfig struct {
	ExpiryCheck string // cron spec for the expiry watcher; empty disables it
}

var (
	ErrUnknownTokenStore = errors.New("unknown TOKEN_STORE backend")
	ErrTokenStoreDSN     = errors.New("TOKEN_STORE_DSN is required for this backend")
)

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	environment := getEnv("APP_ENV", "production")

	// Default: JSON in production, text in development
	logJSON := environment != "development"
	if v := os.Getenv("LOG_JSON"); v != "" {
		logJSON = v == "true"
	}

	timeoutSec := 30
	if v := os.Getenv("API_TIMEOUT_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid API_TIMEOUT_SEC %q", v)
		}
		timeoutSec = n
	}

	backend := strings.ToLower(getEnv("TOKEN_STORE", TokenStoreFile))
	storePath := os.Getenv("TOKEN_STORE_PATH")
	if storePath == "" {
		storePath = defaultStorePath(backend)
	}

	cfg := &Config{
		Environment:   environment,
		LogJSON:       logJSON,
		ListenAddress: getEnv("CONSOLE_LISTEN_ADDRESS", "127.0.0.1:5173"),
		RoutesFile:    os.Getenv("ROUTES_FILE"),
		CORS: CORSConfig{
			AllowedOrigins: parseCommaSeparatedList(os.Getenv("CONSOLE_ALLOWED_ORIGINS")),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		TokenStore: TokenStoreConfig{
			Backend:          backend,
			Path:             storePath,
			DSN:              os.Getenv("TOKEN_STORE_DSN"),
			KeyPrefix:        getEnv("TOKEN_STORE_KEY_PREFIX", "wordtales"),
			EncryptionSecret: os.Getenv("TOKEN_ENCRYPTION_SECRET"),
		},
		Session: SessionConfig{
			ExpiryCheck: getEnvAllowEmpty("SESSION_EXPIRY_CHECK", "@every 30s"),
		},
	}

	if err := cfg.TokenStore.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c TokenStoreConfig) validate() error {
	switch c.Backend {
	case TokenStoreFile, TokenStoreSQLite, TokenStoreMemory:
		return nil
	case TokenStoreRedis, TokenStorePostgres:
		if c.DSN == "" {
			return fmt.Errorf("%w: %s", ErrTokenStoreDSN, c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTokenStore, c.Backend)
	}
}

// defaultStorePath places local token state under ~/.wordtales. The file backend keeps one
// file per slot inside that directory; sqlite uses a database file there.
func defaultStorePath(backend string) string {
	dir := ".wordtales"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".wordtales")
	}
	if backend == TokenStoreSQLite {
		return filepath.Join(dir, "session.db")
	}
	return dir
}

// parseCommaSeparatedList splits a comma-separated string into a slice, dropping empty items
// and trailing slashes
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return []string{}
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimRight(strings.TrimSpace(item), "/")
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty returns defaultValue only when key is unset, so an explicit empty value
// can switch a feature off.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}
