package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Port int
	}
	Database struct {
		Driver       string
		Path         string
		Host         string
		Port         int
		User         string
		Password     string
		Name         string
		MaxOpenConns int
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
		RequireToken    bool
		BcryptCost      int
	}
	Storage struct {
		Bucket        string
		KeyPrefix     string
		Region        string
		Endpoint      string
		URLTTLMinutes int
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level  string
		Format string
	}
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Server.Port)
}

// env maps config keys to the flat environment variable names the service recognizes.
var env = map[string]string{
	"server.port":           "PORT",
	"database.driver":       "DB_DRIVER",
	"database.path":         "DB_PATH",
	"database.host":         "DB_HOST",
	"database.port":         "DB_PORT",
	"database.user":         "DB_USER",
	"database.password":     "DB_PASSWORD",
	"database.name":         "DB_NAME",
	"database.maxopenconns": "DB_MAX_OPEN_CONNS",
	"auth.jwtsecret":        "AUTH_JWT_SECRET",
	"auth.tokenttlminutes":  "AUTH_TOKEN_TTL_MINUTES",
	"auth.requiretoken":     "AUTH_REQUIRE_TOKEN",
	"auth.bcryptcost":       "AUTH_BCRYPT_COST",
	"storage.bucket":        "STORAGE_BUCKET",
	"storage.keyprefix":     "STORAGE_KEY_PREFIX",
	"storage.region":        "STORAGE_REGION",
	"storage.endpoint":      "STORAGE_ENDPOINT",
	"storage.urlttlminutes": "EXPORT_URL_TTL_MINUTES",
	"aws.profile":           "AWS_PROFILE",
	"log.level":             "LOG_LEVEL",
	"log.format":            "LOG_FORMAT",
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// .env is optional; values already present in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", name, err)
		}
	}

	v.SetDefault("server.port", 5000)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/expense_tracker.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "expense_tracker")
	v.SetDefault("database.maxopenconns", 10)
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 24*60)
	v.SetDefault("auth.requiretoken", false)
	v.SetDefault("auth.bcryptcost", 12)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "expense-exports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.urlttlminutes", 15)
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return fmt.Errorf("auth token ttl must be positive")
	}
	return nil
}
