package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lightbnb/lightbnb/internal/database"
	"github.com/lightbnb/lightbnb/internal/logging"
	"github.com/lightbnb/lightbnb/pkg/lightbnb"
	"github.com/lightbnb/lightbnb/pkg/lightbnb/repo/memory"
	repopg "github.com/lightbnb/lightbnb/pkg/lightbnb/repo/postgres"
	"github.com/lightbnb/lightbnb/pkg/lightbnb/seed"
)

// DevelopmentJWTSecret is the signing secret used when none is configured.
// It is rejected in production.
const DevelopmentJWTSecret = "lightbnb-development-secret"

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		DefaultLimit: lightbnb.DefaultLimit,
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "vagrant",
			Password: "123",
			Name:     "lightbnb",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			JWTSecret:        DevelopmentJWTSecret,
			TokenTTL:         24 * time.Hour,
			LoginRateLimit:   10,
			LoginRateWindow:  time.Minute,
			PasswordHashCost: 10,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		CORSAllowedOrigins: []string{"*"},
	}
}

// ServerConfig represents server configuration for the LightBnB service.
// Field tags name the environment variables read by WithEnv.
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080" validate:"required,numeric"`
	Environment string `env:"ENVIRONMENT" env-default:"development" validate:"oneof=development production testing"`

	// Database configuration
	DatabaseType string `env:"DATABASE_TYPE" env-default:"memory" validate:"oneof=memory postgres"`
	DatabaseURL  string `env:"DATABASE_URL"`
	Database     DatabaseConfig

	DefaultLimit int `env:"DEFAULT_LIMIT" env-default:"10" validate:"gt=0"`

	Log  LogConfig
	Auth AuthConfig

	// Seed data for the memory database
	SeedURL string `env:"SEED_URL"`
	S3      S3Config

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:"," validate:"min=1"`
}

// DatabaseConfig holds discrete PostgreSQL connection settings. They are used
// when DatabaseURL is empty.
type DatabaseConfig struct {
	Host     string `env:"PGHOST" env-default:"localhost" validate:"required"`
	Port     uint16 `env:"PGPORT" env-default:"5432" validate:"required"`
	User     string `env:"PGUSER" env-default:"vagrant" validate:"required"`
	Password string `env:"PGPASSWORD" env-default:"123"`
	Name     string `env:"PGDATABASE" env-default:"lightbnb" validate:"required"`
	SSLMode  string `env:"PGSSLMODE" env-default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `env:"PG_MAX_CONNS" env-default:"10" validate:"gt=0"`
}

// LogConfig controls logging output
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `env:"LOG_FORMAT" env-default:"json" validate:"oneof=json console"`
}

// AuthConfig controls session tokens and login throttling
type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET" env-default:"lightbnb-development-secret" validate:"required"`
	TokenTTL         time.Duration `env:"JWT_TTL" env-default:"24h" validate:"gt=0"`
	LoginRateLimit   int           `env:"LOGIN_RATE_LIMIT" env-default:"10" validate:"gt=0"`
	LoginRateWindow  time.Duration `env:"LOGIN_RATE_WINDOW" env-default:"1m" validate:"gt=0"`
	PasswordHashCost int           `env:"PASSWORD_HASH_COST" env-default:"10" validate:"min=4,max=31"`
}

// S3Config holds credentials for s3:// seed URLs
type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
}

var validate = validator.New()

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Environment == "production" && c.Auth.JWTSecret == DevelopmentJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}

	if c.SeedURL != "" && c.DatabaseType != "memory" {
		return errors.New("seed_url is only supported with the memory database")
	}

	if c.DatabaseURL != "" {
		u, err := url.Parse(c.DatabaseURL)
		if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			return fmt.Errorf("unsupported DATABASE_URL format (use 'postgres://...')")
		}
	}

	return nil
}

// ConnString returns DatabaseURL, or a URL built from Database when it is empty.
func (c *ServerConfig) ConnString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.Database.URL()
}

// URL renders the settings as a postgres:// connection string.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(int(d.Port))),
		Path:   d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{d.SSLMode}}.Encode()
	}
	return u.String()
}

// LoggingConfig converts LogConfig for the logging package.
func (c *ServerConfig) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = c.Log.Format
	return cfg
}

// BuildService creates a Service instance from the server configuration.
// The returned cleanup function releases the database pool, if any.
func (c *ServerConfig) BuildService(ctx context.Context, options ...lightbnb.Option) (lightbnb.Service, func(), error) {
	repo, cleanup, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	opts := []lightbnb.Option{
		lightbnb.WithRepository(repo),
		lightbnb.WithDefaultLimit(c.DefaultLimit),
		lightbnb.WithPasswordCost(c.Auth.PasswordHashCost),
		lightbnb.WithLogger(logging.With("lightbnb")),
	}
	svc, err := lightbnb.New(append(opts, options...)...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return svc, cleanup, nil
}

// BuildRepository creates a Repository based on the configuration
func (c *ServerConfig) BuildRepository(ctx context.Context) (lightbnb.Repository, func(), error) {
	switch c.DatabaseType {
	case "memory":
		repo := memory.New()
		if c.SeedURL != "" {
			src, err := seed.OpenSource(ctx, c.SeedURL, c.seedS3Config())
			if err != nil {
				return nil, nil, err
			}
			if err := seed.LoadInto(ctx, src, repo); err != nil {
				return nil, nil, fmt.Errorf("failed to load seed data: %w", err)
			}
		}
		return repo, func() {}, nil
	case "postgres":
		db, err := database.New(ctx, database.Config{
			URL:      c.ConnString(),
			MaxConns: c.Database.MaxConns,
			LogLevel: logging.ParseLevel(c.Log.Level),
		}, logging.With("database"))
		if err != nil {
			return nil, nil, err
		}
		return repopg.NewWithPool(db.Pool), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) seedS3Config() seed.S3Config {
	return seed.S3Config{
		Region:          c.S3.Region,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
		Endpoint:        c.S3.Endpoint,
		UsePathStyle:    c.S3.UsePathStyle,
	}
}
