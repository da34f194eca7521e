// Package config provides configuration for the application.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	// ErrDBUriNotSetInProduction is returned when DB_URI is not set in production. We need this to prevent accidental
	// production deployments without a database.
	ErrDBUriNotSetInProduction = errors.New("DB_URI must be set in production")
	// ErrUnknownStorage is returned when QUIZ_STORAGE names a storage the server does not support.
	ErrUnknownStorage = errors.New("unknown QUIZ_STORAGE")
	// ErrUnknownBackend is returned when QUIZ_BACKEND names a backend the client does not support.
	ErrUnknownBackend = errors.New("unknown QUIZ_BACKEND")
)

const (
	// AppEnvironmentDefault is the default application environment.
	AppEnvironmentDefault = "development"
	// AppEnvironmentProduction is the production application environment.
	AppEnvironmentProduction = "production"
	// HostDefault is the default host to listen on. Can be an IP address or hostname.
	HostDefault = "localhost"
	// PortDefault is the default port to listen on.
	PortDefault = "5000"

	// StorageSQLite persists quizzes in SQLite.
	StorageSQLite = "sqlite"
	// StorageMock serves quizzes from the in-memory mock dataset.
	StorageMock = "mock"
	// StorageDefault is the default server storage.
	StorageDefault = StorageSQLite

	// BackendRemote talks to the quiz API over HTTP.
	BackendRemote = "remote"
	// BackendMock uses the in-memory mock dataset with simulated latency.
	BackendMock = "mock"
	// BackendDefault is the default client backend.
	BackendDefault = BackendMock

	// APIBaseURLDefault is the default base URL of the quiz API.
	APIBaseURLDefault = "http://127.0.0.1:5000"

	// DBDriverDefault is the default database driver. Currently, only sqlite is supported.
	DBDriverDefault = "sqlite"
	// DBURIDefault is the default database URI. Default is quizai.sqlite in the current directory.
	DBURIDefault = "file:quizai.sqlite?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	// DBMaxOpenConnsDefault is the default maximum number of open database connections.
	DBMaxOpenConnsDefault = 10
	// DBMaxIdleConnsDefault is the default maximum number of idle database connections.
	DBMaxIdleConnsDefault = 10
	// DBConnMaxLifetimeDefault is the default maximum lifetime of a database connection.
	DBConnMaxLifetimeDefault = 5 * time.Minute
)

// Config represents the application configuration.
type Config struct {
	AppEnvironment string     `env:"APP_ENV"`
	LogLevel       slog.Level `env:"LOG_LEVEL"`

	Host string `env:"HOST"`
	Port string `env:"PORT"`

	// Storage is where the server keeps quizzes.
	Storage string `env:"QUIZ_STORAGE"`
	// Backend is what quizctl talks to.
	Backend string `env:"QUIZ_BACKEND"`

	APIBaseURL string `env:"API_BASE_URL"`
	// APITimeout is zero for no timeout beyond the transport's.
	APITimeout time.Duration `env:"API_TIMEOUT"`

	MockLatency bool   `env:"MOCK_LATENCY"`
	MockFixture string `env:"MOCK_FIXTURE"`

	DBDriver string `env:"DB_DRIVER"`
	DBURI    string `env:"DB_URI"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME"`
}

// Parse parses environment variables into the config. Empty values count as unset.
func Parse(getenv func(string) string) (*Config, error) {
	c := Config{
		AppEnvironment:    AppEnvironmentDefault,
		LogLevel:          slog.LevelInfo,
		Host:              HostDefault,
		Port:              PortDefault,
		Storage:           StorageDefault,
		Backend:           BackendDefault,
		APIBaseURL:        APIBaseURLDefault,
		MockLatency:       true,
		DBDriver:          DBDriverDefault,
		DBURI:             DBURIDefault,
		DBMaxOpenConns:    DBMaxOpenConnsDefault,
		DBMaxIdleConns:    DBMaxIdleConnsDefault,
		DBConnMaxLifetime: DBConnMaxLifetimeDefault,
	}

	environ, err := lookupEnv(&c, getenv)
	if err != nil {
		return nil, err
	}

	// Overwrite defaults with environment variables.
	if err = env.ParseWithOptions(&c, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	switch c.Storage {
	case StorageSQLite, StorageMock:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage)
	}

	switch c.Backend {
	case BackendRemote, BackendMock:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}

	// Mandatory fields
	if c.IsProduction() && c.Storage == StorageSQLite && getenv("DB_URI") == "" {
		return nil, ErrDBUriNotSetInProduction
	}

	return &c, nil
}

// IsProduction reports whether the application runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnvironment == AppEnvironmentProduction
}

// Addr returns the host:port address to listen on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// lookupEnv collects the non-empty values of the variables c declares.
func lookupEnv(c *Config, getenv func(string) string) (map[string]string, error) {
	params, err := env.GetFieldParams(c)
	if err != nil {
		return nil, fmt.Errorf("error reading config fields: %w", err)
	}

	environ := make(map[string]string, len(params))
	for _, p := range params {
		if val := getenv(p.Key); val != "" {
			environ[p.Key] = val
		}
	}

	return environ, nil
}
