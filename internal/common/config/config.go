// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Server   ServerConfig            `mapstructure:"server"`
	Browser  BrowserConfig           `mapstructure:"browser"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Fallback FallbackConfig          `mapstructure:"fallback"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP front door settings.
type ServerConfig struct {
	Address         string         `mapstructure:"address"`
	UniversityPorts map[string]int `mapstructure:"university_ports"`
	RequestTimeout  int            `mapstructure:"request_timeout"`  // milliseconds
	ShutdownTimeout int            `mapstructure:"shutdown_timeout"` // milliseconds
}

// BrowserConfig drives the playwright sessions.
type BrowserConfig struct {
	Headless          bool     `mapstructure:"headless"`
	ExecutablePath    string   `mapstructure:"executable_path"`
	InstallBrowsers   bool     `mapstructure:"install_browsers"`
	Args              []string `mapstructure:"args"`
	NavigationTimeout int      `mapstructure:"navigation_timeout"` // milliseconds
	PresenceTimeout   int      `mapstructure:"presence_timeout"`   // milliseconds, per locator attempt
	OptionalTimeout   int      `mapstructure:"optional_timeout"`   // milliseconds, optional targets
	StabilityTimeout  int      `mapstructure:"stability_timeout"`  // milliseconds
	SettleTimeout     int      `mapstructure:"settle_timeout"`     // milliseconds, document ready wait
	DialogTimeout     int      `mapstructure:"dialog_timeout"`     // milliseconds, native alert wait
	TypingDelay       int      `mapstructure:"typing_delay"`       // milliseconds between paced keystrokes
	LocatorAttempts   int      `mapstructure:"locator_attempts"`
	ViewportWidth     int      `mapstructure:"viewport_width"`
	ViewportHeight    int      `mapstructure:"viewport_height"`
}

// CacheConfig controls the degraded-mode verdict cache.
type CacheConfig struct {
	Directory string `mapstructure:"directory"`
	RedisTTL  int    `mapstructure:"redis_ttl"` // seconds, 0 keeps entries forever
	KeyPrefix string `mapstructure:"key_prefix"`
}

// FallbackConfig holds the heuristic tier cutoffs on the psychometric total.
type FallbackConfig struct {
	Enabled bool                `mapstructure:"enabled"`
	Tiers   map[string]TierSpec `mapstructure:"tiers"`
}

// TierSpec is one demand tier of the heuristic estimator.
type TierSpec struct {
	Cutoff  int      `mapstructure:"cutoff"`
	Degrees []string `mapstructure:"degrees"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
