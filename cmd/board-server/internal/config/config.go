// Package config provides configuration management for the board server.
// Settings come from an optional YAML file and BOARD_* environment
// variables, with sensible defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable, e.g.
// BOARD_SERVER_PORT or BOARD_DATABASE_DRIVER.
const EnvPrefix = "BOARD"

// Config holds all configuration for the board server.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Hub      HubConfig      `mapstructure:"hub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Board    BoardConfig    `mapstructure:"board"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres, sqlite3
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"` // database name, or file path for sqlite3
	Prefix       string `mapstructure:"prefix"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// HubConfig holds notification hub configuration.
type HubConfig struct {
	SendBuffer      int           `mapstructure:"send_buffer"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	LogBroadcasts   bool          `mapstructure:"log_broadcasts"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// BoardConfig holds domain behavior switches.
type BoardConfig struct {
	// ReferenceCheck looks referenced rows up before writing instead of
	// relying on foreign keys alone.
	ReferenceCheck bool `mapstructure:"reference_check"`

	// CommentRate and CommentBurst limit comment submissions per user.
	// A zero rate disables limiting.
	CommentRate  float64 `mapstructure:"comment_rate"`
	CommentBurst int     `mapstructure:"comment_burst"`
}

// Load reads configuration from configPath (if not empty) or from
// ./board.yaml / /etc/board/board.yaml when present, then from the
// environment. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("board")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/board")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	if cfg.Database.Driver == "postgresql" {
		cfg.Database.Driver = "postgres"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
// Every key needs a default for AutomaticEnv to pick up its variable.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", "board")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "board.db")
	v.SetDefault("database.prefix", "board_")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("hub.send_buffer", 64)
	v.SetDefault("hub.delivery_timeout", 10*time.Second)
	v.SetDefault("hub.ping_interval", 30*time.Second)
	v.SetDefault("hub.log_broadcasts", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("board.reference_check", false)
	v.SetDefault("board.comment_rate", 1.0)
	v.SetDefault("board.comment_burst", 5)
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	return validation.Errors{
		"server":   c.Server.validate(),
		"database": c.Database.validate(),
		"hub":      c.Hub.validate(),
		"logging":  c.Logging.validate(),
		"board":    c.Board.validate(),
	}.Filter()
}

func (s ServerConfig) validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.ReadTimeout, validation.Required),
		validation.Field(&s.WriteTimeout, validation.Required),
	)
}

func (d DatabaseConfig) validate() error {
	networked := d.Driver == "mysql" || d.Driver == "postgres"
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In("mysql", "postgres", "sqlite3")),
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Host, validation.When(networked, validation.Required)),
		validation.Field(&d.User, validation.When(networked, validation.Required)),
		validation.Field(&d.Password, validation.When(networked, validation.Required.Error("is required for mysql and postgres"))),
		validation.Field(&d.MaxOpenConns, validation.Min(0)),
	)
}

func (h HubConfig) validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.SendBuffer, validation.Required, validation.Min(1)),
		validation.Field(&h.DeliveryTimeout, validation.Required),
		validation.Field(&h.PingInterval, validation.Required),
	)
}

func (l LoggingConfig) validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("console", "json")),
	)
}

func (b BoardConfig) validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.CommentRate, validation.Min(0.0)),
		validation.Field(&b.CommentBurst, validation.When(b.CommentRate > 0, validation.Required, validation.Min(1))),
	)
}

// GetDSN returns the database connection string based on driver.
func (c *DatabaseConfig) GetDSN() string {
	switch c.Driver {
	case "mysql":
		port := c.Port
		if port == 0 {
			port = 3306
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, port, c.Name)
	case "postgres":
		port := c.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, port, c.User, c.Password, c.Name)
	case "sqlite3":
		return sqliteDSN(c.Name)
	default:
		return ""
	}
}

// sqliteDSN enables foreign key enforcement, which cascading deletes and
// dangling-reference rejection depend on.
func sqliteDSN(name string) string {
	if strings.Contains(name, "_foreign_keys=") || strings.Contains(name, "_fk=") {
		return name
	}
	sep := "?"
	if strings.Contains(name, "?") {
		sep = "&"
	}
	return name + sep + url.Values{"_foreign_keys": {"on"}}.Encode()
}
