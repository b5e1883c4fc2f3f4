package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Venue modes.
const (
	VenueModeTWS   = "tws"
	VenueModePaper = "paper"
)

// Symbol registry sources.
const (
	SymbolSourceStatic   = "static"
	SymbolSourceFile     = "file"
	SymbolSourcePostgres = "postgres"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8000
//	VENUE_MODE=tws
//	VENUE_HOST=127.0.0.1
//	VENUE_PORT=7497
//	VENUE_CLIENT_ID=1
//	SYMBOLS_SOURCE=static
//	SYMBOLS_STRICT=false
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Venue    VenueConfig    // Execution venue endpoint and timeouts
	Symbols  SymbolsConfig  // Symbol registry source
	Postgres PostgresConfig // PostgreSQL settings, only used by the postgres symbol source
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port      string // The TCP port the HTTP server will listen on (e.g., "8000")
	RateLimit int    // Requests per minute allowed per client IP
}

// VenueConfig describes the single execution venue the bridge talks to.
//
// Host, Port and ClientID are static for the process lifetime; they are never
// taken from request payloads.
type VenueConfig struct {
	Mode           string        // "tws" (socket API) or "paper" (in-process simulator)
	Host           string        // TWS / IB Gateway host
	Port           int           // TWS / IB Gateway API port
	ClientID       int           // API client id
	ConnectTimeout time.Duration // bound for a single connect attempt
	RequestTimeout time.Duration // bound for qualify round trips
	AckTimeout     time.Duration // how long to wait for the first order status
	ConnectOnStart bool          // connect eagerly at startup
}

// SymbolsConfig selects where terminal-to-venue instrument mappings come from.
type SymbolsConfig struct {
	Source string // static | file | postgres
	File   string // YAML file with a top-level "symbols" list (file source)
	Strict bool   // reject unmapped symbols before contacting the venue
}

// PostgresConfig defines connection details for PostgreSQL.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and read by app wiring and commands.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 600)

	viper.SetDefault("VENUE_MODE", VenueModeTWS)
	viper.SetDefault("VENUE_HOST", "127.0.0.1")
	viper.SetDefault("VENUE_PORT", 7497)
	viper.SetDefault("VENUE_CLIENT_ID", 1)
	viper.SetDefault("VENUE_CONNECT_TIMEOUT", "5s")
	viper.SetDefault("VENUE_REQUEST_TIMEOUT", "10s")
	viper.SetDefault("VENUE_ACK_TIMEOUT", "1s")
	viper.SetDefault("VENUE_CONNECT_ON_START", true)

	viper.SetDefault("SYMBOLS_SOURCE", SymbolSourceStatic)
	viper.SetDefault("SYMBOLS_FILE", "")
	viper.SetDefault("SYMBOLS_STRICT", false)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "tradebridge")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:      viper.GetString("SERVER_PORT"),
			RateLimit: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
		},
		Venue: VenueConfig{
			Mode:           strings.ToLower(strings.TrimSpace(viper.GetString("VENUE_MODE"))),
			Host:           viper.GetString("VENUE_HOST"),
			Port:           viper.GetInt("VENUE_PORT"),
			ClientID:       viper.GetInt("VENUE_CLIENT_ID"),
			ConnectTimeout: viper.GetDuration("VENUE_CONNECT_TIMEOUT"),
			RequestTimeout: viper.GetDuration("VENUE_REQUEST_TIMEOUT"),
			AckTimeout:     viper.GetDuration("VENUE_ACK_TIMEOUT"),
			ConnectOnStart: viper.GetBool("VENUE_CONNECT_ON_START"),
		},
		Symbols: SymbolsConfig{
			Source: strings.ToLower(strings.TrimSpace(viper.GetString("SYMBOLS_SOURCE"))),
			File:   viper.GetString("SYMBOLS_FILE"),
			Strict: viper.GetBool("SYMBOLS_STRICT"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
	}

	AppConfig.Postgres.URL = AppConfig.Postgres.DSN()

	validateConfig()
}

// DSN builds the PostgreSQL connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

// Address returns host:port of the venue API endpoint.
func (v VenueConfig) Address() string {
	return fmt.Sprintf("%s:%d", v.Host, v.Port)
}

// validateConfig terminates the application when required variables are
// missing or hold unsupported values.
func validateConfig() {
	if problems := AppConfig.problems(); len(problems) > 0 {
		log.Fatalf("❌ Invalid configuration: %v\n", problems)
	}
}

func (c Config) problems() []string {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}

	switch c.Venue.Mode {
	case VenueModeTWS:
		if c.Venue.Host == "" {
			missing = append(missing, "VENUE_HOST")
		}
		if c.Venue.Port <= 0 {
			missing = append(missing, "VENUE_PORT")
		}
	case VenueModePaper:
	default:
		missing = append(missing, "VENUE_MODE (tws|paper)")
	}
	if c.Venue.AckTimeout <= 0 {
		missing = append(missing, "VENUE_ACK_TIMEOUT")
	}

	switch c.Symbols.Source {
	case SymbolSourceStatic:
	case SymbolSourceFile:
		if c.Symbols.File == "" {
			missing = append(missing, "SYMBOLS_FILE")
		}
	case SymbolSourcePostgres:
		if c.Postgres.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if c.Postgres.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if c.Postgres.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if c.Postgres.DBName == "" {
			missing = append(missing, "POSTGRES_DB")
		}
	default:
		missing = append(missing, "SYMBOLS_SOURCE (static|file|postgres)")
	}

	return missing
}
