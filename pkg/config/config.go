package config

// Package config provides a reusable loader for Kromer's runtime
// configuration: environment variables (with an optional .env overlay)
// merged with command-line flags, flags always winning. It is versioned so
// that other binaries in this module can depend on a stable API contract.
//
// Version: v0.1.0

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"kromer/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified runtime configuration for a Kromer server process.
type Config struct {
	Server struct {
		URL             string `mapstructure:"url" json:"url"`
		PublicURL       string `mapstructure:"public_url" json:"public_url"`
		ForceInsecureWS bool   `mapstructure:"force_ws_insecure" json:"force_ws_insecure"`
		Debug           bool   `mapstructure:"debug" json:"debug"`
	} `mapstructure:"server" json:"server"`

	Database struct {
		URL string `mapstructure:"url" json:"url"`
	} `mapstructure:"database" json:"database"`

	Internal struct {
		Key string `mapstructure:"key" json:"key"`
	} `mapstructure:"internal" json:"internal"`
}

// AppConfig holds the configuration loaded via Load.
var AppConfig Config

// Flags carries the subset of config fields that may be supplied on the
// command line. A zero value means "not provided"; Load falls back to the
// environment for that field.
type Flags struct {
	URL         string
	DatabaseURL string
	Key         string
	Debug       bool
	Insecure    bool
}

// Load resolves SERVER_URL, DATABASE_URL, PUBLIC_URL, INTERNAL_KEY and
// FORCE_WS_INSECURE from the environment (an optional .env file is loaded
// first), then overlays any non-zero fields of flags. The result is stored
// in AppConfig and returned.
func Load(flags Flags) (*Config, error) {
	_ = godotenv.Load() // optional; absence of .env is not an error
	viper.AutomaticEnv()

	var cfg Config
	cfg.Server.URL = utils.EnvOrDefault("SERVER_URL", "0.0.0.0:8080")
	cfg.Server.PublicURL = utils.EnvOrDefault("PUBLIC_URL", cfg.Server.URL)
	cfg.Server.ForceInsecureWS = utils.EnvOrDefault("FORCE_WS_INSECURE", "false") == "true"
	cfg.Database.URL = viper.GetString("DATABASE_URL")
	cfg.Internal.Key = viper.GetString("INTERNAL_KEY")

	if flags.URL != "" {
		cfg.Server.URL = flags.URL
	}
	if flags.DatabaseURL != "" {
		cfg.Database.URL = flags.DatabaseURL
	}
	if flags.Key != "" {
		cfg.Internal.Key = flags.Key
	}
	if flags.Debug {
		cfg.Server.Debug = true
	}
	if flags.Insecure {
		cfg.Server.ForceInsecureWS = true
	}

	AppConfig = cfg
	return &AppConfig, nil
}

// PublicWebSocketScheme returns "ws" or "wss" for building gateway URLs,
// honoring FORCE_WS_INSECURE.
func (c *Config) PublicWebSocketScheme() string {
	if c.Server.ForceInsecureWS {
		return "ws"
	}
	return "wss"
}
