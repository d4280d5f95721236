package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the proxy configuration. It is built once at startup and never mutated.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Local   LocalConfig   `toml:"local"`
	Remote  RemoteConfig  `toml:"remote"`
	Station StationConfig `toml:"station"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	MaxConnections     int      `toml:"max_connections"` // 0 means unlimited
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// LocalConfig points at the aircraft.json written by the local decoder
type LocalConfig struct {
	DataPath string `toml:"data_path"`
}

// RemoteConfig controls the public API fallback
type RemoteConfig struct {
	Enabled        bool   `toml:"enabled"`
	Name           string `toml:"name"`
	URLTemplate    string `toml:"url_template"` // lat, lon, radius are substituted as %s
	RadiusNM       int    `toml:"radius_nm"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StationConfig is the receiver location used for radius queries
type StationConfig struct {
	Latitude  float64 `toml:"latitude"`
	Longitude float64 `toml:"longitude"`
}

// LoggingConfig mirrors logger.Config
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when neither file nor environment set a value
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               3005,
			CORSAllowedOrigins: []string{"*"},
		},
		Local: LocalConfig{
			DataPath: "/run/readsb/aircraft.json",
		},
		Remote: RemoteConfig{
			Enabled:        false,
			Name:           "adsb.lol",
			URLTemplate:    "https://api.adsb.lol/v2/lat/%s/lon/%s/dist/%s",
			RadiusNM:       40,
			TimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the optional TOML file at path, applies environment overrides
// (including a .env file in the working directory) and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides fields from environment variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("LOCAL_DATA_PATH"); ok && v != "" {
		c.Local.DataPath = v
	}
	if v, ok := lookup("ADSBLOL_ENABLED"); ok {
		c.Remote.Enabled = v == "true"
	}
	if v, ok := lookup("ADSBLOL_NAME"); ok && v != "" {
		c.Remote.Name = v
	}
	if v, ok := lookup("ADSBLOL_URL_TEMPLATE"); ok && v != "" {
		c.Remote.URLTemplate = v
	}
	if v, ok := lookup("PROXY_HOST"); ok {
		c.Server.Host = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		c.Logging.Format = v
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"RECEIVER_LAT", &c.Station.Latitude},
		{"RECEIVER_LON", &c.Station.Longitude},
	}
	for _, f := range floats {
		v, ok := lookup(f.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.key, v, err)
		}
		*f.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"ADSBLOL_RADIUS", &c.Remote.RadiusNM},
		{"ADSBLOL_TIMEOUT", &c.Remote.TimeoutSeconds},
		{"PROXY_PORT", &c.Server.Port},
		{"PROXY_MAX_CONNECTIONS", &c.Server.MaxConnections},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", i.key, v, err)
		}
		*i.dst = parsed
	}

	return nil
}

// Validate checks ranges and required values
func (c *Config) Validate() error {
	if c.Local.DataPath == "" {
		return errors.New("local data path must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("invalid max connections: %d", c.Server.MaxConnections)
	}
	if c.Station.Latitude < -90 || c.Station.Latitude > 90 {
		return fmt.Errorf("invalid receiver latitude: %v", c.Station.Latitude)
	}
	if c.Station.Longitude < -180 || c.Station.Longitude > 180 {
		return fmt.Errorf("invalid receiver longitude: %v", c.Station.Longitude)
	}
	if c.Remote.RadiusNM <= 0 {
		return fmt.Errorf("invalid remote radius: %d", c.Remote.RadiusNM)
	}
	if c.Remote.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid remote timeout: %d", c.Remote.TimeoutSeconds)
	}
	if c.Remote.Name == "" {
		return errors.New("remote source name must not be empty")
	}
	if strings.Count(c.Remote.URLTemplate, "%s") != 3 {
		return fmt.Errorf("remote url template must contain three %%s verbs: %q", c.Remote.URLTemplate)
	}
	return nil
}

// RemoteURL renders the radius query for the configured station
func (c *Config) RemoteURL() string {
	return fmt.Sprintf(c.Remote.URLTemplate,
		strconv.FormatFloat(c.Station.Latitude, 'f', -1, 64),
		strconv.FormatFloat(c.Station.Longitude, 'f', -1, 64),
		strconv.Itoa(c.Remote.RadiusNM),
	)
}

// RemoteTimeout is the budget for one outbound fetch
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// ListenAddr is the address passed to the HTTP listener
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
