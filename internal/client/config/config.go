package config

import (
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/client/store"
)

// Config holds runtime settings for the scratchmap client.
type Config struct {
	ServerEndpointAddr   string
	OnlineCheckInterval  time.Duration
	DatabasePath         string
	StoreBackend         string
	GeocoderURL          string
	FogTexturePath       string
	ScratchSpacingMeters float64
	LogLevel             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "~/.scratchmap"
	c.StoreBackend = store.BackendSQLite
	c.GeocoderURL = "https://nominatim.openstreetmap.org"
	c.FogTexturePath = ""
	c.ScratchSpacingMeters = 30
	c.LogLevel = "info"
}

// LoadConfig constructs a Config from defaults, the config file named in
// args and the environment. Flags are applied later by cobra through
// BindFlags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
