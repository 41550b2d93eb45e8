package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/scratchmap/internal/flagx"
	"github.com/dmitrijs2005/scratchmap/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for file unmarshalling. Pointer
// fields distinguish "absent" from zero values.
type FileConfig struct {
	ServerEndpointAddr   *string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	OnlineCheckInterval  *timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	DatabasePath         *string         `json:"database_path" yaml:"database_path"`
	StoreBackend         *string         `json:"store_backend" yaml:"store_backend"`
	GeocoderURL          *string         `json:"geocoder_url" yaml:"geocoder_url"`
	FogTexturePath       *string         `json:"fog_texture_path" yaml:"fog_texture_path"`
	ScratchSpacingMeters *float64        `json:"scratch_spacing_meters" yaml:"scratch_spacing_meters"`
	LogLevel             *string         `json:"log_level" yaml:"log_level"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// parseFile overlays cfg with the config file named by -c/-config in args.
// Without such a flag it does nothing.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	if isYAML(path) {
		err = yaml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc FileConfig) apply(cfg *Config) {
	if fc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *fc.ServerEndpointAddr
	}
	if fc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.DatabasePath != nil {
		cfg.DatabasePath = *fc.DatabasePath
	}
	if fc.StoreBackend != nil {
		cfg.StoreBackend = *fc.StoreBackend
	}
	if fc.GeocoderURL != nil {
		cfg.GeocoderURL = *fc.GeocoderURL
	}
	if fc.FogTexturePath != nil {
		cfg.FogTexturePath = *fc.FogTexturePath
	}
	if fc.ScratchSpacingMeters != nil {
		cfg.ScratchSpacingMeters = *fc.ScratchSpacingMeters
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
}
