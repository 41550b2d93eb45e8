package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "SCRATCHMAP_"

// loadDotEnv exports the variables of path into the process environment.
// A missing file is fine; existing variables win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func parseEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	str("SERVER_ADDR", &cfg.ServerEndpointAddr)
	str("DATABASE_PATH", &cfg.DatabasePath)
	str("STORE_BACKEND", &cfg.StoreBackend)
	str("GEOCODER_URL", &cfg.GeocoderURL)
	str("FOG_TEXTURE", &cfg.FogTexturePath)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := os.LookupEnv(envPrefix + "ONLINE_CHECK_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sONLINE_CHECK_INTERVAL: %w", envPrefix, err)
		}
		cfg.OnlineCheckInterval = d
	}
	if v, ok := os.LookupEnv(envPrefix + "SCRATCH_SPACING"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sSCRATCH_SPACING: %w", envPrefix, err)
		}
		cfg.ScratchSpacingMeters = f
	}
	return nil
}
