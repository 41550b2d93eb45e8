package config

import "github.com/spf13/pflag"

// BindFlags registers the client flags on fs with the current values as
// defaults, so that parsed flags override every earlier source.
//
//	-a, --server         address and port of the backend server
//	-i, --check-interval online check interval
//	-d, --data           local data directory
//	    --backend        local store backend (sqlite, bolt)
//	    --geocoder       reverse geocoding base URL, empty disables it
//	    --texture        fog texture PNG, empty for the procedural one
//	    --spacing        minimum meters between scratch points
//	    --log-level      debug, info, warn or error
//	-c, --config         config file, read before flags are parsed
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.ServerEndpointAddr, "server", "a", c.ServerEndpointAddr, "address and port to access server")
	fs.DurationVarP(&c.OnlineCheckInterval, "check-interval", "i", c.OnlineCheckInterval, "online check interval")
	fs.StringVarP(&c.DatabasePath, "data", "d", c.DatabasePath, "local data directory")
	fs.StringVar(&c.StoreBackend, "backend", c.StoreBackend, "local store backend (sqlite, bolt)")
	fs.StringVar(&c.GeocoderURL, "geocoder", c.GeocoderURL, "reverse geocoding base URL")
	fs.StringVar(&c.FogTexturePath, "texture", c.FogTexturePath, "fog texture PNG")
	fs.Float64Var(&c.ScratchSpacingMeters, "spacing", c.ScratchSpacingMeters, "minimum meters between scratch points")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.StringP("config", "c", "", "config file (JSON or YAML)")
}
