// Package config loads runtime configuration for the scratchmap client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c, -config or --config. Files
//     ending in .yaml or .yml are read as YAML, anything else as JSON.
//  3. Environment: a .env file in the working directory (loaded with
//     godotenv, never overriding variables already set) and SCRATCHMAP_*
//     variables.
//  4. Command-line flags bound with (*Config).BindFlags.
//
// # File schema
//
// Intervals use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "~/.scratchmap",
//	  "store_backend": "sqlite",
//	  "geocoder_url": "https://nominatim.openstreetmap.org",
//	  "fog_texture_path": "",
//	  "scratch_spacing_meters": 30,
//	  "log_level": "info"
//	}
package config
