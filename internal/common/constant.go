// Package common contains shared constants and sentinel errors used across
// scratchmap components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Remote collection names.
const (
	CollectionPings     = "pings"
	CollectionScratches = "scratches"
)

// UnknownPlace is the location name used whenever reverse geocoding is
// unavailable.
const UnknownPlace = "unknown place"
