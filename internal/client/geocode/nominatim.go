// Package geocode resolves coordinates to human-readable place names.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/geo"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
)

// Geocoder never fails: when the lookup is impossible it returns
// common.UnknownPlace.
type Geocoder interface {
	Reverse(ctx context.Context, p geo.Point) string
}

// Static always answers with the same name.
type Static string

func (s Static) Reverse(context.Context, geo.Point) string { return string(s) }

const (
	DefaultTimeout = 5 * time.Second
	userAgent      = "scratchmap/1.0"
)

// Nominatim queries a Nominatim-compatible /reverse endpoint.
type Nominatim struct {
	base    string
	client  *http.Client
	timeout time.Duration
	logger  logging.Logger
}

func NewNominatim(baseURL string, client *http.Client, l logging.Logger) *Nominatim {
	if client == nil {
		client = http.DefaultClient
	}
	return &Nominatim{
		base:    strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: DefaultTimeout,
		logger:  l.With("module", "geocode"),
	}
}

type reverseResponse struct {
	Error       string `json:"error"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		Neighbourhood string `json:"neighbourhood"`
		Suburb        string `json:"suburb"`
		Village       string `json:"village"`
		Town          string `json:"town"`
		City          string `json:"city"`
		Country       string `json:"country"`
	} `json:"address"`
}

func (r reverseResponse) placeName() string {
	a := r.Address
	var locality string
	for _, v := range []string{a.City, a.Town, a.Village, a.Suburb, a.Neighbourhood} {
		if v != "" {
			locality = v
			break
		}
	}
	switch {
	case locality != "" && a.Country != "":
		return locality + ", " + a.Country
	case locality != "":
		return locality
	case r.DisplayName != "":
		return r.DisplayName
	case r.Name != "":
		return r.Name
	}
	return ""
}

func (n *Nominatim) lookup(ctx context.Context, p geo.Point) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(p.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.base+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: %s", resp.Status)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode reverse geocode: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("reverse geocode: %s", body.Error)
	}

	name := body.placeName()
	if name == "" {
		return "", fmt.Errorf("reverse geocode: empty result")
	}
	return name, nil
}

func (n *Nominatim) Reverse(ctx context.Context, p geo.Point) string {
	if n.base == "" || !p.Valid() {
		return common.UnknownPlace
	}
	name, err := n.lookup(ctx, p)
	if err != nil {
		n.logger.Warn(ctx, "reverse geocoding failed", "lat", p.Latitude, "lon", p.Longitude, "error", err)
		return common.UnknownPlace
	}
	return name
}
