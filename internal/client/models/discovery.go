// Package models defines the client-side domain records (discoveries,
// scratch points, queued offline mutations) together with their strict
// parsers from loosely-typed remote documents.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/geo"
	"github.com/google/uuid"
)

// DateLayout is the fixed creation timestamp format of a discovery.
const DateLayout = "2006-01-02 15:04:05"

// Discovery is a user-authored point of interest. UUID, position and Date
// never change after creation.
type Discovery struct {
	UUID         string  `json:"uuid"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	ImageURI     *string `json:"imageUri,omitempty"`
	LocationName string  `json:"locationName"`
	Date         string  `json:"date"`
}

func NewDiscovery(title, description string, at geo.Point, now time.Time) Discovery {
	return Discovery{
		UUID:         uuid.NewString(),
		Title:        title,
		Description:  description,
		Latitude:     at.Latitude,
		Longitude:    at.Longitude,
		LocationName: common.UnknownPlace,
		Date:         now.Format(DateLayout),
	}
}

func (d Discovery) Point() geo.Point {
	return geo.Point{Latitude: d.Latitude, Longitude: d.Longitude}
}

// HasLocalImage reports whether the image reference points at a local file
// that still has to be uploaded.
func (d Discovery) HasLocalImage() bool {
	if d.ImageURI == nil || *d.ImageURI == "" {
		return false
	}
	return !IsRemoteURI(*d.ImageURI)
}

func IsRemoteURI(s string) bool {
	for _, p := range []string{"http://", "https://", "s3://"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// RemoteFields returns the pings document body for d. A missing image is
// sent as nil so that merge writes leave the stored value alone.
func (d Discovery) RemoteFields(userID string) map[string]any {
	var image any
	if d.ImageURI != nil {
		image = *d.ImageURI
	}
	return map[string]any{
		"userId":       userID,
		"uuid":         d.UUID,
		"title":        d.Title,
		"description":  d.Description,
		"latitude":     d.Latitude,
		"longitude":    d.Longitude,
		"date":         d.Date,
		"imageUri":     image,
		"locationName": d.LocationName,
	}
}

// DiscoveryFromFields strictly parses a pings document. uuid, title,
// latitude, longitude and date are required.
func DiscoveryFromFields(f map[string]any) (Discovery, error) {
	var d Discovery
	var err error

	if d.UUID, err = requiredString(f, "uuid"); err != nil {
		return Discovery{}, err
	}
	if d.Title, err = requiredString(f, "title"); err != nil {
		return Discovery{}, err
	}
	if d.Latitude, err = requiredNumber(f, "latitude"); err != nil {
		return Discovery{}, err
	}
	if d.Longitude, err = requiredNumber(f, "longitude"); err != nil {
		return Discovery{}, err
	}
	if d.Date, err = requiredString(f, "date"); err != nil {
		return Discovery{}, err
	}
	if _, perr := time.Parse(DateLayout, d.Date); perr != nil {
		return Discovery{}, malformed("date", "not in %q layout", DateLayout)
	}

	if d.Description, err = optionalString(f, "description"); err != nil {
		return Discovery{}, err
	}
	if d.LocationName, err = optionalString(f, "locationName"); err != nil {
		return Discovery{}, err
	}
	if d.LocationName == "" {
		d.LocationName = common.UnknownPlace
	}
	img, err := optionalString(f, "imageUri")
	if err != nil {
		return Discovery{}, err
	}
	if img != "" {
		d.ImageURI = &img
	}

	return d, nil
}
