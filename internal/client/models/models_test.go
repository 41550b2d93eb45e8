package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() map[string]any {
	return map[string]any{
		"userId":       "u1",
		"uuid":         "a",
		"title":        "X",
		"description":  "desc",
		"latitude":     52.5,
		"longitude":    13.4,
		"date":         "2024-05-01 10:00:00",
		"imageUri":     "https://img/a.jpg",
		"locationName": "Berlin",
	}
}

func TestNewDiscovery_Defaults(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	d := NewDiscovery("X", "Y", geo.Point{Latitude: 1, Longitude: 2}, now)

	require.Len(t, d.UUID, 36)
	assert.Equal(t, "2024-05-01 10:00:00", d.Date)
	assert.Equal(t, common.UnknownPlace, d.LocationName)
	assert.Nil(t, d.ImageURI)
	assert.Equal(t, geo.Point{Latitude: 1, Longitude: 2}, d.Point())
}

func TestDiscovery_JSONShape(t *testing.T) {
	d := Discovery{UUID: "a", Title: "X", Latitude: 1, Longitude: 2, LocationName: "p", Date: "2024-05-01 10:00:00"}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"uuid":"a","title":"X","description":"","latitude":1,"longitude":2,"locationName":"p","date":"2024-05-01 10:00:00"}`, string(b))
}

func TestDiscovery_RemoteFieldsRoundTrip(t *testing.T) {
	img := "https://img/a.jpg"
	d := Discovery{UUID: "a", Title: "X", Description: "d", Latitude: 1, Longitude: 2, ImageURI: &img, LocationName: "p", Date: "2024-05-01 10:00:00"}

	f := d.RemoteFields("u1")
	assert.Equal(t, "u1", f["userId"])

	got, err := DiscoveryFromFields(f)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDiscovery_RemoteFieldsNilImage(t *testing.T) {
	f := Discovery{UUID: "a"}.RemoteFields("u1")
	v, ok := f["imageUri"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestDiscoveryFromFields_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing uuid", func(f map[string]any) { delete(f, "uuid") }},
		{"empty title", func(f map[string]any) { f["title"] = "" }},
		{"latitude as string", func(f map[string]any) { f["latitude"] = "52.5" }},
		{"longitude NaN", func(f map[string]any) { f["longitude"] = math.NaN() }},
		{"latitude nil", func(f map[string]any) { f["latitude"] = nil }},
		{"bad date", func(f map[string]any) { f["date"] = "yesterday" }},
		{"description wrong type", func(f map[string]any) { f["description"] = 5.0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.mutate(f)
			_, err := DiscoveryFromFields(f)
			require.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestDiscoveryFromFields_OptionalDefaults(t *testing.T) {
	f := validFields()
	delete(f, "description")
	delete(f, "locationName")
	f["imageUri"] = nil

	d, err := DiscoveryFromFields(f)
	require.NoError(t, err)
	assert.Equal(t, "", d.Description)
	assert.Equal(t, common.UnknownPlace, d.LocationName)
	assert.Nil(t, d.ImageURI)
}

func TestDiscovery_HasLocalImage(t *testing.T) {
	local := "/tmp/a.jpg"
	remote := "https://bucket/a.jpg"
	empty := ""

	assert.False(t, Discovery{}.HasLocalImage())
	assert.False(t, Discovery{ImageURI: &empty}.HasLocalImage())
	assert.False(t, Discovery{ImageURI: &remote}.HasLocalImage())
	assert.True(t, Discovery{ImageURI: &local}.HasLocalImage())
}

func TestCleanAndSort(t *testing.T) {
	in := []ScratchPoint{{1.0, 2.0}, {1.0, 2.0}, {3.0, 4.0}}
	assert.Equal(t, []ScratchPoint{{1.0, 2.0}, {3.0, 4.0}}, CleanAndSort(in))

	in = []ScratchPoint{{3, 1}, {1, 5}, {1, 2}, {3, 1}, {1, 5}}
	assert.Equal(t, []ScratchPoint{{1, 2}, {1, 5}, {3, 1}}, CleanAndSort(in))

	assert.Equal(t, []ScratchPoint{{3, 1}, {1, 5}, {1, 2}, {3, 1}, {1, 5}}, in, "input must not be modified")
	assert.Empty(t, CleanAndSort(nil))
}

func TestCleanAndSort_ExactEqualityOnly(t *testing.T) {
	in := []ScratchPoint{{1.0, 2.0}, {1.0, 2.0000000001}}
	assert.Len(t, CleanAndSort(in), 2)
}

func TestScratchPointFromFields(t *testing.T) {
	p, err := ScratchPointFromFields(map[string]any{"lat": 1.5, "lon": json.Number("2.5")})
	require.NoError(t, err)
	assert.Equal(t, ScratchPoint{1.5, 2.5}, p)

	_, err = ScratchPointFromFields(map[string]any{"lat": 1.5})
	require.ErrorIs(t, err, ErrMalformedRecord)

	_, err = ScratchPointFromFields(map[string]any{"lat": true, "lon": 1.0})
	require.ErrorIs(t, err, ErrMalformedRecord)
}

func TestScratchSet(t *testing.T) {
	s := NewScratchSet([]ScratchPoint{{1, 2}})
	assert.True(t, s.Has(ScratchPoint{1, 2}))
	assert.False(t, s.Add(ScratchPoint{1, 2}))
	assert.True(t, s.Add(ScratchPoint{2, 1}))
	assert.Len(t, s, 2)
}

func TestPendingAction_JSONAndValidate(t *testing.T) {
	d := Discovery{UUID: "a", Title: "X"}

	b, err := json.Marshal(DeleteAction("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"delete","uuid":"x"}`, string(b))

	var back PendingAction
	require.NoError(t, json.Unmarshal([]byte(`{"type":"update","discovery":{"uuid":"a","title":"X"}}`), &back))
	assert.Equal(t, ActionUpdate, back.Type)
	assert.Equal(t, "a", back.TargetUUID())

	assert.NoError(t, AddAction(d).Validate())
	assert.NoError(t, UpdateAction(d).Validate())
	assert.NoError(t, DeleteAction("x").Validate())
	assert.ErrorIs(t, PendingAction{Type: ActionAdd}.Validate(), ErrMalformedRecord)
	assert.ErrorIs(t, PendingAction{Type: ActionDelete}.Validate(), ErrMalformedRecord)
	assert.ErrorIs(t, PendingAction{Type: "rename", UUID: "x"}.Validate(), ErrMalformedRecord)
}

func TestParseReport(t *testing.T) {
	var r ParseReport
	r.Ok()
	r.Skip("b", ErrMalformedRecord)

	var total ParseReport
	total.Merge(r)
	total.Ok()

	assert.Equal(t, 2, total.Parsed)
	require.Len(t, total.Skipped, 1)
	assert.Equal(t, "b", total.Skipped[0].DocID)
}

func TestSession_Valid(t *testing.T) {
	var s *Session
	assert.False(t, s.Valid())
	assert.False(t, (&Session{UserID: "u"}).Valid())
	assert.True(t, (&Session{UserID: "u", AccessToken: "t"}).Valid())
}
