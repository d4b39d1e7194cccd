package share

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierplan/internal/model"
)

func stop(lat, lng float64) model.StopOut {
	return model.StopOut{Location: model.GeoPoint{Lat: lat, Lng: lng}}
}

func TestMapsURL(t *testing.T) {
	stops := []model.StopOut{stop(35.1815, 136.9066), stop(35.185, 136.91), stop(35.178, 136.902), stop(35.17, 136.91)}
	raw := MapsURL(stops, &model.RouteOptions{AvoidTolls: true, AvoidHighways: true})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "www.google.com", u.Host)
	assert.Equal(t, "/maps/dir/", u.Path)
	q := u.Query()
	assert.Equal(t, "1", q.Get("api"))
	assert.Equal(t, "35.1815,136.9066", q.Get("origin"))
	assert.Equal(t, "35.17,136.91", q.Get("destination"))
	assert.Equal(t, "35.185,136.91|35.178,136.902", q.Get("waypoints"))
	assert.Equal(t, "driving", q.Get("travelmode"))
	assert.Equal(t, "highways|tolls", q.Get("avoid"))
}

func TestMapsURL_DirectRoute(t *testing.T) {
	raw := MapsURL([]model.StopOut{stop(1, 2), stop(3, 4)}, nil)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	_, has := u.Query()["waypoints"]
	assert.False(t, has)
	_, has = u.Query()["avoid"]
	assert.False(t, has)

	assert.Empty(t, MapsURL([]model.StopOut{stop(1, 2)}, nil))
}

func TestFormatDuration(t *testing.T) {
	cases := map[float64]string{
		0:     "0h 00m",
		5.4:   "0h 05m",
		59.6:  "1h 00m",
		65:    "1h 05m",
		125.2: "2h 05m",
		-3:    "0h 00m",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatDuration(in), "minutes=%v", in)
	}
}
