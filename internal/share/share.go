// Package share builds human-facing artifacts for a planned route: map
// links couriers can open on a phone and compact duration strings.
package share

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"courierplan/internal/model"
)

const mapsDirURL = "https://www.google.com/maps/dir/"

// MapsURL returns a Google Maps directions link that drives the stops in
// order. The first and last stops become origin and destination.
func MapsURL(stops []model.StopOut, opts *model.RouteOptions) string {
	if len(stops) < 2 {
		return ""
	}
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", latLng(stops[0].Location))
	q.Set("destination", latLng(stops[len(stops)-1].Location))
	if len(stops) > 2 {
		wps := make([]string, 0, len(stops)-2)
		for _, s := range stops[1 : len(stops)-1] {
			wps = append(wps, latLng(s.Location))
		}
		q.Set("waypoints", strings.Join(wps, "|"))
	}
	q.Set("travelmode", "driving")
	if avoid := Avoid(opts); len(avoid) > 0 {
		q.Set("avoid", strings.Join(avoid, "|"))
	}
	return mapsDirURL + "?" + q.Encode()
}

// Avoid lists the road features opts excludes, in a stable order.
func Avoid(opts *model.RouteOptions) []string {
	if opts == nil {
		return nil
	}
	var out []string
	if opts.AvoidHighways {
		out = append(out, "highways")
	}
	if opts.AvoidTolls {
		out = append(out, "tolls")
	}
	if opts.AvoidFerries {
		out = append(out, "ferries")
	}
	return out
}

func latLng(p model.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// FormatDuration renders minutes as "1h 05m", rounding to the nearest minute.
func FormatDuration(minutes float64) string {
	if minutes < 0 || math.IsNaN(minutes) {
		minutes = 0
	}
	total := int(math.Round(minutes))
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}
