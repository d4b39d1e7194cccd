package opt

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0
	// AverageSpeedKmh approximates urban driving speed.
	AverageSpeedKmh = 40.0
	// DefaultDwellMinutes is applied by callers when a stop carries no dwell time.
	DefaultDwellMinutes = 5
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceModel turns coordinates into straight-line distance and an
// estimated driving time. The zero value uses AverageSpeedKmh.
type DistanceModel struct {
	SpeedKmh float64
}

// DefaultModel is the model used by the package-level helpers.
var DefaultModel = DistanceModel{SpeedKmh: AverageSpeedKmh}

// Distance returns the great-circle distance between a and b in kilometers.
func Distance(a, b Point) float64 {
	if a == b {
		return 0
	}
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// TravelMinutes converts kilometers to minutes at the default speed.
func TravelMinutes(km float64) float64 {
	return DefaultModel.TravelMinutes(km)
}

func (m DistanceModel) speed() float64 {
	if m.SpeedKmh <= 0 {
		return AverageSpeedKmh
	}
	return m.SpeedKmh
}

// TravelMinutes converts kilometers to minutes at the model's speed.
func (m DistanceModel) TravelMinutes(km float64) float64 {
	return km / m.speed() * 60
}
