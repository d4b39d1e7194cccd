package model

import "time"

// Wire types for the HTTP API, the CLI and persisted plans.

type GeoPoint struct {
    Lat float64 `json:"lat"`
    Lng float64 `json:"lng"`
}

type StopIn struct {
    Label        string    `json:"label,omitempty"`
    Location     *GeoPoint `json:"location"`
    DwellMinutes *int      `json:"dwellMinutes,omitempty"`
}

type RouteOptions struct {
    AvoidHighways bool `json:"avoidHighways,omitempty"`
    AvoidTolls    bool `json:"avoidTolls,omitempty"`
    AvoidFerries  bool `json:"avoidFerries,omitempty"`
}

type PlanRequest struct {
    Origin        StopIn        `json:"origin"`
    Destination   StopIn        `json:"destination"`
    Stops         []StopIn      `json:"stops"`
    Couriers      int           `json:"couriers"`
    Seed          int64         `json:"seed,omitempty"`
    MaxIterations int           `json:"maxIterations,omitempty"`
    Temperature   float64       `json:"temperature,omitempty"`
    CoolingRate   float64       `json:"coolingRate,omitempty"`
    Textbook      bool          `json:"textbook,omitempty"`
    RouteOptions  *RouteOptions `json:"routeOptions,omitempty"`
    Enrich        bool          `json:"enrich,omitempty"`
    CallbackURL   string        `json:"callbackUrl,omitempty"`
}

type SequenceRequest struct {
    Origin       StopIn        `json:"origin"`
    Destination  StopIn        `json:"destination"`
    Stops        []StopIn      `json:"stops"`
    RouteOptions *RouteOptions `json:"routeOptions,omitempty"`
}

type DurationRequest struct {
    Route []StopIn `json:"route"`
}

type DurationResponse struct {
    DurationMinutes float64 `json:"durationMinutes"`
    DistanceKm      float64 `json:"distanceKm"`
    Duration        string  `json:"duration"`
}

type StopOut struct {
    Label        string   `json:"label,omitempty"`
    Location     GeoPoint `json:"location"`
    DwellMinutes int      `json:"dwellMinutes"`
}

// RoadSummary is the external routing service's view of a route, attached
// for display only.
type RoadSummary struct {
    DistanceKm      float64 `json:"distanceKm"`
    DurationMinutes float64 `json:"durationMinutes"`
    Provider        string  `json:"provider"`
}

type RouteOut struct {
    Courier         int          `json:"courier"`
    Stops           []StopOut    `json:"stops"`
    DurationMinutes float64      `json:"durationMinutes"`
    DistanceKm      float64      `json:"distanceKm"`
    Duration        string       `json:"duration"`
    ShareURL        string       `json:"shareUrl"`
    Road            *RoadSummary `json:"road,omitempty"`
}

type PlanStats struct {
    Seed             int64   `json:"seed"`
    Textbook         bool    `json:"textbook"`
    Iterations       int     `json:"iterations"`
    Moves            int     `json:"moves"`
    Accepted         int     `json:"accepted"`
    AcceptedWorse    int     `json:"acceptedWorse"`
    Improvements     int     `json:"improvements"`
    InitialImbalance float64 `json:"initialImbalance"`
    SearchImbalance  float64 `json:"searchImbalance"`
    FinalTemperature float64 `json:"finalTemperature"`
}

type Plan struct {
    ID          string     `json:"id"`
    CreatedAt   time.Time  `json:"createdAt"`
    Strategy    string     `json:"strategy"`
    Couriers    int        `json:"couriers"`
    Origin      StopOut    `json:"origin"`
    Destination StopOut    `json:"destination"`
    Routes      []RouteOut `json:"routes"`
    Imbalance   float64    `json:"imbalanceMinutes"`
    Stats       *PlanStats `json:"stats,omitempty"`
}

// PlanSummary is the list view of a stored plan.
type PlanSummary struct {
    ID        string    `json:"id"`
    CreatedAt time.Time `json:"createdAt"`
    Strategy  string    `json:"strategy"`
    Couriers  int       `json:"couriers"`
    Stops     int       `json:"stops"`
    Imbalance float64   `json:"imbalanceMinutes"`
}

func (p Plan) Summary() PlanSummary {
    n := 0
    for _, r := range p.Routes {
        if len(r.Stops) > 2 {
            n += len(r.Stops) - 2
        }
    }
    return PlanSummary{ID: p.ID, CreatedAt: p.CreatedAt, Strategy: p.Strategy, Couriers: p.Couriers, Stops: n, Imbalance: p.Imbalance}
}
