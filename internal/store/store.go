package store

import (
    "context"
    "errors"

    "courierplan/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
    SavePlan(ctx context.Context, p model.Plan) error
    GetPlan(ctx context.Context, id string) (model.Plan, error)
    // ListPlans returns summaries newest first. nextCursor is "" on the last page.
    // A cursor that is not a stored plan id fails with ErrBadCursor.
    ListPlans(ctx context.Context, cursor string, limit int) (items []model.PlanSummary, nextCursor string, err error)
    DeletePlan(ctx context.Context, id string) error
    Ping(ctx context.Context) error
}

var (
    ErrNotFound  = errors.New("not found")
    ErrBadCursor = errors.New("bad cursor")
)

const (
    defaultLimit = 50
    maxLimit     = 500
)

func clampLimit(limit int) int {
    if limit <= 0 {
        return defaultLimit
    }
    if limit > maxLimit {
        return maxLimit
    }
    return limit
}
