//go:build postgres_integration

package store

import (
    "os"
    "testing"

    "github.com/google/uuid"
    "github.com/stretchr/testify/require"

    "courierplan/internal/model"
)

func TestPostgresPlanRoundTrip(t *testing.T) {
    dsn := os.Getenv("DATABASE_URL")
    if dsn == "" { t.Skip("DATABASE_URL not set; skipping integration test") }
    p, err := NewPostgres(dsn)
    require.NoError(t, err)
    defer func() { _ = p.Close() }()
    require.NoError(t, p.Ping(t.Context()))
    require.NoError(t, p.Migrate(t.Context()))

    pl := model.Plan{ID: uuid.NewString(), Strategy: "cluster", Couriers: 3}
    require.NoError(t, p.SavePlan(t.Context(), pl))
    got, err := p.GetPlan(t.Context(), pl.ID)
    require.NoError(t, err)
    require.Equal(t, pl.ID, got.ID)

    items, _, err := p.ListPlans(t.Context(), "", 1)
    require.NoError(t, err)
    require.Len(t, items, 1)
    _, _, err = p.ListPlans(t.Context(), uuid.NewString(), 1)
    require.ErrorIs(t, err, ErrBadCursor)

    require.NoError(t, p.DeletePlan(t.Context(), pl.ID))
    require.ErrorIs(t, p.DeletePlan(t.Context(), pl.ID), ErrNotFound)
}
