package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courierplan/internal/model"
)

func plan(couriers int, at time.Time) model.Plan {
	return model.Plan{
		ID:        uuid.NewString(),
		CreatedAt: at,
		Strategy:  "cluster",
		Couriers:  couriers,
		Routes: []model.RouteOut{
			{Stops: make([]model.StopOut, 4)},
			{Stops: make([]model.StopOut, 2)},
		},
	}
}

func TestMemorySaveGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := plan(2, time.Time{})
	require.NoError(t, m.SavePlan(ctx, p))

	got, err := m.GetPlan(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, m.DeletePlan(ctx, p.ID))
	_, err = m.GetPlan(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, m.DeletePlan(ctx, p.ID), ErrNotFound)
	require.NoError(t, m.Ping(ctx))
}

func TestMemoryListPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		p := plan(i+1, base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, p.ID)
		require.NoError(t, m.SavePlan(ctx, p))
	}

	page, next, err := m.ListPlans(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID)
	assert.Equal(t, ids[3], page[1].ID)
	assert.Equal(t, 2, page[0].Stops)
	assert.Equal(t, ids[3], next)

	page, next, err = m.ListPlans(ctx, next, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[2], ids[1]}, []string{page[0].ID, page[1].ID})

	page, next, err = m.ListPlans(ctx, next, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)
	assert.Empty(t, next)

	_, _, err = m.ListPlans(ctx, "not-a-uuid", 2)
	require.ErrorIs(t, err, ErrBadCursor)
}

func TestMemory_ListPlansUnknownCursor(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id := uuid.NewString()
	require.NoError(t, m.SavePlan(ctx, model.Plan{ID: id}))

	page, next, err := m.ListPlans(ctx, uuid.NewString(), 2)
	require.ErrorIs(t, err, ErrBadCursor)
	assert.Nil(t, page)
	assert.Empty(t, next)

	require.NoError(t, m.DeletePlan(ctx, id))
	_, _, err = m.ListPlans(ctx, id, 2)
	require.ErrorIs(t, err, ErrBadCursor)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultLimit, clampLimit(0))
	assert.Equal(t, 10, clampLimit(10))
	assert.Equal(t, maxLimit, clampLimit(maxLimit+1))
}
