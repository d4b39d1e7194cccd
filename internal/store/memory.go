package store

import (
    "context"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"
    "courierplan/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu    sync.Mutex
    plans map[string]model.Plan // id -> plan
    order []string              // ids, oldest first
}

func NewMemory() *Memory {
    return &Memory{plans: map[string]model.Plan{}}
}

func (m *Memory) SavePlan(ctx context.Context, p model.Plan) error {
    if p.ID == "" { return fmt.Errorf("save plan: empty id") }
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.plans[p.ID]; !ok {
        m.order = append(m.order, p.ID)
    }
    if p.CreatedAt.IsZero() { p.CreatedAt = time.Now().UTC() }
    m.plans[p.ID] = p
    return nil
}

func (m *Memory) GetPlan(ctx context.Context, id string) (model.Plan, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    p, ok := m.plans[id]
    if !ok { return model.Plan{}, ErrNotFound }
    return p, nil
}

// ListPlans walks insertion order backwards. The cursor is the id of the
// last item of the previous page.
func (m *Memory) ListPlans(ctx context.Context, cursor string, limit int) ([]model.PlanSummary, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    limit = clampLimit(limit)
    start := len(m.order) - 1
    if cursor != "" {
        if _, err := uuid.Parse(cursor); err != nil {
            return nil, "", fmt.Errorf("%w: %v", ErrBadCursor, err)
        }
        start = -2
        for i, id := range m.order {
            if id == cursor { start = i - 1; break }
        }
        if start == -2 {
            return nil, "", fmt.Errorf("%w: unknown plan %s", ErrBadCursor, cursor)
        }
    }
    out := []model.PlanSummary{}
    next := ""
    for i := start; i >= 0; i-- {
        if len(out) == limit {
            next = out[len(out)-1].ID
            break
        }
        out = append(out, m.plans[m.order[i]].Summary())
    }
    return out, next, nil
}

func (m *Memory) DeletePlan(ctx context.Context, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.plans[id]; !ok { return ErrNotFound }
    delete(m.plans, id)
    for i, v := range m.order {
        if v == id {
            m.order = append(m.order[:i], m.order[i+1:]...)
            break
        }
    }
    return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
