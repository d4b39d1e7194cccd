package store

import (
    "context"
    "database/sql"
    "embed"
    "encoding/json"
    "errors"
    "fmt"
    "io/fs"
    "sort"
    "time"

    _ "github.com/jackc/pgx/v5/stdlib"
    "github.com/google/uuid"

    "courierplan/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        _ = db.Close()
        return nil, err
    }
    return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Migrate applies the embedded schema files in name order. Every file is
// written to be idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
    names, err := fs.Glob(migrations, "migrations/*.sql")
    if err != nil { return err }
    sort.Strings(names)
    for _, name := range names {
        b, err := migrations.ReadFile(name)
        if err != nil { return err }
        if _, err := p.db.ExecContext(ctx, string(b)); err != nil {
            return fmt.Errorf("migrate %s: %w", name, err)
        }
    }
    return nil
}

func (p *Postgres) SavePlan(ctx context.Context, pl model.Plan) error {
    id, err := uuid.Parse(pl.ID)
    if err != nil { return fmt.Errorf("save plan: bad id %q: %w", pl.ID, err) }
    if pl.CreatedAt.IsZero() { pl.CreatedAt = time.Now().UTC() }
    body, err := json.Marshal(pl)
    if err != nil { return fmt.Errorf("save plan: encode: %w", err) }
    sum := pl.Summary()
    _, err = p.db.ExecContext(ctx, `
        INSERT INTO plans (id, created_at, strategy, couriers, stop_count, imbalance, body)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (id) DO UPDATE SET strategy=EXCLUDED.strategy, couriers=EXCLUDED.couriers,
            stop_count=EXCLUDED.stop_count, imbalance=EXCLUDED.imbalance, body=EXCLUDED.body`,
        id, pl.CreatedAt, pl.Strategy, pl.Couriers, sum.Stops, pl.Imbalance, body)
    if err != nil { return fmt.Errorf("save plan: %w", err) }
    return nil
}

func (p *Postgres) GetPlan(ctx context.Context, id string) (model.Plan, error) {
    if _, err := uuid.Parse(id); err != nil { return model.Plan{}, ErrNotFound }
    var body []byte
    err := p.db.QueryRowContext(ctx, `SELECT body FROM plans WHERE id=$1`, id).Scan(&body)
    if errors.Is(err, sql.ErrNoRows) { return model.Plan{}, ErrNotFound }
    if err != nil { return model.Plan{}, fmt.Errorf("get plan: %w", err) }
    var pl model.Plan
    if err := json.Unmarshal(body, &pl); err != nil { return model.Plan{}, fmt.Errorf("get plan: decode: %w", err) }
    return pl, nil
}

// ListPlans pages by (created_at, id) keyset. The cursor is the id of the
// last row of the previous page.
func (p *Postgres) ListPlans(ctx context.Context, cursor string, limit int) ([]model.PlanSummary, string, error) {
    limit = clampLimit(limit)
    var (
        rows *sql.Rows
        err  error
    )
    const cols = `id::text, created_at, strategy, couriers, stop_count, imbalance`
    if cursor == "" {
        rows, err = p.db.QueryContext(ctx, `SELECT `+cols+` FROM plans ORDER BY created_at DESC, id DESC LIMIT $1`, limit+1)
    } else {
        if _, perr := uuid.Parse(cursor); perr != nil { return nil, "", fmt.Errorf("%w: %v", ErrBadCursor, perr) }
        var known bool
        if err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM plans WHERE id=$1)`, cursor).Scan(&known); err != nil {
            return nil, "", fmt.Errorf("list plans: cursor: %w", err)
        }
        if !known { return nil, "", fmt.Errorf("%w: unknown plan %s", ErrBadCursor, cursor) }
        rows, err = p.db.QueryContext(ctx, `SELECT `+cols+` FROM plans
            WHERE (created_at, id) < (SELECT created_at, id FROM plans WHERE id=$1)
            ORDER BY created_at DESC, id DESC LIMIT $2`, cursor, limit+1)
    }
    if err != nil { return nil, "", fmt.Errorf("list plans: %w", err) }
    defer rows.Close()
    out := []model.PlanSummary{}
    for rows.Next() {
        var s model.PlanSummary
        if err := rows.Scan(&s.ID, &s.CreatedAt, &s.Strategy, &s.Couriers, &s.Stops, &s.Imbalance); err != nil {
            return nil, "", fmt.Errorf("list plans: scan: %w", err)
        }
        out = append(out, s)
    }
    if err := rows.Err(); err != nil { return nil, "", fmt.Errorf("list plans: %w", err) }
    next := ""
    if len(out) > limit {
        out = out[:limit]
        next = out[limit-1].ID
    }
    return out, next, nil
}

func (p *Postgres) DeletePlan(ctx context.Context, id string) error {
    if _, err := uuid.Parse(id); err != nil { return ErrNotFound }
    res, err := p.db.ExecContext(ctx, `DELETE FROM plans WHERE id=$1`, id)
    if err != nil { return fmt.Errorf("delete plan: %w", err) }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}
