package routing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cache stores route summaries by key. ttl <= 0 means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) (Summary, bool, error)
	Set(ctx context.Context, key string, s Summary, ttl time.Duration) error
}

// RedisCache keeps summaries as JSON strings under a key prefix.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisCache(rdb redis.UniversalClient) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: "routing:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Summary, bool, error) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, fmt.Errorf("redis cache get: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(b, &s); err != nil {
		return Summary{}, false, fmt.Errorf("redis cache decode: %w", err)
	}
	return s, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, s Summary, ttl time.Duration) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, c.prefix+key, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

// SQLiteCache persists summaries in a local SQLite database so repeated
// CLI runs do not hit the service.
type SQLiteCache struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSQLiteCache(ctx context.Context, db *sql.DB) (*SQLiteCache, error) {
	if db == nil {
		return nil, errors.New("sqlite cache: db is nil")
	}
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS routing_cache (
		key TEXT PRIMARY KEY,
		distance_km REAL NOT NULL,
		duration_minutes REAL NOT NULL,
		expires_at INTEGER NOT NULL
	);`)
	if err != nil {
		return nil, fmt.Errorf("sqlite cache: create table: %w", err)
	}
	return &SQLiteCache{DB: db, now: time.Now}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (Summary, bool, error) {
	var (
		s       Summary
		expires int64
	)
	err := c.DB.QueryRowContext(ctx,
		`SELECT distance_km, duration_minutes, expires_at FROM routing_cache WHERE key = ?`, key,
	).Scan(&s.DistanceKm, &s.DurationMinutes, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, fmt.Errorf("sqlite cache get: %w", err)
	}
	if expires > 0 && c.now().Unix() >= expires {
		return Summary{}, false, nil
	}
	return s, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, s Summary, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = c.now().Add(ttl).Unix()
	}
	_, err := c.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO routing_cache (key, distance_km, duration_minutes, expires_at)
	VALUES (?, ?, ?, ?)`, key, s.DistanceKm, s.DurationMinutes, expires)
	if err != nil {
		return fmt.Errorf("sqlite cache set: %w", err)
	}
	return nil
}
