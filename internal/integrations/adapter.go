package integrations

import (
    "context"
    "errors"
    "fmt"

    "courierplan/internal/model"
)

// StopSource loads the stops of a delivery run from an external system.
type StopSource interface {
    Name() string
    FetchStops(ctx context.Context) ([]model.StopIn, error)
}

// ErrEmpty is returned by sources that found no stops.
var ErrEmpty = errors.New("integrations: source has no stops")

// RowError points at the offending record in a tabular source.
type RowError struct {
    Row int
    Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }
