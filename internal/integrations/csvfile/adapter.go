// Package csvfile reads stops from CSV files shaped
// label,lat,lng[,dwell_minutes]. A header row is detected and skipped.
package csvfile

import (
    "context"
    "encoding/csv"
    "errors"
    "fmt"
    "io"
    "os"
    "strconv"
    "strings"

    "courierplan/internal/integrations"
    "courierplan/internal/model"
)

type Source struct {
    Path string
}

func (s Source) Name() string { return "csv-file" }

func (s Source) FetchStops(ctx context.Context) ([]model.StopIn, error) {
    f, err := os.Open(s.Path)
    if err != nil {
        return nil, fmt.Errorf("open %s: %w", s.Path, err)
    }
    defer f.Close()
    return Parse(ctx, f)
}

// Parse reads stops from r. Blank dwell cells leave DwellMinutes unset so the
// planner default applies.
func Parse(ctx context.Context, r io.Reader) ([]model.StopIn, error) {
    cr := csv.NewReader(r)
    cr.FieldsPerRecord = -1
    cr.TrimLeadingSpace = true
    cr.Comment = '#'

    var out []model.StopIn
    for row := 1; ; row++ {
        if err := ctx.Err(); err != nil {
            return nil, err
        }
        rec, err := cr.Read()
        if errors.Is(err, io.EOF) {
            break
        }
        if err != nil {
            return nil, &integrations.RowError{Row: row, Err: err}
        }
        if row == 1 && isHeader(rec) {
            continue
        }
        st, err := parseRecord(rec)
        if err != nil {
            return nil, &integrations.RowError{Row: row, Err: err}
        }
        out = append(out, st)
    }
    if len(out) == 0 {
        return nil, integrations.ErrEmpty
    }
    return out, nil
}

func isHeader(rec []string) bool {
    if len(rec) < 3 {
        return false
    }
    _, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
    return err != nil
}

func parseRecord(rec []string) (model.StopIn, error) {
    if len(rec) < 3 || len(rec) > 4 {
        return model.StopIn{}, fmt.Errorf("want 3 or 4 fields, got %d", len(rec))
    }
    lat, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
    if err != nil {
        return model.StopIn{}, fmt.Errorf("lat: %w", err)
    }
    lng, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
    if err != nil {
        return model.StopIn{}, fmt.Errorf("lng: %w", err)
    }
    st := model.StopIn{Label: strings.TrimSpace(rec[0]), Location: &model.GeoPoint{Lat: lat, Lng: lng}}
    if len(rec) == 4 && strings.TrimSpace(rec[3]) != "" {
        d, err := strconv.Atoi(strings.TrimSpace(rec[3]))
        if err != nil {
            return model.StopIn{}, fmt.Errorf("dwell_minutes: %w", err)
        }
        st.DwellMinutes = &d
    }
    return st, nil
}
