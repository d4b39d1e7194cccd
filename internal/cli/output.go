package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"courierplan/internal/model"
)

func printPlan(w io.Writer, p model.Plan, format string) error {
	switch format {
	case "json":
		return writeIndented(w, p)
	case "pretty", "":
	default:
		return fmt.Errorf("unknown format %q (pretty|json)", format)
	}

	fmt.Fprintf(w, "strategy: %s  couriers: %d  imbalance: %.1f min\n", p.Strategy, p.Couriers, p.Imbalance)
	if p.Stats != nil {
		fmt.Fprintf(w, "seed: %d  iterations: %d  accepted: %d (worse %d)\n",
			p.Stats.Seed, p.Stats.Iterations, p.Stats.Accepted, p.Stats.AcceptedWorse)
	}
	for _, r := range p.Routes {
		fmt.Fprintln(w)
		if err := printRoute(w, r, "pretty"); err != nil {
			return err
		}
	}
	return nil
}

func printRoute(w io.Writer, r model.RouteOut, format string) error {
	switch format {
	case "json":
		return writeIndented(w, r)
	case "pretty", "":
	default:
		return fmt.Errorf("unknown format %q (pretty|json)", format)
	}

	fmt.Fprintf(w, "courier %d: %s, %.2f km", r.Courier, r.Duration, r.DistanceKm)
	if r.Road != nil {
		fmt.Fprintf(w, " (road: %.0f min, %.2f km)", r.Road.DurationMinutes, r.Road.DistanceKm)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tlabel\tlat,lng\tdwell")
	for i, s := range r.Stops {
		label := s.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(tw, "  %d\t%s\t%g,%g\t%dm\n", i, label, s.Location.Lat, s.Location.Lng, s.DwellMinutes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if r.ShareURL != "" {
		fmt.Fprintln(w, "  map:", r.ShareURL)
	}
	return nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
