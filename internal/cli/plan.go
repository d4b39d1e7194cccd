package cli

import (
	"github.com/spf13/cobra"

	"courierplan/internal/model"
	"courierplan/internal/planner"
)

func planCmd(a *app) *cobra.Command {
	var (
		rf          routeFlags
		couriers    int
		seed        int64
		iterations  int
		temperature float64
		cooling     float64
		textbook    bool
		enrich      bool
		cacheDB     string
	)

	c := &cobra.Command{
		Use:   "plan",
		Short: "Split stops between couriers and sequence every route",
		RunE: func(cmd *cobra.Command, _ []string) error {
			origin, dest, err := rf.endpoints()
			if err != nil {
				return err
			}
			stops, err := rf.loadStops(cmd.Context())
			if err != nil {
				return err
			}
			ro, err := rf.routeOptions()
			if err != nil {
				return err
			}

			var router planner.Router
			if enrich {
				rc, closeCache, err := routingClient(cmd.Context(), a.cfg.Routing, cacheDB)
				if err != nil {
					return err
				}
				defer closeCache()
				router = rc
			}

			svc := planner.New(a.cfg.Engine, router)
			plan, err := svc.Plan(cmd.Context(), model.PlanRequest{
				Origin:        origin,
				Destination:   dest,
				Stops:         stops,
				Couriers:      couriers,
				Seed:          seed,
				MaxIterations: iterations,
				Temperature:   temperature,
				CoolingRate:   cooling,
				Textbook:      textbook,
				RouteOptions:  ro,
				Enrich:        enrich,
			})
			if err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), plan, rf.format)
		},
	}

	c.Flags().StringVar(&rf.origin, "origin", "", "Start point as lat,lng (required)")
	c.Flags().StringVar(&rf.destination, "destination", "", "End point as lat,lng (defaults to origin)")
	c.Flags().StringVar(&rf.stops, "stops", "", "CSV file: label,lat,lng[,dwell_minutes] (required)")
	c.Flags().StringSliceVar(&rf.avoid, "avoid", nil, "Road features to avoid in share links: highways,tolls,ferries")
	c.Flags().StringVar(&rf.format, "format", "pretty", "Output format: pretty|json")
	c.Flags().IntVarP(&couriers, "couriers", "n", 2, "Number of couriers")
	c.Flags().Int64Var(&seed, "seed", 0, "Random seed for the balancer (0 = time based)")
	c.Flags().IntVar(&iterations, "iterations", 0, "Annealing iterations (0 = config default)")
	c.Flags().Float64Var(&temperature, "temperature", 0, "Initial annealing temperature (0 = config default)")
	c.Flags().Float64Var(&cooling, "cooling", 0, "Cooling rate in (0,1) (0 = config default)")
	c.Flags().BoolVar(&textbook, "textbook", false, "Only keep strictly better partitions as best")
	c.Flags().BoolVar(&enrich, "enrich", false, "Attach road distance/duration from the routing service")
	c.Flags().StringVar(&cacheDB, "cache-db", "", "SQLite file caching routing results (with --enrich)")

	_ = c.MarkFlagRequired("origin")
	_ = c.MarkFlagRequired("stops")
	return c
}
