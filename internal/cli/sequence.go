package cli

import (
	"github.com/spf13/cobra"

	"courierplan/internal/model"
	"courierplan/internal/planner"
)

func sequenceCmd(a *app) *cobra.Command {
	var rf routeFlags

	c := &cobra.Command{
		Use:   "sequence",
		Short: "Order one courier's stops by nearest neighbour",
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
			route, err := planner.New(a.cfg.Engine, nil).Sequence(cmd.Context(), model.SequenceRequest{
				Origin:       origin,
				Destination:  dest,
				Stops:        stops,
				RouteOptions: ro,
			})
			if err != nil {
				return err
			}
			return printRoute(cmd.OutOrStdout(), route, rf.format)
		},
	}

	c.Flags().StringVar(&rf.origin, "origin", "", "Start point as lat,lng (required)")
	c.Flags().StringVar(&rf.destination, "destination", "", "End point as lat,lng (defaults to origin)")
	c.Flags().StringVar(&rf.stops, "stops", "", "CSV file: label,lat,lng[,dwell_minutes] (required)")
	c.Flags().StringSliceVar(&rf.avoid, "avoid", nil, "Road features to avoid in the share link: highways,tolls,ferries")
	c.Flags().StringVar(&rf.format, "format", "pretty", "Output format: pretty|json")

	_ = c.MarkFlagRequired("origin")
	_ = c.MarkFlagRequired("stops")
	return c
}
