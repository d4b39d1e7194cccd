package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"courierplan/internal/api"
	"courierplan/internal/buildinfo"
)

func serveCmd(a *app) *cobra.Command {
	var addr string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return api.Run(ctx, cfg)
		},
	}
	c.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return c
}

func geocodeCmd(a *app) *cobra.Command {
	var country string
	c := &cobra.Command{
		Use:   "geocode <address>",
		Short: "Resolve an address to lat,lng for use with --origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, closeCache, err := routingClient(cmd.Context(), a.cfg.Routing, "")
			if err != nil {
				return err
			}
			defer closeCache()
			p, err := rc.Geocode(cmd.Context(), args[0], country)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g,%g\n", p.Lat, p.Lng)
			return nil
		},
	}
	c.Flags().StringVar(&country, "country", "", "ISO 3166-1 alpha-2 country filter, e.g. JP")
	return c
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// skip config loading
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			return nil
		},
	}
}
