package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/map-explorer/internal/locate"
	"github.com/sells-group/map-explorer/internal/model"
)

var locateIP string

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Find the current position with the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		probe, closeProbe, err := initProbe()
		if err != nil {
			return err
		}
		defer closeProbe()

		ctx := cmd.Context()
		if locateIP != "" {
			ctx = locate.WithRequester(ctx, locateIP)
		}

		pos, err := probe.Locate(ctx, locateOptions())
		if err != nil {
			le := locate.Classify(err)
			return eris.Wrap(le, le.Message())
		}

		out := cmd.OutOrStdout()
		c := model.Coordinates{Lat: pos.Lat, Lng: pos.Lng}
		_, _ = fmt.Fprintf(out, "📍 Coordinates: %s\n", c)
		if pos.Accuracy > 0 {
			_, _ = fmt.Fprintf(out, "Accuracy: %.0f m\n", pos.Accuracy)
		}
		return nil
	},
}

func init() {
	locateCmd.Flags().StringVar(&locateIP, "ip", "", "IP address to locate (geoip provider)")
	rootCmd.AddCommand(locateCmd)
}
