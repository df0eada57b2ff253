package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/map-explorer/internal/model"
	"github.com/sells-group/map-explorer/pkg/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Resolve a free-text address to coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := initGeocoder().ForwardGeocode(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return eris.Wrap(err, "Search failed: "+geocode.Reason(err))
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Found: %s\n", rec.Name)
		_, _ = fmt.Fprintf(out, "📍 Coordinates: %s\n", rec.Coordinates())
		return nil
	},
}

var reverseCmd = &cobra.Command{
	Use:   "reverse <lat> <lng>",
	Short: "Look up the address at a coordinate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return eris.Wrapf(err, "invalid latitude %q", args[0])
		}
		lng, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrapf(err, "invalid longitude %q", args[1])
		}
		c := model.Coordinates{Lat: lat, Lng: lng}
		if !c.Valid() {
			return eris.Errorf("coordinates out of range: %s", c)
		}

		info := geocode.ReverseGeocode(cmd.Context(), initGeocoder(), lat, lng)
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "📍 Address: %s\n", info.Address)
		_, _ = fmt.Fprintf(out, "📍 Coordinates: %s\n", c)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	rootCmd.AddCommand(reverseCmd)
}
