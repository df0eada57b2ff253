package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/map-explorer/internal/model"
	"github.com/sells-group/map-explorer/internal/scene"
)

var locationsFormat string

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Print the configured location store",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		rs := model.ResultSet(st.Records())
		out := cmd.OutOrStdout()

		switch locationsFormat {
		case "table":
			printResults(out, rs)
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(rs), "encode json")
		case "yaml":
			data, err := yaml.Marshal(map[string]any{"locations": []model.LocationRecord(rs)})
			if err != nil {
				return eris.Wrap(err, "encode yaml")
			}
			_, _ = out.Write(data)
		case "geojson":
			data, err := scene.FeatureCollection(rs)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, string(data))
		default:
			return eris.Errorf("unsupported format: %s", locationsFormat)
		}
		return nil
	},
}

func init() {
	locationsCmd.Flags().StringVar(&locationsFormat, "format", "table", "output format: table, json, yaml, geojson")
	rootCmd.AddCommand(locationsCmd)
}
