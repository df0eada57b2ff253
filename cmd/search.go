package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/map-explorer/internal/model"
	"github.com/sells-group/map-explorer/internal/search"
)

var searchCategory string

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Filter the location store by name, description and category",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}

		rs := search.Search(st.Records(), strings.Join(args, " "), model.Category(searchCategory))
		printResults(cmd.OutOrStdout(), rs)
		return nil
	},
}

func printResults(out io.Writer, rs model.ResultSet) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tCOORDINATES")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t-----------")
	for _, r := range rs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Category, r.Coordinates().Short())
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d location(s)\n", len(rs))
}

func init() {
	searchCmd.Flags().StringVar(&searchCategory, "category", string(model.CategoryAll), "category to match (\"all\" matches any)")
	rootCmd.AddCommand(searchCmd)
}
