package list

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sidkik/gpxsync/cmd/util"
	"github.com/sidkik/gpxsync/pkg/config"
	"github.com/sidkik/gpxsync/pkg/errors"
	"github.com/sidkik/gpxsync/pkg/identity"
	"github.com/sidkik/gpxsync/pkg/osm"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	connect                   = util.Connect
)

// New creates a new `list` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your traces on OpenStreetMap",
		Long: "List your traces on OpenStreetMap, with the identity that\n" +
			"`gpxsync sync` uses to detect traces that were already uploaded.\n" +
			"Traces without an identity are never matched with local files.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := Main(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

// Main prints the user's remote traces.
func Main() error {
	ctx := context.Background()

	cfg, err := parseUserConfig()
	if err != nil {
		return errors.WithContext(err, "read config")
	}

	client, err := connect(ctx, cfg)
	if err != nil {
		return errors.WithContext(err, "connect to OpenStreetMap")
	}

	traces, err := client.Traces(ctx)
	if err != nil {
		return errors.WithContext(err, "list traces")
	}

	printTraces(stdout, traces)
	return nil
}

func printTraces(w io.Writer, traces []osm.Trace) {
	if len(traces) == 0 {
		fmt.Fprintln(w, "No traces on OpenStreetMap.")
		return
	}

	out := tabwriter.NewWriter(w, 0, 10, 3, ' ', 0)
	defer out.Flush()

	fmt.Fprintln(out, "ID\tIDENTITY\tNAME\tVISIBILITY\tUPLOADED")
	for _, trace := range traces {
		id, ok := identity.Find(trace.Description)
		if !ok {
			id = "-"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n",
			orDash(trace.ID), id, orDash(trace.Name),
			orDash(trace.Visibility), orDash(trace.Timestamp))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
