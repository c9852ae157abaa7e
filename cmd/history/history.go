package history

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
	"github.com/sidkik/gpxsync/pkg/journal"
)

const timeLayout = "2006-01-02 15:04:05"

// Mocked for unit testing.
var (
	stdout      io.Writer = os.Stdout
	historyPath           = config.GetHistoryPath
)

// New creates a new `history` command.
func New() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the traces uploaded by gpxsync from this machine",
		Run: func(_ *cobra.Command, _ []string) {
			if err := Main(limit); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20,
		"The maximum number of uploads to show. Zero shows every upload.")
	return cmd
}

// Main prints the `limit` most recent uploads.
func Main(limit int) error {
	path, err := historyPath()
	if err != nil {
		return errors.WithContext(err, "get history path")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(stdout, "No uploads recorded yet.")
		return nil
	}

	history, err := journal.Open(path)
	if err != nil {
		return errors.WithContext(err, "open history")
	}
	defer history.Close()

	entries, err := history.Recent(context.Background(), limit)
	if err != nil {
		return errors.WithContext(err, "read history")
	}

	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No uploads recorded yet.")
		return nil
	}

	out := tabwriter.NewWriter(stdout, 0, 10, 3, ' ', 0)
	defer out.Flush()

	fmt.Fprintln(out, "UPLOADED\tIDENTITY\tTRACE ID\tFILE")
	for _, entry := range entries {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
			entry.UploadedAt.Local().Format(timeLayout),
			entry.Identity, entry.RemoteID, entry.File)
	}
	return nil
}
