package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	configCmd "github.com/sidkik/gpxsync/cmd/config"
	"github.com/sidkik/gpxsync/cmd/history"
	"github.com/sidkik/gpxsync/cmd/list"
	"github.com/sidkik/gpxsync/cmd/login"
	"github.com/sidkik/gpxsync/cmd/sync"
	"github.com/sidkik/gpxsync/cmd/util"
	"github.com/sidkik/gpxsync/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "GPXSYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "gpxsync",
		Short: "Upload a directory of GPX traces to OpenStreetMap without duplicates",
		Long: "gpxsync uploads the GPX traces of a directory to your OpenStreetMap\n" +
			"account. Traces that are already on OpenStreetMap are detected from\n" +
			"their description and skipped, so a directory can be synced\n" +
			"repeatedly.",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose || os.Getenv(verboseLogKey) == "true" {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Log debug messages. Also enabled by setting "+verboseLogKey+"=true.")
	rootCmd.AddCommand(
		configCmd.New(),
		history.New(),
		list.New(),
		login.New(),
		sync.New(),
		version.New(),
	)
	return rootCmd
}
