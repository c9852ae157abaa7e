package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/buger/goterm"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sidkik/gpxsync/cmd/util"
	"github.com/sidkik/gpxsync/pkg/config"
	"github.com/sidkik/gpxsync/pkg/errors"
	"github.com/sidkik/gpxsync/pkg/journal"
	"github.com/sidkik/gpxsync/pkg/metrics"
	"github.com/sidkik/gpxsync/pkg/osm"
	"github.com/sidkik/gpxsync/pkg/reconcile"
)

// Mocked for unit testing.
var (
	stdout      io.Writer = os.Stdout
	fs                    = afero.NewOsFs()
	clock                 = clockwork.NewRealClock()
	colorize              = goterm.Color
	historyPath           = config.GetHistoryPath
)

// Options are the command line options of `gpxsync sync`.
type Options struct {
	// MetricsFile is where to write a Prometheus report of the run. No
	// report is written if it's empty.
	MetricsFile string

	// NoHistory disables recording uploads in the local journal.
	NoHistory bool
}

// New creates a new `sync` command.
func New() *cobra.Command {
	var opts Options
	cmd := &cobra.Command{
		Use:   "sync DIRECTORY",
		Short: "Upload the GPX traces in DIRECTORY that aren't on OpenStreetMap yet",
		Long: "Upload the GPX traces in DIRECTORY that aren't on OpenStreetMap yet.\n\n" +
			"Each trace is identified by the time of its earliest point, which is\n" +
			"stored at the start of the trace's description. Traces whose identity\n" +
			"is already used by a trace on OpenStreetMap are skipped.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := Main(args[0], opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "",
		"Write a Prometheus textfile report of the run to this path.")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false,
		"Don't record uploaded traces in the local history.")
	return cmd
}

// Main uploads the traces in `dir` that aren't on the server yet.
func Main(dir string, opts Options) error {
	ctx := context.Background()

	cfg, err := config.ParseUser()
	if err != nil {
		return errors.WithContext(err, "read config")
	}

	files, err := reconcile.Discover(fs, dir)
	if err != nil {
		return errors.WithContext(err, "find traces")
	}
	if len(files) == 0 {
		return errors.NewFriendlyError("No GPX files found in %q.", dir)
	}
	fmt.Fprintf(stdout, "Found %d GPX file(s) in %s\n", len(files), dir)

	client, err := util.Connect(ctx, cfg)
	if err != nil {
		return errors.WithContext(err, "connect to OpenStreetMap")
	}

	if err := client.CheckAPIVersion(ctx); err != nil {
		log.WithError(err).Warn("Failed to confirm that the server supports " +
			"the trace API. Continuing anyway")
	}

	runID := uuid.NewString()
	logger := log.WithField("run", runID)
	start := clock.Now()

	remote := client.Inventory(ctx)
	inventorySize := len(remote)
	fmt.Fprintf(stdout, "Found %d trace(s) on OpenStreetMap\n\n", inventorySize)

	uploader := osm.Uploader{
		Client:  client,
		Fs:      fs,
		Options: cfg.UploadOptions(),
	}
	engine := reconcile.New(fs, uploader, remote, logger)

	history := openHistory(opts)
	if history != nil {
		defer history.Close()
	}

	engine.Progress = func(res reconcile.FileResult) {
		fmt.Fprintln(stdout, progressLine(res))
		if history != nil && res.Outcome == reconcile.Uploaded {
			recordUpload(ctx, history, runID, res)
		}
	}
	result := engine.Run(ctx, files)

	finished := clock.Now()
	logger.WithFields(log.Fields{
		"uploaded": result.Uploaded,
		"skipped":  result.Skipped,
		"errored":  result.Errored,
		"duration": finished.Sub(start),
	}).Debug("Finished reconciling traces")

	if opts.MetricsFile != "" {
		report := metrics.NewReport()
		report.Observe(result, inventorySize, finished.Sub(start), finished)
		if err := report.WriteFile(opts.MetricsFile); err != nil {
			log.WithError(err).WithField("path", opts.MetricsFile).Warn(
				"Failed to write metrics report")
		}
	}

	fmt.Fprint(stdout, summary(result))
	return nil
}

// openHistory opens the upload journal. It returns nil if the history is
// disabled or can't be opened, since it's not needed to sync.
func openHistory(opts Options) *journal.Journal {
	if opts.NoHistory {
		return nil
	}

	path, err := historyPath()
	if err != nil {
		log.WithError(err).Warn("Failed to get history path. Uploads won't be recorded")
		return nil
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		log.WithError(err).Warn("Failed to create history directory. Uploads won't be recorded")
		return nil
	}

	history, err := journal.Open(path)
	if err != nil {
		log.WithError(err).Warn("Failed to open history. Uploads won't be recorded")
		return nil
	}
	return history
}

func recordUpload(ctx context.Context, history *journal.Journal, runID string, res reconcile.FileResult) {
	err := history.Record(ctx, journal.Entry{
		RunID:      runID,
		File:       res.File.Path,
		Identity:   res.Identity,
		RemoteID:   res.RemoteID,
		UploadedAt: clock.Now(),
	})
	if err != nil {
		log.WithError(err).WithField("file", res.File.Name).Warn(
			"Failed to record upload in history")
	}
}

func progressLine(res reconcile.FileResult) string {
	id := res.Identity
	if res.FromModTime {
		id += " (from modification time)"
	}

	switch res.Outcome {
	case reconcile.Uploaded:
		return fmt.Sprintf("%s %s: %s, trace %s",
			colorize("uploaded", goterm.GREEN), res.File.Name, id, res.RemoteID)
	case reconcile.Skipped:
		return fmt.Sprintf("%s  %s: %s, already on OpenStreetMap",
			colorize("skipped", goterm.YELLOW), res.File.Name, id)
	default:
		return fmt.Sprintf("%s  %s: %s, %s",
			colorize("errored", goterm.RED), res.File.Name, id,
			errors.GetPrintableMessage(res.Err))
	}
}

func summary(res reconcile.Result) string {
	var sb strings.Builder
	fmt.Fprintln(&sb)
	fmt.Fprintf(&sb, "Synced %d trace(s):\n", res.Total())
	fmt.Fprintf(&sb, "  Uploaded: %s\n", colorize(fmt.Sprint(res.Uploaded), goterm.GREEN))
	fmt.Fprintf(&sb, "  Skipped:  %s\n", colorize(fmt.Sprint(res.Skipped), goterm.YELLOW))

	errColor := goterm.GREEN
	if res.Errored > 0 {
		errColor = goterm.RED
	}
	fmt.Fprintf(&sb, "  Errored:  %s\n", colorize(fmt.Sprint(res.Errored), errColor))
	return sb.String()
}
