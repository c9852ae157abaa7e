// Package reconcile decides which local traces need to be uploaded.
//
// Each trace is identified by the minute it starts (see package identity).
// The engine starts from the identities already on the server, and walks the
// local traces in name order: traces whose identity is already known are
// skipped, the others are uploaded. Every successful upload adds its identity
// to the known set, so two local files that start in the same minute are only
// uploaded once.
package reconcile

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/gpxsync/pkg/gpx"
	"github.com/sidkik/gpxsync/pkg/identity"
)

// Outcome is the final state of a trace after reconciliation.
type Outcome int

const (
	// Uploaded traces were new and were successfully uploaded.
	Uploaded Outcome = iota

	// Skipped traces were already on the server, or were uploaded earlier in
	// the same run.
	Skipped

	// Errored traces were new, but failed to upload.
	Errored
)

func (o Outcome) String() string {
	switch o {
	case Uploaded:
		return "uploaded"
	case Skipped:
		return "skipped"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Uploader uploads a single trace file.
type Uploader interface {
	// Upload uploads the file at `path` with the identity embedded in its
	// description, and returns the remote ID of the new trace.
	Upload(ctx context.Context, path, id string) (string, error)
}

// FileResult is the outcome of reconciling one trace file.
type FileResult struct {
	File     TraceFile
	Identity string
	Outcome  Outcome

	// FromModTime is true if the trace had no usable timestamp, and its
	// identity was derived from the file's modification time instead.
	FromModTime bool

	// RemoteID is set for uploaded traces.
	RemoteID string

	// Err is set for errored traces.
	Err error
}

// Result is the outcome of a reconciliation run.
type Result struct {
	Uploaded, Skipped, Errored int
	Files                      []FileResult
}

// Total returns the number of trace files that were reconciled.
func (r Result) Total() int {
	return r.Uploaded + r.Skipped + r.Errored
}

// Engine reconciles local trace files with the server.
type Engine struct {
	fs       afero.Fs
	uploader Uploader
	seen     identity.Set
	log      log.FieldLogger

	// Progress, if set, is called with each file's result as soon as it's
	// known.
	Progress func(FileResult)
}

// New creates an Engine that treats the identities in `remote` as already
// uploaded. The engine takes ownership of `remote` and adds to it as traces
// are uploaded.
func New(fs afero.Fs, uploader Uploader, remote identity.Set, logger log.FieldLogger) *Engine {
	if remote == nil {
		remote = identity.NewSet()
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Engine{
		fs:       fs,
		uploader: uploader,
		seen:     remote,
		log:      logger,
	}
}

// Seen returns the identities that are known to be on the server.
func (e *Engine) Seen() identity.Set {
	return e.seen
}

// Run reconciles `files` one at a time, in the order of their names.
// Failures are recorded in the per-file results rather than returned, so
// every file is always processed.
func (e *Engine) Run(ctx context.Context, files []TraceFile) Result {
	ordered := make([]TraceFile, len(files))
	copy(ordered, files)
	sortByName(ordered)

	var res Result
	for _, file := range ordered {
		fileRes := e.reconcile(ctx, file)
		switch fileRes.Outcome {
		case Uploaded:
			res.Uploaded++
		case Skipped:
			res.Skipped++
		case Errored:
			res.Errored++
		}
		res.Files = append(res.Files, fileRes)

		if e.Progress != nil {
			e.Progress(fileRes)
		}
	}
	return res
}

func (e *Engine) reconcile(ctx context.Context, file TraceFile) FileResult {
	res := FileResult{File: file}

	start, ok := gpx.ExtractFile(e.fs, file.Path)
	if !ok {
		start = file.ModTime
		res.FromModTime = true
	}
	res.Identity = identity.Format(start)

	logger := e.log.WithFields(log.Fields{
		"file":     file.Name,
		"identity": res.Identity,
	})
	if res.FromModTime {
		logger.Debug("No timestamp found, using the file modification time")
	}

	if e.seen.Has(res.Identity) {
		logger.Debug("Trace already uploaded")
		res.Outcome = Skipped
		return res
	}

	remoteID, err := e.uploader.Upload(ctx, file.Path, res.Identity)
	if err != nil {
		logger.WithError(err).Warn("Failed to upload trace")
		res.Outcome = Errored
		res.Err = err
		return res
	}

	e.seen.Add(res.Identity)
	logger.WithField("remoteID", remoteID).Debug("Uploaded trace")
	res.Outcome = Uploaded
	res.RemoteID = remoteID
	return res
}
