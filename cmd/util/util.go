package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/gpxsync/pkg/errors"
)

// Mocked for unit testing.
var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// HandleFatalError prints the error to the user and exits. Friendly errors
// are printed without the context they were wrapped in.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	fmt.Fprintln(stderr, errors.GetPrintableMessage(err))
	exit(1)
}

// HandlePanic logs a panic and exits. It must be deferred directly.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Error("Unexpected panic")
		fmt.Fprintf(stderr, "Unexpected panic: %v\n", r)
		exit(1)
	}
}
