package login

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/gpxsync/cmd/util"
	"github.com/sidkik/gpxsync/pkg/config"
	"github.com/sidkik/gpxsync/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	tokenSource               = util.TokenSource
)

// New creates a new `login` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize gpxsync to read and upload your OpenStreetMap traces",
		Long: "Authorize gpxsync to read and upload your OpenStreetMap traces.\n\n" +
			"A browser is opened on the OpenStreetMap authorization page. The\n" +
			"access token is saved, and replaces any previously saved token.\n" +
			"`gpxsync sync` authorizes automatically when it has no valid token,\n" +
			"so this is only needed to switch accounts.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := Main(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

// Main authorizes gpxsync and saves the new access token.
func Main() error {
	cfg, err := parseUserConfig()
	if err != nil {
		return errors.WithContext(err, "read config")
	}

	if _, err := tokenSource(cfg).Renew(context.Background()); err != nil {
		return errors.WithContext(err, "get access token")
	}

	fmt.Fprintln(stdout, "Successfully logged in.")
	return nil
}
