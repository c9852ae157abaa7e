package version

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/gpxsync/cmd/util"
	"github.com/sidkik/gpxsync/pkg/config"
	"github.com/sidkik/gpxsync/pkg/errors"
	"github.com/sidkik/gpxsync/pkg/osm"
	"github.com/sidkik/gpxsync/pkg/version"
)

// Mocked for unit testing.
var (
	stdout         io.Writer = os.Stdout
	readUserConfig           = config.ReadUser
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of gpxsync and of the OpenStreetMap API.",
		Run: func(_ *cobra.Command, args []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	fmt.Fprintf(stdout, "local version:       %s\n", version.Version)

	client := osm.NewClient(getAPIURL(), "", util.HTTPClient)
	versions, err := client.APIVersions(context.Background())
	if err != nil {
		return errors.WithContext(err, "get API versions")
	}

	var names []string
	for _, v := range versions {
		names = append(names, v.Original())
	}
	fmt.Fprintf(stdout, "server API versions: %s\n", strings.Join(names, ", "))
	return nil
}

func getAPIURL() string {
	userConfig, err := readUserConfig()
	if err != nil {
		log.WithError(err).Debugf("Failed to read %s. Falling back to %s",
			config.UserConfigPath, osm.DefaultAPIURL)
		return osm.DefaultAPIURL
	}
	return userConfig.GetAPIURL()
}
