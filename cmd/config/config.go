package config

import (
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
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	readUserConfig            = config.ReadUser
	writeUserConfig           = config.WriteUser
	getConfigPath             = config.GetUserConfigPath
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the gpxsync user configuration",
		Long: "Setup the gpxsync user configuration.\n\n" +
			"Only the given flags are changed. The other settings keep their\n" +
			"current value, or their default if gpxsync isn't configured yet.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s",
					errors.GetPrintableMessage(err))
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.ClientID, "client-id", "",
		"The client ID of the OpenStreetMap OAuth 2 application.")
	cmd.Flags().StringVar(&cliOpts.ClientSecret, "client-secret", "",
		"The client secret of the OpenStreetMap OAuth 2 application.")
	cmd.Flags().StringVar(&cliOpts.Visibility, "visibility", "",
		"The visibility of uploaded traces. "+
			"One of public, identifiable, trackable or private.")
	cmd.Flags().StringVar(&cliOpts.Description, "description", "",
		"The text appended to the description of uploaded traces.")
	cmd.Flags().StringVar(&cliOpts.Tags, "tags", "",
		"The comma separated tags of uploaded traces.")
	cmd.Flags().StringVar(&cliOpts.WebURL, "web-url", "",
		"Override the OpenStreetMap website, for example to use the development server.")
	cmd.Flags().StringVar(&cliOpts.APIURL, "api-url", "",
		"Override the OpenStreetMap API server.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-client-id",
			short: "Get the configured OAuth client ID",
			fn:    func(cfg config.User) string { return cfg.ClientID },
		},
		{
			use:   "get-visibility",
			short: "Get the visibility of uploaded traces",
			fn:    func(cfg config.User) string { return cfg.Visibility },
		},
		{
			use:   "get-description",
			short: "Get the description of uploaded traces",
			fn:    func(cfg config.User) string { return cfg.Description },
		},
		{
			use:   "get-tags",
			short: "Get the tags of uploaded traces",
			fn:    func(cfg config.User) string { return cfg.Tags },
		},
		{
			use:   "get-web-url",
			short: "Get the OpenStreetMap website URL",
			fn:    func(cfg config.User) string { return cfg.GetWebURL() },
		},
		{
			use:   "get-api-url",
			short: "Get the OpenStreetMap API URL",
			fn:    func(cfg config.User) string { return cfg.GetAPIURL() },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig updates the user config with the non-empty fields of
// `cliOpts`, and writes it.
func SetupConfig(cliOpts config.User) error {
	cfg, err := generateConfig(cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := getConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

// generateConfig merges the command line options into the current config.
func generateConfig(cliOpts config.User) (config.User, error) {
	cfg, err := readUserConfig()
	if err != nil {
		log.WithError(err).Debug("Failed to read current config")
		cfg = config.DefaultUser()
	}

	overrides := []struct {
		field *string
		value string
	}{
		{&cfg.ClientID, cliOpts.ClientID},
		{&cfg.ClientSecret, cliOpts.ClientSecret},
		{&cfg.Visibility, cliOpts.Visibility},
		{&cfg.Description, cliOpts.Description},
		{&cfg.Tags, cliOpts.Tags},
		{&cfg.WebURL, cliOpts.WebURL},
		{&cfg.APIURL, cliOpts.APIURL},
	}
	for _, override := range overrides {
		if override.value != "" {
			*override.field = strings.TrimSpace(override.value)
		}
	}

	visibility, err := osm.ParseVisibility(cfg.Visibility)
	if err != nil {
		return config.User{}, errors.NewFriendlyError("Invalid visibility: %s", err)
	}
	cfg.Visibility = string(visibility)

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return config.User{}, errors.NewFriendlyError("Both --client-id and " +
			"--client-secret are required to configure gpxsync.")
	}
	return cfg, nil
}
