package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/sidkik/gpxsync/pkg/errors"
)

// parseErrTemplate is shown when the config file isn't valid YAML, or has
// fields that gpxsync doesn't know about. The YAML error is passed on as is.
const parseErrTemplate = "The gpxsync config at %q could not be read.\n" +
	"Check that it's valid YAML, that the OAuth credentials and trace " +
	"settings are strings, and that it has no other fields.\n" +
	"Run `gpxsync config` to rewrite it.\n\n" +
	"Error from the parser:\n" +
	"%s"

// versioned is a config file with a format version.
type versioned interface {
	getVersion() string
}

type unsupportedVersionError struct {
	path, exp, actual string
}

func (err unsupportedVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err unsupportedVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The gpxsync config at %q has version %q, "+
		"but this gpxsync reads version %q.\n"+
		"Run `gpxsync config` to rewrite it.", err.path, err.actual, err.exp)
}

// parseConfig reads the YAML file at `path` into `config`. Unknown fields are
// rejected, but only once the version matched, so that a file written by a
// newer gpxsync reports its version rather than its new fields.
func parseConfig(path string, config versioned, expVersion string) error {
	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound{Path: path}
		}
		return errors.WithContext(err, "read file")
	}

	if err := yaml.Unmarshal(configBytes, config); err != nil {
		return errors.NewFriendlyError(parseErrTemplate, path, err)
	}

	if config.getVersion() != expVersion {
		return unsupportedVersionError{path, expVersion, config.getVersion()}
	}

	err = yaml.UnmarshalStrict(configBytes, config, yaml.DisallowUnknownFields)
	if err != nil {
		return errors.NewFriendlyError(parseErrTemplate, path, err)
	}
	return nil
}
