package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/sidkik/gpxsync/pkg/errors"
)

// TokenPath is the default path of the saved OAuth access token.
const TokenPath = Dir + "/token"

// HistoryPath is the default path of the upload journal.
const HistoryPath = Dir + "/history.db"

// ReadToken returns the saved access token. It returns an empty string if no
// token has been saved yet.
func ReadToken() (string, error) {
	path, err := homedirExpand(TokenPath)
	if err != nil {
		return "", errors.WithContext(err, "expand token path")
	}

	tokenBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.WithContext(err, "read token")
	}
	return strings.TrimSpace(string(tokenBytes)), nil
}

// WriteToken saves the access token so that later runs don't need to
// authorize again.
func WriteToken(token string) error {
	path, err := homedirExpand(TokenPath)
	if err != nil {
		return errors.WithContext(err, "expand token path")
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.WithContext(err, "create token directory")
	}

	if err := afero.WriteFile(fs, path, []byte(token), 0600); err != nil {
		return errors.WithContext(err, "write token")
	}
	return nil
}

// GetHistoryPath returns the expanded path of the upload journal.
func GetHistoryPath() (string, error) {
	return homedirExpand(HistoryPath)
}

// SetFs replaces the filesystem used to read and write the config. It's meant
// for tests in other packages.
func SetFs(newFs afero.Fs) {
	fs = newFs
}

// SetHomedirExpand replaces the function used to expand `~` in paths. It's
// meant for tests in other packages.
func SetHomedirExpand(expand func(string) (string, error)) {
	homedirExpand = expand
}

// TokenStore saves the access token in the gpxsync directory.
type TokenStore struct{}

// ReadToken returns the saved access token.
func (TokenStore) ReadToken() (string, error) {
	return ReadToken()
}

// WriteToken saves the access token.
func (TokenStore) WriteToken(token string) error {
	return WriteToken(token)
}
