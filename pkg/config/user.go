package config

import (
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/gpxsync/pkg/errors"
	"github.com/sidkik/gpxsync/pkg/osm"
)

const (
	// Dir is the directory holding the gpxsync state.
	Dir = "~/.gpxsync"

	// UserConfigPath is the default path to the gpxsync user config.
	UserConfigPath = Dir + "/config.yaml"

	// InitialUserConfigVersion is the first version of the gpxsync
	// user config. Config files that do not specify a version
	// will default to this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the
	// gpxsync user config of the current binary.
	SupportedUserConfigVersion = "v1alpha1"

	// DefaultVisibility is the visibility of uploaded traces if none is
	// configured.
	DefaultVisibility = osm.Identifiable

	// DefaultDescription is appended to the identity in the description of
	// uploaded traces if none is configured.
	DefaultDescription = "Trace uploadée automatiquement"

	// DefaultTags are the tags of uploaded traces if none are configured.
	DefaultTags = "survey"

	// registerAppHelp explains how to get OAuth client credentials.
	registerAppHelp = "Register an OAuth 2 application at " +
		"https://www.openstreetmap.org/oauth2/applications with:\n" +
		" - Redirect URI: http://127.0.0.1:8000/callback\n" +
		" - Permissions: \"Read user GPS traces\" and \"Upload GPS traces\"\n" +
		"Then run `gpxsync config --client-id <id> --client-secret <secret>`."
)

// User contains the user's OAuth application and the settings applied to
// uploaded traces.
type User struct {
	Version      string `json:"version,omitempty"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Visibility   string `json:"visibility,omitempty"`
	Description  string `json:"description,omitempty"`
	Tags         string `json:"tags,omitempty"`

	// WebURL and APIURL override the OpenStreetMap servers, for example to
	// use the development instance.
	WebURL string `json:"web_url,omitempty"`
	APIURL string `json:"api_url,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// DefaultUser returns a config with the default trace settings.
func DefaultUser() User {
	return User{
		Visibility:  string(DefaultVisibility),
		Description: DefaultDescription,
		Tags:        DefaultTags,
	}
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser attempts to parse the User stored in the default path, and checks
// that it's usable for uploading.
func ParseUser() (User, error) {
	config, err := ReadUser()
	if err != nil {
		return User{}, err
	}

	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	if err := config.validate(path); err != nil {
		return User{}, err
	}
	return config, nil
}

// ReadUser parses the User stored in the default path. Unlike ParseUser, it
// doesn't check that the OAuth credentials are set.
func ReadUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := DefaultUser()
	config.Version = InitialUserConfigVersion
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return User{}, errors.NewFriendlyError("The gpxsync config "+
				"file doesn't exist at %q.\n%s", path, registerAppHelp)
		}
		return User{}, errors.WithContext(err, "parse")
	}
	return config, nil
}

func (u User) validate(path string) error {
	if strings.TrimSpace(u.ClientID) == "" || strings.TrimSpace(u.ClientSecret) == "" {
		return errors.NewFriendlyError("The gpxsync config at %q is missing "+
			"the OAuth client credentials.\n%s", path, registerAppHelp)
	}

	if _, err := osm.ParseVisibility(u.Visibility); err != nil {
		return errors.NewFriendlyError("The gpxsync config at %q has an "+
			"invalid visibility: %s", path, err)
	}
	return nil
}

// UploadOptions returns the settings to apply to uploaded traces.
func (u User) UploadOptions() osm.UploadOptions {
	visibility, err := osm.ParseVisibility(u.Visibility)
	if err != nil {
		visibility = DefaultVisibility
	}
	return osm.UploadOptions{
		Description: u.Description,
		Tags:        u.Tags,
		Visibility:  visibility,
	}
}

// GetWebURL returns the URL of the OpenStreetMap website.
func (u User) GetWebURL() string {
	if u.WebURL == "" {
		return osm.DefaultWebURL
	}
	return strings.TrimRight(u.WebURL, "/")
}

// GetAPIURL returns the URL of the OpenStreetMap API.
func (u User) GetAPIURL() string {
	if u.APIURL == "" {
		return osm.DefaultAPIURL
	}
	return strings.TrimRight(u.APIURL, "/")
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.WithContext(err, "create config directory")
	}

	// The config contains the OAuth client secret.
	if err := afero.WriteFile(fs, path, yamlBytes, 0600); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// Get the path to the user's global gpxsync configuration. This path is
// expanded, so it can be directly passed to file operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
