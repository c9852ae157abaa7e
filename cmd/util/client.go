package util

import (
	"context"
	"net/http"
	"os"

	"github.com/sidkik/gpxsync/pkg/auth"
	"github.com/sidkik/gpxsync/pkg/config"
	"github.com/sidkik/gpxsync/pkg/errors"
	"github.com/sidkik/gpxsync/pkg/osm"
)

// HTTPClient is used for every request to OpenStreetMap. It's overridden in
// tests.
var HTTPClient = http.DefaultClient

// TokenSource returns the source of access tokens for the OAuth application
// in `cfg`. Saved tokens are checked against the API before being reused.
func TokenSource(cfg config.User) auth.Source {
	return auth.Source{
		Store: config.TokenStore{},
		Authorizer: auth.Flow{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			WebURL:       cfg.GetWebURL(),
			Out:          os.Stdout,
			HTTPClient:   HTTPClient,
		},
		Check: func(ctx context.Context, token string) error {
			return osm.NewClient(cfg.GetAPIURL(), token, HTTPClient).CheckToken(ctx)
		},
	}
}

// Connect returns an API client authenticated with a valid access token,
// authorizing gpxsync in the browser if needed.
func Connect(ctx context.Context, cfg config.User) (*osm.Client, error) {
	token, err := TokenSource(cfg).Token(ctx)
	if err != nil {
		return nil, errors.WithContext(err, "get access token")
	}
	return osm.NewClient(cfg.GetAPIURL(), token, HTTPClient), nil
}
