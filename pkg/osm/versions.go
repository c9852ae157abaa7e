package osm

import (
	"context"
	"encoding/json"
	"net/http"

	goversion "github.com/hashicorp/go-version"

	"github.com/sidkik/gpxsync/pkg/errors"
)

// SupportedAPIVersions is the range of API versions whose trace endpoints
// this client knows how to use.
var SupportedAPIVersions = goversion.MustConstraints(goversion.NewConstraint(">= 0.6, < 0.7"))

// APIVersions returns the API versions advertised by the server.
func (c *Client) APIVersions(ctx context.Context) ([]*goversion.Version, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/versions.json", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, errors.WithContext(err, "get versions")
	}
	defer resp.Body.Close()

	var body struct {
		API struct {
			Versions []string `json:"versions"`
		} `json:"api"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.WithContext(err, "parse versions")
	}

	var versions []*goversion.Version
	for _, raw := range body.API.Versions {
		v, err := goversion.NewVersion(raw)
		if err != nil {
			return nil, errors.WithContext(err, "parse version")
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// CheckAPIVersion returns an error if the server doesn't advertise an API
// version in SupportedAPIVersions.
func (c *Client) CheckAPIVersion(ctx context.Context) error {
	versions, err := c.APIVersions(ctx)
	if err != nil {
		return err
	}

	for _, v := range versions {
		if SupportedAPIVersions.Check(v) {
			return nil
		}
	}
	return errors.New("server supports API versions %v, but %s is required",
		versions, SupportedAPIVersions)
}
