package osm

import (
	"context"
	"net/http"

	"github.com/sidkik/gpxsync/pkg/errors"
)

// CheckToken returns nil if the client's token is accepted by the server.
func (c *Client) CheckToken(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, apiPrefix+"/user/details.json", nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req, http.StatusOK)
	if err != nil {
		return errors.WithContext(err, "get user details")
	}
	resp.Body.Close()
	return nil
}
