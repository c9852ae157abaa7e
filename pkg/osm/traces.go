package osm

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/gpxsync/pkg/errors"
	"github.com/sidkik/gpxsync/pkg/identity"
)

// Trace is a GPS trace stored on the server. Only the description matters
// for duplicate detection; the other fields are informational, and are left
// empty if the server reports them with an unexpected type.
type Trace struct {
	ID          string
	Name        string
	Description string
	Timestamp   string
	Visibility  string
	Tags        []string
}

// UnmarshalJSON decodes a trace record leniently so that a single odd field
// doesn't make the whole listing unreadable.
func (t *Trace) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	t.ID = scalarField(fields["id"])
	t.Name = scalarField(fields["name"])
	t.Description = scalarField(fields["description"])
	t.Timestamp = scalarField(fields["timestamp"])
	t.Visibility = scalarField(fields["visibility"])

	var tags []string
	if raw, ok := fields["tags"]; ok && json.Unmarshal(raw, &tags) == nil {
		t.Tags = tags
	}
	return nil
}

// scalarField returns the string or number in `raw`, or an empty string if it
// holds anything else.
func scalarField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}

// traceList is the body returned by the trace listing endpoint. Depending on
// the server version, the traces are either under `traces` or `gpx_files`.
type traceList struct {
	Traces   *[]Trace `json:"traces"`
	GPXFiles *[]Trace `json:"gpx_files"`
}

func (l traceList) records() []Trace {
	if l.Traces != nil {
		return *l.Traces
	}
	if l.GPXFiles != nil {
		return *l.GPXFiles
	}
	return nil
}

// Traces lists all traces owned by the authenticated user.
func (c *Client) Traces(ctx context.Context) ([]Trace, error) {
	req, err := c.newRequest(ctx, http.MethodGet, apiPrefix+"/user/gpx_files.json", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, errors.WithContext(err, "list traces")
	}
	defer resp.Body.Close()

	var body traceList
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.WithContext(err, "parse trace list")
	}
	return body.records(), nil
}

// Inventory returns the identities of all traces already on the server. The
// identity of a trace is read from its description; traces without one are
// ignored.
//
// Inventory never fails. If the traces can't be listed, the error is logged
// and an empty set is returned, so every local trace is treated as new.
func (c *Client) Inventory(ctx context.Context) identity.Set {
	traces, err := c.Traces(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch existing traces. " +
			"All local traces will be treated as new")
		return identity.NewSet()
	}
	return InventoryOf(traces)
}

// InventoryOf returns the identities embedded in the descriptions of
// `traces`.
func InventoryOf(traces []Trace) identity.Set {
	ids := identity.NewSet()
	for _, trace := range traces {
		if id, ok := identity.Find(trace.Description); ok {
			ids.Add(id)
		}
	}
	return ids
}
