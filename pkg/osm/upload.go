package osm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/sidkik/gpxsync/pkg/errors"
)

const gpxContentType = "application/gpx+xml"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadOptions are the settings applied to every uploaded trace.
type UploadOptions struct {
	// Description is appended to the trace's identity to form the remote
	// description.
	Description string
	Tags        string
	Visibility  Visibility
}

// UploadRequest describes a single trace upload.
type UploadRequest struct {
	FileName string
	Content  io.Reader

	// Identity must be the first thing in the description so that the
	// trace is recognized by later runs.
	Identity string

	UploadOptions
}

// Description returns the remote description for a trace with the given
// identity.
func Description(id, suffix string) string {
	if suffix == "" {
		return id
	}
	return id + " - " + suffix
}

// Upload creates a trace on the server and returns its ID.
func (c *Client) Upload(ctx context.Context, upload UploadRequest) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`,
		quoteEscaper.Replace(upload.FileName)))
	header.Set("Content-Type", gpxContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", errors.WithContext(err, "create file part")
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return "", errors.WithContext(err, "read trace")
	}

	fields := []struct{ name, value string }{
		{"description", Description(upload.Identity, upload.Description)},
		{"tags", upload.Tags},
		{"visibility", string(upload.Visibility)},
	}
	for _, field := range fields {
		if err := mw.WriteField(field.name, field.value); err != nil {
			return "", errors.WithContext(err, "write "+field.name)
		}
	}
	if err := mw.Close(); err != nil {
		return "", errors.WithContext(err, "finish body")
	}

	req, err := c.newRequest(ctx, http.MethodPost, apiPrefix+"/gpx/create", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, http.StatusOK, http.StatusCreated)
	if err != nil {
		return "", errors.WithContext(err, "upload")
	}
	defer resp.Body.Close()

	id, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.WithContext(err, "read trace ID")
	}
	return strings.TrimSpace(string(id)), nil
}

// Uploader uploads trace files from a filesystem with fixed options.
type Uploader struct {
	Client  *Client
	Fs      afero.Fs
	Options UploadOptions
}

// Upload uploads the GPX file at `path` under the given identity, and returns
// the remote trace ID.
func (u Uploader) Upload(ctx context.Context, path, id string) (string, error) {
	f, err := u.Fs.Open(path)
	if err != nil {
		return "", errors.WithContext(err, "open trace")
	}
	defer f.Close()

	return u.Client.Upload(ctx, UploadRequest{
		FileName:      filepath.Base(path),
		Content:       f,
		Identity:      id,
		UploadOptions: u.Options,
	})
}
