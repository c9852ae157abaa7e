package osm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/gpxsync/pkg/errors"
	"github.com/sidkik/gpxsync/pkg/identity"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, "test-token", ts.Client())
}

func TestInventory(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		exp    identity.Set
	}{
		{
			name:   "TracesKey",
			status: http.StatusOK,
			body:   `{"traces": [{"id": 1, "description": "20231122 - 14:04 - Test"}]}`,
			exp:    identity.NewSet("20231122 - 14:04"),
		},
		{
			name:   "GPXFilesKey",
			status: http.StatusOK,
			body:   `{"gpx_files": [{"id": 1, "description": "20231122 - 14:04 - Test"}]}`,
			exp:    identity.NewSet("20231122 - 14:04"),
		},
		{
			name:   "TracesKeyPreferred",
			status: http.StatusOK,
			body: `{"traces": [{"description": "20231122 - 14:04"}],` +
				` "gpx_files": [{"description": "20200101 - 00:00"}]}`,
			exp: identity.NewSet("20231122 - 14:04"),
		},
		{
			name:   "OnlyMatchedSubstringKept",
			status: http.StatusOK,
			body: `{"traces": [` +
				`{"description": "Ride to work 20231122 - 14:04, sunny"},` +
				`{"description": "Holiday"},` +
				`{"description": ""},` +
				`{"id": 4},` +
				`{"description": null},` +
				`{"description": "20240301 - 07:45 - survey", "tags": "not-a-list", "id": "5"}]}`,
			exp: identity.NewSet("20231122 - 14:04", "20240301 - 07:45"),
		},
		{
			name:   "NoListKey",
			status: http.StatusOK,
			body:   `{"user": {}}`,
			exp:    identity.NewSet(),
		},
		{
			name:   "ServerError",
			status: http.StatusInternalServerError,
			body:   `{"traces": [{"description": "20231122 - 14:04"}]}`,
			exp:    identity.NewSet(),
		},
		{
			name:   "Unauthorized",
			status: http.StatusUnauthorized,
			body:   "Couldn't authenticate you",
			exp:    identity.NewSet(),
		},
		{
			name:   "MalformedBody",
			status: http.StatusOK,
			body:   `{"traces": [`,
			exp:    identity.NewSet(),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/0.6/user/gpx_files.json", r.URL.Path)
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
				w.WriteHeader(test.status)
				_, _ = io.WriteString(w, test.body)
			})
			assert.Equal(t, test.exp, client.Inventory(context.Background()))
		})
	}
}

func TestInventoryUnreachable(t *testing.T) {
	hook := logrusTest.NewGlobal()
	defer hook.Reset()

	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	client := NewClient(ts.URL, "test-token", nil)
	assert.Empty(t, client.Inventory(context.Background()))
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "Failed to fetch existing traces")
}

func TestTraces(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"traces": [{"id": 42, "name": "a.gpx", `+
			`"description": "20231122 - 14:04 - Test", "timestamp": "2023-11-23T10:00:00Z", `+
			`"visibility": "identifiable", "tags": ["survey", "bike"]}]}`)
	})

	traces, err := client.Traces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Trace{{
		ID:          "42",
		Name:        "a.gpx",
		Description: "20231122 - 14:04 - Test",
		Timestamp:   "2023-11-23T10:00:00Z",
		Visibility:  "identifiable",
		Tags:        []string{"survey", "bike"},
	}}, traces)
}

func TestUpload(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		respBody   string
		options    UploadOptions
		expDesc    string
		expID      string
		expErrBody string
	}{
		{
			name:     "Created",
			status:   http.StatusOK,
			respBody: "12345\n",
			options: UploadOptions{
				Description: "Trace uploadée automatiquement",
				Tags:        "survey",
				Visibility:  Identifiable,
			},
			expDesc: "20231122 - 14:04 - Trace uploadée automatiquement",
			expID:   "12345",
		},
		{
			name:     "CreatedStatus",
			status:   http.StatusCreated,
			respBody: "678",
			options:  UploadOptions{Tags: "bike", Visibility: Private},
			expDesc:  "20231122 - 14:04",
			expID:    "678",
		},
		{
			name:       "Rejected",
			status:     http.StatusBadRequest,
			respBody:   "  Invalid visibility  ",
			options:    UploadOptions{Visibility: Public},
			expDesc:    "20231122 - 14:04",
			expErrBody: "Invalid visibility",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/0.6/gpx/create", r.URL.Path)
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

				require.NoError(t, r.ParseMultipartForm(1<<20))
				assert.Equal(t, test.expDesc, r.FormValue("description"))
				assert.Equal(t, test.options.Tags, r.FormValue("tags"))
				assert.Equal(t, string(test.options.Visibility), r.FormValue("visibility"))

				file, header, err := r.FormFile("file")
				require.NoError(t, err)
				defer file.Close()
				assert.Equal(t, "a.gpx", header.Filename)
				assert.Equal(t, gpxContentType, header.Header.Get("Content-Type"))
				content, err := io.ReadAll(file)
				require.NoError(t, err)
				assert.Equal(t, "<gpx/>", string(content))

				w.WriteHeader(test.status)
				_, _ = io.WriteString(w, test.respBody)
			})

			id, err := client.Upload(context.Background(), UploadRequest{
				FileName:      "a.gpx",
				Content:       strings.NewReader("<gpx/>"),
				Identity:      "20231122 - 14:04",
				UploadOptions: test.options,
			})
			if test.expErrBody != "" {
				var statusErr errors.HTTPStatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, test.expErrBody, statusErr.Body)
				assert.Empty(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expID, id)
		})
	}
}

func TestUploaderReadsFromFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/traces/a.gpx", []byte("<gpx/>"), 0644))

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "a.gpx", header.Filename)
		assert.Equal(t, "<gpx/>", string(content))
		assert.Equal(t, "20231122 - 14:04 - auto", r.FormValue("description"))
		_, _ = io.WriteString(w, "99")
	})

	uploader := Uploader{
		Client:  client,
		Fs:      fs,
		Options: UploadOptions{Description: "auto", Tags: "survey", Visibility: Trackable},
	}
	id, err := uploader.Upload(context.Background(), "/traces/a.gpx", "20231122 - 14:04")
	require.NoError(t, err)
	assert.Equal(t, "99", id)

	_, err = uploader.Upload(context.Background(), "/traces/missing.gpx", "20231122 - 14:04")
	assert.Error(t, err)
}

func TestCheckToken(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/0.6/user/details.json", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	assert.NoError(t, client.CheckToken(context.Background()))

	client.token = "stale"
	assert.Error(t, client.CheckToken(context.Background()))
}

func TestCheckAPIVersion(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		expErr bool
	}{
		{"Supported", `{"api": {"versions": ["0.6"]}}`, false},
		{"SupportedAmongOthers", `{"api": {"versions": ["0.5", "0.6", "1.0"]}}`, false},
		{"Unsupported", `{"api": {"versions": ["1.0"]}}`, true},
		{"Empty", `{}`, true},
		{"Garbage", `{"api": {"versions": ["latest"]}}`, true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/versions.json", r.URL.Path)
				_, _ = io.WriteString(w, test.body)
			})
			err := client.CheckAPIVersion(context.Background())
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseVisibility(t *testing.T) {
	for _, v := range Visibilities {
		parsed, err := ParseVisibility(string(v))
		assert.NoError(t, err)
		assert.Equal(t, v, parsed)
	}

	parsed, err := ParseVisibility(" Private ")
	assert.NoError(t, err)
	assert.Equal(t, Private, parsed)

	_, err = ParseVisibility("friends")
	assert.EqualError(t, err, `unknown visibility "friends" `+
		`(expected one of public, identifiable, trackable, private)`)
}
