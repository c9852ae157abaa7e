// Package auth obtains an OpenStreetMap access token with the OAuth 2.0
// authorization code flow.
package auth

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/browser"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/sidkik/gpxsync/pkg/errors"
)

const (
	// DefaultListenAddr is where the callback server listens. It must match
	// the redirect URI registered for the OAuth application.
	DefaultListenAddr = "127.0.0.1:8000"

	// DefaultTimeout is how long to wait for the user to authorize the
	// application in their browser.
	DefaultTimeout = 2 * time.Minute

	callbackPath = "/callback"
)

// Scopes are the permissions requested for gpxsync.
var Scopes = []string{"read_gpx", "write_gpx"}

const (
	successPage = "<html><body><h1>Authorization successful!</h1>" +
		"<p>You can close this window.</p></body></html>"
	failurePage = "<html><body><h1>Error</h1><p>No authorization code received.</p></body></html>"
)

// Flow runs the authorization code flow: it opens the authorization page in
// the user's browser, and waits for the browser to be redirected to a local
// callback server with the authorization code.
type Flow struct {
	ClientID     string
	ClientSecret string

	// WebURL is the base URL of the OpenStreetMap website.
	WebURL string

	// ListenAddr is the address of the callback server. Defaults to
	// DefaultListenAddr.
	ListenAddr string

	// Timeout bounds the wait for the callback. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Clock measures the timeout. Defaults to the real clock.
	Clock clockwork.Clock

	// OpenBrowser opens the given URL. Defaults to the system browser.
	OpenBrowser func(url string) error

	// Out receives instructions for the user.
	Out io.Writer

	// HTTPClient is used for the token exchange.
	HTTPClient *http.Client
}

// callbackResult is what the callback server hands back to the flow.
type callbackResult struct {
	code string
	err  error
}

func (f Flow) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     f.ClientID,
		ClientSecret: f.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.WebURL + "/oauth2/authorize",
			TokenURL:  f.WebURL + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: redirectURL,
		Scopes:      Scopes,
	}
}

// Authorize runs the flow and returns the access token.
func (f Flow) Authorize(ctx context.Context) (string, error) {
	listenAddr := f.ListenAddr
	if listenAddr == "" {
		listenAddr = DefaultListenAddr
	}
	timeout := f.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	clock := f.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	openBrowser := f.OpenBrowser
	if openBrowser == nil {
		openBrowser = browser.OpenURL
	}
	out := f.Out
	if out == nil {
		out = io.Discard
	}

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return "", errors.WithContext(err, "start callback server")
	}

	redirectURL := fmt.Sprintf("http://%s%s", listener.Addr(), callbackPath)
	oauthConfig := f.oauthConfig(redirectURL)
	state := uuid.NewString()

	// The handler resolves the result exactly once. The channel is buffered
	// so that the handler never blocks, even if Authorize already returned.
	results := make(chan callbackResult, 1)
	server := &http.Server{Handler: newCallbackHandler(state, results)}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Debug("Callback server stopped")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state)
	fmt.Fprintln(out, "Authorization required.")
	fmt.Fprintln(out, "A browser will open so that you can log in to OpenStreetMap.")
	fmt.Fprintf(out, "If it doesn't, open this URL:\n%s\n\n", authURL)
	if err := openBrowser(authURL); err != nil {
		log.WithError(err).Debug("Failed to open browser")
	}

	var result callbackResult
	select {
	case result = <-results:
	case <-clock.After(timeout):
		return "", errors.NewFriendlyError("Timed out after %s waiting for authorization.", timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if result.err != nil {
		return "", result.err
	}

	if f.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.HTTPClient)
	}
	token, err := oauthConfig.Exchange(ctx, result.code)
	if err != nil {
		return "", errors.WithContext(err, "exchange authorization code")
	}
	return token.AccessToken, nil
}

// newCallbackHandler returns the handler for the OAuth redirect. The first
// request that reaches the callback path decides the result.
func newCallbackHandler(state string, results chan<- callbackResult) http.Handler {
	var once sync.Once
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		code := query.Get("code")

		var result callbackResult
		switch {
		case query.Get("state") != state:
			result.err = errors.New("authorization callback has an unexpected state")
		case code == "":
			result.err = errors.NewFriendlyError("Authorization was denied: %s",
				describeCallbackError(query.Get("error"), query.Get("error_description")))
		default:
			result.code = code
		}

		w.Header().Set("Content-Type", "text/html")
		if result.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, failurePage)
		} else {
			_, _ = io.WriteString(w, successPage)
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		once.Do(func() {
			results <- result
		})
	})
	return mux
}

func describeCallbackError(code, description string) string {
	switch {
	case code == "" && description == "":
		return "no authorization code received"
	case description == "":
		return code
	case code == "":
		return description
	default:
		return fmt.Sprintf("%s (%s)", description, code)
	}
}
