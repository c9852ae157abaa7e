package auth

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/gpxsync/pkg/errors"
)

// Authorizer obtains a new access token.
type Authorizer interface {
	Authorize(ctx context.Context) (string, error)
}

// Store persists the access token between runs.
type Store interface {
	ReadToken() (string, error)
	WriteToken(token string) error
}

// Source returns a usable access token, reusing the saved one when the
// server still accepts it.
type Source struct {
	Store      Store
	Authorizer Authorizer

	// Check returns nil if the server accepts the token.
	Check func(ctx context.Context, token string) error
}

// Token returns a valid access token. A saved token is reused if Check
// accepts it; otherwise a new one is authorized and saved.
func (s Source) Token(ctx context.Context) (string, error) {
	saved, err := s.Store.ReadToken()
	if err != nil {
		log.WithError(err).Warn("Failed to read saved token")
	}

	if saved != "" {
		err := s.Check(ctx, saved)
		if err == nil {
			log.Debug("Reusing saved token")
			return saved, nil
		}
		log.WithError(err).Info("Saved token is no longer valid, authorizing again")
	}

	return s.Renew(ctx)
}

// Renew authorizes a new token and saves it, regardless of any saved token.
func (s Source) Renew(ctx context.Context) (string, error) {
	token, err := s.Authorizer.Authorize(ctx)
	if err != nil {
		return "", errors.WithContext(err, "authorize")
	}

	if err := s.Store.WriteToken(token); err != nil {
		return "", errors.WithContext(err, "save token")
	}
	return token, nil
}
