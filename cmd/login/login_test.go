package login

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/gpxsync/pkg/auth"
	"github.com/sidkik/gpxsync/pkg/config"
	"github.com/sidkik/gpxsync/pkg/errors"
)

type mockAuthorizer struct {
	token string
	err   error
}

func (m mockAuthorizer) Authorize(context.Context) (string, error) {
	return m.token, m.err
}

type mockStore struct {
	saved string
}

func (m *mockStore) ReadToken() (string, error) {
	return m.saved, nil
}

func (m *mockStore) WriteToken(token string) error {
	m.saved = token
	return nil
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		configErr  error
		authorizer mockAuthorizer
		expErr     string
		expToken   string
		expOut     string
	}{
		{
			name:       "Success",
			authorizer: mockAuthorizer{token: "new-token"},
			expToken:   "new-token",
			expOut:     "Successfully logged in.\n",
		},
		{
			name:       "Authorization denied",
			authorizer: mockAuthorizer{err: errors.NewFriendlyError("Authorization was denied: access_denied")},
			expErr:     "Authorization was denied: access_denied",
			expToken:   "old-token",
		},
		{
			name:      "Missing config",
			configErr: errors.NewFriendlyError("The gpxsync config file doesn't exist."),
			expErr:    "The gpxsync config file doesn't exist.",
			expToken:  "old-token",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			store := &mockStore{saved: "old-token"}
			stdout = &out
			parseUserConfig = func() (config.User, error) {
				return config.User{ClientID: "id", ClientSecret: "secret"}, test.configErr
			}
			tokenSource = func(config.User) auth.Source {
				return auth.Source{
					Store:      store,
					Authorizer: test.authorizer,
					Check: func(context.Context, string) error {
						t.Error("login shouldn't check the saved token")
						return nil
					},
				}
			}

			err := Main()
			if test.expErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, test.expErr, errors.GetPrintableMessage(err))
			}
			assert.Equal(t, test.expToken, store.saved)
			assert.Equal(t, test.expOut, out.String())
		})
	}
}
