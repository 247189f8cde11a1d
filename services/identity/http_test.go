package identitysvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

func newTestProvider(handler http.HandlerFunc) (*httpProvider, *httptest.Server) {
	srv := httptest.NewServer(handler)
	conf := &core.Config{
		Identity: core.IdentityConfig{BaseURL: srv.URL, APIKey: "test-api-key", Timeout: time.Second},
	}
	return NewHTTPProvider(conf), srv
}

func Test_httpProvider_SignIn(t *testing.T) {
	var gotGrant, gotAPIKey string
	var gotBody map[string]string

	provider, srv := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
		gotGrant = r.URL.Query().Get("grant_type")
		gotAPIKey = r.Header.Get("apikey")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"expires_in":    3600,
			"user": map[string]interface{}{
				"id":    "usr-1",
				"phone": "+243970000001",
				"user_metadata": map[string]interface{}{
					"name":      "Olive Owner",
					"role":      "owner",
					"workspace": "ws-1",
				},
			},
		})
	})
	defer srv.Close()

	id, err := provider.SignIn(context.Background(), "+243970000001", "s3cr3t")
	require.NoError(t, err)

	assert.Equal(t, "password", gotGrant)
	assert.Equal(t, "test-api-key", gotAPIKey)
	assert.Equal(t, "+243970000001", gotBody["phone"])
	assert.Equal(t, "s3cr3t", gotBody["password"])

	assert.Equal(t, session.Identity{
		UserID:       "usr-1",
		Name:         "Olive Owner",
		Phone:        "+243970000001",
		Role:         "owner",
		Workspace:    "ws-1",
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresIn:    time.Hour,
	}, id)
}

func Test_httpProvider_Refresh(t *testing.T) {
	var gotGrant string
	var gotBody map[string]string

	provider, srv := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
		gotGrant = r.URL.Query().Get("grant_type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "at-2",
			"refresh_token": "rt-2",
			"expires_in":    3600,
		})
	})
	defer srv.Close()

	id, err := provider.Refresh(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh_token", gotGrant)
	assert.Equal(t, "rt-1", gotBody["refresh_token"])
	assert.Equal(t, "at-2", id.AccessToken)
	assert.Equal(t, "rt-2", id.RefreshToken)
}

func Test_httpProvider_rejections(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		invalidGrant bool
	}{
		{"bad request", http.StatusBadRequest, true},
		{"unauthorized", http.StatusUnauthorized, true},
		{"forbidden", http.StatusForbidden, true},
		{"server error", http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, srv := newTestProvider(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			defer srv.Close()

			_, err := provider.SignIn(context.Background(), "+243970000001", "nope")
			require.Error(t, err)
			if tt.invalidGrant {
				assert.Equal(t, session.ErrInvalidGrant, errors.Cause(err))
			} else {
				assert.NotEqual(t, session.ErrInvalidGrant, errors.Cause(err))
			}
		})
	}
}

func Test_dummyProvider(t *testing.T) {
	provider := NewDummyProvider(time.Hour,
		session.Identity{UserID: "usr-1", Phone: "+243970000001", Role: "owner", Workspace: "ws-1"},
	)

	id, err := provider.SignIn(context.Background(), "+243970000001", "anything")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", id.UserID)
	assert.NotEmpty(t, id.AccessToken)
	assert.NotEmpty(t, id.RefreshToken)
	assert.Equal(t, time.Hour, id.ExpiresIn)

	_, err = provider.SignIn(context.Background(), "+243970000001", "")
	assert.Equal(t, session.ErrInvalidGrant, errors.Cause(err))

	renewed, err := provider.Refresh(context.Background(), id.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", renewed.UserID)
	assert.NotEqual(t, id.AccessToken, renewed.AccessToken)

	_, err = provider.Refresh(context.Background(), "stale-token")
	assert.Equal(t, session.ErrInvalidGrant, errors.Cause(err))
}
