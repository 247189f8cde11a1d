package identitysvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

var tokenEndpoint = "/token"

type (
	httpProvider struct {
		client  *http.Client
		baseURL string
		apiKey  string
	}

	tokenRequest struct {
		Phone        string `json:"phone,omitempty"`
		Password     string `json:"password,omitempty"`
		RefreshToken string `json:"refresh_token,omitempty"`
	}

	tokenResponse struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		User         struct {
			ID           string `json:"id"`
			Phone        string `json:"phone"`
			UserMetadata struct {
				Name      string `json:"name"`
				Role      string `json:"role"`
				Workspace string `json:"workspace"`
			} `json:"user_metadata"`
		} `json:"user"`
	}
)

var _ session.Provider = (*httpProvider)(nil)

// NewHTTPProvider talks to a GoTrue-style identity service.
func NewHTTPProvider(conf *core.Config) *httpProvider {
	return &httpProvider{
		client:  &http.Client{Timeout: conf.Identity.Timeout},
		baseURL: conf.Identity.BaseURL,
		apiKey:  conf.Identity.APIKey,
	}
}

func (p *httpProvider) SignIn(ctx context.Context, phone, password string) (session.Identity, error) {
	return p.token(ctx, "password", tokenRequest{Phone: phone, Password: password})
}

func (p *httpProvider) Refresh(ctx context.Context, refreshToken string) (session.Identity, error) {
	return p.token(ctx, "refresh_token", tokenRequest{RefreshToken: refreshToken})
}

func (p *httpProvider) token(ctx context.Context, grantType string, data tokenRequest) (session.Identity, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return session.Identity{}, errors.Wrap(err, "marshalling token request")
	}

	q := make(url.Values)
	q.Set("grant_type", grantType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+tokenEndpoint+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return session.Identity{}, errors.Wrap(err, "building token request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.apiKey)

	res, err := p.client.Do(req)
	if err != nil {
		return session.Identity{}, errors.Wrap(err, "calling identity provider")
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusUnauthorized ||
		res.StatusCode == http.StatusForbidden:
		return session.Identity{}, session.ErrInvalidGrant
	default:
		return session.Identity{}, errors.Errorf("identity provider returned %d", res.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return session.Identity{}, errors.Wrap(err, "decoding token response")
	}

	return session.Identity{
		UserID:       tr.User.ID,
		Name:         tr.User.UserMetadata.Name,
		Phone:        tr.User.Phone,
		Role:         tr.User.UserMetadata.Role,
		Workspace:    tr.User.UserMetadata.Workspace,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    time.Duration(tr.ExpiresIn) * time.Second,
	}, nil
}
