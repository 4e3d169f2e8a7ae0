// Package accounts is the narrow client for the external account
// service. The coordinator only ever does lookups through it; the
// service's internals are somebody else's problem.
package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

type Profile struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

type Client interface {
	LookupProfile(ctx context.Context, username string) (Profile, error)
}

// HTTPClient talks to the account service over plain request/response.
// Lookups run off the state-mutation path, so the short timeout bounds
// only the goroutine doing the backfill.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) LookupProfile(ctx context.Context, username string) (Profile, error) {
	u := fmt.Sprintf("%s/profiles/%s", c.baseURL, url.PathEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Profile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("account service: status %d", resp.StatusCode)
	}
	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Profile{}, err
	}
	log.Debug().Str("module", "accounts").Str("username", username).Msg("profile resolved")
	return p, nil
}

// Noop serves deployments without an account service; every lookup
// resolves to an empty profile.
type Noop struct{}

func (Noop) LookupProfile(context.Context, string) (Profile, error) {
	return Profile{}, nil
}
