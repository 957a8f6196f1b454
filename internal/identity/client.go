package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"bim-viewer-service/internal/config"
)

// ErrUserNotFound is returned when the identity provider knows no user
// with the requested email.
var ErrUserNotFound = errors.New("user not found")

// User is the subset of identity provider attributes the viewer needs.
type User struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Client talks to the managed identity provider's admin API. Token
// issuance and credential handling stay with the provider; the viewer only
// looks up users for invitations and forwards profile updates.
type Client struct {
	BaseURL string
	APIKey  string
	http    *http.Client
}

// NewClient builds an identity provider client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL: cfg.IdentityURL,
		APIKey:  cfg.IdentityAPIKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// LookupUserByEmail resolves an email address to the provider's user record.
func (c *Client) LookupUserByEmail(ctx context.Context, email string) (*User, error) {
	endpoint := fmt.Sprintf("%s/admin/users?email=%s", c.BaseURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create lookup request")
	}
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "identity provider request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, string(raw))
	}

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, errors.Wrap(err, "failed to decode identity provider response")
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// UpdateProfile forwards a display name change for the calling user. The
// caller's bearer token is passed through so the provider enforces identity.
func (c *Client) UpdateProfile(ctx context.Context, bearerToken, name string) error {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return errors.Wrap(err, "failed to marshal profile update")
	}

	endpoint := fmt.Sprintf("%s/users/me", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrap(err, "failed to create profile request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "identity provider request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
