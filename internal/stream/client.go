package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNotConfigured is returned when the Stream API credentials are
// missing from the environment. Callers see this as a hard error, never
// a silent skip.
var ErrNotConfigured = errors.New("stream API credentials not configured")

// Remote rooms are always created with Stream's built-in "default" call
// type; the dashboard's own call type travels in metadata.
const remoteCallType = "default"

// Client is the server-side Stream Video client: it mints user tokens
// and drives the remote call rooms.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	tokenTTL   time.Duration
	httpClient *http.Client
}

func NewClient(apiKey, apiSecret, baseURL string) *Client {
	return &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		tokenTTL:  24 * time.Hour,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether both credentials are present.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiSecret != ""
}

// APIKey exposes the public key the browser SDK needs alongside a token.
func (c *Client) APIKey() string {
	return c.apiKey
}

// CreateToken mints a user-scoped bearer token: an HS256 JWT signed
// with the API secret, the scheme Stream's server SDKs use.
func (c *Client) CreateToken(userID string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(c.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.apiSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// serverToken authenticates this backend to the Stream REST API.
func (c *Client) serverToken() (string, error) {
	claims := jwt.MapClaims{
		"iss": "teamdesk-backend",
		"sub": "server",
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.apiSecret))
}

// UpsertUser registers or refreshes the user's identity with Stream.
func (c *Client) UpsertUser(ctx context.Context, id, name, role string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	body := map[string]any{
		"users": map[string]any{
			id: map[string]any{
				"id":   id,
				"name": name,
				"role": role,
			},
		},
	}
	return c.post(ctx, "/api/v2/users", body, nil)
}

// RemoteCallOptions carries the creation data for a remote room.
type RemoteCallOptions struct {
	CreatedByID string
	StartsAt    *time.Time
	Custom      map[string]any
}

// GetOrCreateCall creates the remote room (idempotently, per Stream's
// get-or-create semantics) under the given call id.
func (c *Client) GetOrCreateCall(ctx context.Context, callID string, opts RemoteCallOptions) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	data := map[string]any{
		"created_by_id": opts.CreatedByID,
	}
	if opts.StartsAt != nil {
		data["starts_at"] = opts.StartsAt.UTC().Format(time.RFC3339)
	}
	if len(opts.Custom) > 0 {
		data["custom"] = opts.Custom
	}

	path := fmt.Sprintf("/api/v2/video/call/%s/%s", remoteCallType, url.PathEscape(callID))
	return c.post(ctx, path, map[string]any{"data": data}, nil)
}

// EndCall terminates the remote room.
func (c *Client) EndCall(ctx context.Context, callID string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	path := fmt.Sprintf("/api/v2/video/call/%s/%s/mark_ended", remoteCallType, url.PathEscape(callID))
	return c.post(ctx, path, map[string]any{}, nil)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	auth, err := c.serverToken()
	if err != nil {
		return fmt.Errorf("server token: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s?api_key=%s", c.baseURL, path, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	req.Header.Set("stream-auth-type", "jwt")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call stream API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stream API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
