package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = time.Minute

// HTTPClient talks to the media server's admin API, authenticating each
// request with a short-lived access token signed by the shared secret.
type HTTPClient struct {
	baseURL   string
	apiKey    string
	apiSecret []byte
	http      *http.Client
}

// HTTPClientOpts holds parameters for creating an HTTPClient.
type HTTPClientOpts struct {
	BaseURL   string
	APIKey    string
	APISecret string
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// NewHTTPClient creates an HTTPClient.
func NewHTTPClient(opts HTTPClientOpts) (*HTTPClient, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("platform: base url is required")
	}
	if opts.APIKey == "" || opts.APISecret == "" {
		return nil, fmt.Errorf("platform: api key and secret are required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		apiSecret: []byte(opts.APISecret),
		http:      hc,
	}, nil
}

// ListRooms implements Client.
func (c *HTTPClient) ListRooms(ctx context.Context) ([]Room, error) {
	var resp struct {
		Rooms []Room `json:"rooms"`
	}
	if err := c.get(ctx, "/v1/rooms", &resp); err != nil {
		return nil, fmt.Errorf("platform: list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// ListEgress implements Client.
func (c *HTTPClient) ListEgress(ctx context.Context) ([]EgressInfo, error) {
	var resp struct {
		Items []EgressInfo `json:"items"`
	}
	if err := c.get(ctx, "/v1/egress", &resp); err != nil {
		return nil, fmt.Errorf("platform: list egress: %w", err)
	}
	return resp.Items, nil
}

// ListIngress implements Client.
func (c *HTTPClient) ListIngress(ctx context.Context) ([]IngressInfo, error) {
	var resp struct {
		Items []IngressInfo `json:"items"`
	}
	if err := c.get(ctx, "/v1/ingress", &resp); err != nil {
		return nil, fmt.Errorf("platform: list ingress: %w", err)
	}
	return resp.Items, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	token, err := c.accessToken()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// accessToken mints a short-lived admin token for one API call.
func (c *HTTPClient) accessToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   c.apiKey,
		"nbf":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
		"admin": true,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}
