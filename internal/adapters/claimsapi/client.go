// Package claimsapi is the HTTP client for the remote claims REST API.
//
// It is the single deserialization boundary for the API's inconsistently
// cased JSON: every payload is normalized into canonical structs here, and
// nothing downstream ever branches on field casing.
package claimsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"etag/internal/domain/claim"
)

// ErrUnauthorized is returned for any 401 or 403 from the remote API.
// Callers treat it as a forced logout.
var ErrUnauthorized = errors.New("remote api rejected the bearer token")

// APIError carries a non-2xx response that is not an auth failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api error (%d)", e.Status)
	}
	return fmt.Sprintf("remote api error (%d): %s", e.Status, e.Message)
}

// User is a canonical account record from GET /Auth/getallusers.
type User struct {
	ID            string
	Name          string
	Email         string
	Role          string
	Sport         string
	PreseasonRate float64
	GameRate      float64
	PracticeRate  float64
	CreatedAt     time.Time
}

// Claimant is a canonical row from GET /GeoTag/claimants.
type Claimant struct {
	Name          string
	Email         string
	TotalSessions int
	NetTotal      float64
}

// Client talks to the remote claims API. Zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL (e.g.
// "https://geotagger-api.fly.dev/api"). A nil httpClient falls back to
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Login exchanges credentials for a bearer token via POST /Auth/login.
// POST: on success the returned token is non-empty
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/Auth/login", "", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &APIError{Status: http.StatusOK, Message: "login response carried no token"}
	}
	return out.Token, nil
}

// Register creates an account via POST /Auth/register and returns the API's
// confirmation message.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/Auth/register", "", body, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		out.Message = "Registration successful."
	}
	return out.Message, nil
}

// GetAllUsers lists every account via GET /Auth/getallusers (admin token).
func (c *Client) GetAllUsers(ctx context.Context, token string) ([]User, error) {
	var raw []rawUser
	if err := c.do(ctx, http.MethodGet, "/Auth/getallusers", token, nil, &raw); err != nil {
		return nil, err
	}
	users := make([]User, 0, len(raw))
	for _, r := range raw {
		users = append(users, r.canonical())
	}
	return users, nil
}

// ListTags fetches session tags via GET /GeoTag. An empty email returns the
// token owner's tags; a non-empty email filters server-side (admin use).
func (c *Client) ListTags(ctx context.Context, token, email string) ([]claim.Tag, error) {
	path := "/GeoTag"
	if email != "" {
		path += "?email=" + url.QueryEscape(email)
	}
	var raw []rawTag
	if err := c.do(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	tags := make([]claim.Tag, 0, len(raw))
	for _, r := range raw {
		tags = append(tags, r.canonical())
	}
	return tags, nil
}

// SubmitTag records a new session tag via POST /GeoTag.
// PRE: draft has passed claim.Draft.Validate
func (c *Client) SubmitTag(ctx context.Context, token string, draft claim.Draft) error {
	body := map[string]any{
		"latitude":    draft.Latitude,
		"longitude":   draft.Longitude,
		"address":     draft.Address,
		"sessionType": draft.SessionType,
		"ip":          draft.IPAddress,
		"email":       draft.Email,
	}
	return c.do(ctx, http.MethodPost, "/GeoTag", token, body, nil)
}

// Claimants returns the per-coach claim totals via GET /GeoTag/claimants
// (admin token).
func (c *Client) Claimants(ctx context.Context, token string) ([]Claimant, error) {
	var raw []rawClaimant
	if err := c.do(ctx, http.MethodGet, "/GeoTag/claimants", token, nil, &raw); err != nil {
		return nil, err
	}
	rows := make([]Claimant, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, r.canonical())
	}
	return rows, nil
}

// ClearClaims deletes all of one coach's tags via DELETE /GeoTag/clear and
// returns the API's confirmation message.
func (c *Client) ClearClaims(ctx context.Context, token, email string) (string, error) {
	path := "/GeoTag/clear?email=" + url.QueryEscape(email)
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, path, token, nil, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		out.Message = "Claims cleared."
	}
	return out.Message, nil
}

// do performs one API round trip. 401/403 map to ErrUnauthorized, other
// non-2xx statuses to *APIError with the body's message when present. A nil
// out skips response decoding.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	// An empty body on a 2xx is a success with nothing to report.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts a {"message": ...} body, falling back to raw text.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}
