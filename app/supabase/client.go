package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/app/observability"
	"github.com/worckyky/sport-booking-backend/config"
)

const defaultTimeout = 10 * time.Second

type User struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	UserMetadata     map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil && !u.EmailConfirmedAt.IsZero()
}

// MetadataString reads a string value from user_metadata.
func (u *User) MetadataString(key string) (string, bool) {
	value, ok := u.UserMetadata[key].(string)
	return value, ok && value != ""
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`
}

// APIError is a non-2xx answer from the auth server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase auth: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase auth: %d: %s", e.Status, e.Message)
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// Client talks to the GoTrue REST API exposed under /auth/v1.
type Client struct {
	baseURL        string
	anonKey        string
	serviceRoleKey string
	httpClient     *http.Client
}

func NewClient(cfg config.SupabaseConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:        cfg.AnonKey,
		serviceRoleKey: cfg.ServiceRoleKey,
		httpClient:     observability.NewHTTPClient("supabase", defaultTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignUp registers a user. Session is nil when the project requires email
// confirmation; User is always set.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}, redirectTo string) (*User, *Session, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     metadata,
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/signup"+redirectQuery(redirectTo), c.anonKey, body, &raw); err != nil {
		return nil, nil, err
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, nil, fmt.Errorf("decode signup response: %w", err)
	}
	if session.AccessToken != "" && session.User != nil {
		return session.User, &session, nil
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, nil, fmt.Errorf("decode signup response: %w", err)
	}
	return &user, nil, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", c.anonKey, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUser resolves the user behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/user", accessToken, map[string]string{"password": password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Recover(ctx context.Context, email, redirectTo string) error {
	return c.do(ctx, http.MethodPost, "/recover"+redirectQuery(redirectTo), c.anonKey, map[string]string{"email": email}, nil)
}

func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

func (c *Client) AdminGetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), c.serviceRoleKey, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AdminUpdateMetadata merges the given keys into user_metadata. Nil values
// remove the key.
func (c *Client) AdminUpdateMetadata(ctx context.Context, id string, metadata map[string]interface{}) (*User, error) {
	var user User
	body := map[string]interface{}{"user_metadata": metadata}
	if err := c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), c.serviceRoleKey, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) AdminDeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), c.serviceRoleKey, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKeyFor(bearer))
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase auth request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, payload)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode supabase response: %w", err)
	}
	return nil
}

func (c *Client) apiKeyFor(bearer string) string {
	if bearer == c.serviceRoleKey {
		return c.serviceRoleKey
	}
	return c.anonKey
}

func decodeAPIError(status int, payload []byte) *APIError {
	var body struct {
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(payload, &body)

	apiErr := &APIError{Status: status, Code: body.ErrorCode}
	for _, candidate := range []string{body.Msg, body.ErrorDescription, body.Message, body.Error} {
		if candidate != "" {
			apiErr.Message = candidate
			break
		}
	}
	if apiErr.Code == "" && body.ErrorDescription != "" {
		apiErr.Code = body.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func redirectQuery(redirectTo string) string {
	if redirectTo == "" {
		return ""
	}
	return "?redirect_to=" + url.QueryEscape(redirectTo)
}
