package yclients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/worckyky/sport-booking-backend/app/observability"
	"github.com/worckyky/sport-booking-backend/config"
)

const acceptHeader = "application/vnd.api.v2+json"

// APIError is an answer with success=false. Message comes from meta.message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yclients: %d: %s", e.Status, e.Message)
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.YClientsConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: observability.NewHTTPClient("yclients", cfg.Timeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// meta and data are objects on some answers and empty arrays on others.
type authResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

func (r *authResponse) userToken() string {
	var data struct {
		UserToken string `json:"user_token"`
	}
	_ = json.Unmarshal(r.Data, &data)
	return data.UserToken
}

func (r *authResponse) message() string {
	var meta struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(r.Meta, &meta)
	return meta.Message
}

// AuthenticateUser exchanges a login and password for a user token on behalf
// of the partner.
func (c *Client) AuthenticateUser(ctx context.Context, partnerToken, login, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"login": login, "password": password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+partnerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("yclients auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var decoded authResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode yclients auth response (status %d): %w", resp.StatusCode, err)
	}
	token := decoded.userToken()
	if !decoded.Success || token == "" {
		return "", &APIError{Status: resp.StatusCode, Message: decoded.message()}
	}

	return token, nil
}
