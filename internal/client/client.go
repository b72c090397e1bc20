// Package client talks to the SmartCard backend on behalf of the UI
// controllers. The session cookie set by Login is kept in a cookie jar.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/models/dto"
)

// LoginPath is where the browser goes after logging out.
const LoginPath = "/login"

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Client calls the backend JSON API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for baseURL with its own cookie jar. Deal searches
// can take a while, so the timeout is generous.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return NewWithHTTPClient(baseURL, &http.Client{Jar: jar, Timeout: 2 * time.Minute}), nil
}

// NewWithHTTPClient uses hc as is. hc needs a cookie jar for sessions to stick.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	_, err := c.expectOK(ctx, http.MethodPost, "/api/auth/register", dto.RegisterRequest{Name: name, Email: email, Password: password})
	return err
}

// Login starts a session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	_, err := c.expectOK(ctx, http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: email, Password: password})
	return err
}

// Logout ends the session and returns the page to navigate to. The
// destination is LoginPath whatever the outcome; err is for diagnostics.
func (c *Client) Logout(ctx context.Context) (string, error) {
	_, err := c.expectOK(ctx, http.MethodPost, "/api/auth/logout", nil)
	return LoginPath, err
}

// GiftCards fetches the signed-in user's gift cards.
func (c *Client) GiftCards(ctx context.Context) ([]models.GiftCard, error) {
	body, err := c.expectOK(ctx, http.MethodGet, "/get-gift-cards", nil)
	if err != nil {
		return nil, err
	}
	var out dto.GiftCardListResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode gift cards: %w", err)
	}
	return out.GiftCards, nil
}

// addGiftCardBody posts balance exactly as typed into the form.
type addGiftCardBody struct {
	Brand   string `json:"brand"`
	Balance string `json:"balance"`
	Notes   string `json:"notes"`
}

// AddGiftCard creates a gift card. Any non-2xx response is an error.
func (c *Client) AddGiftCard(ctx context.Context, brand, balance, notes string) error {
	_, err := c.expectOK(ctx, http.MethodPost, "/add-gift-card", addGiftCardBody{Brand: brand, Balance: balance, Notes: notes})
	return err
}

// FindDeals posts the coordinates and decodes the envelope whatever the
// status code, since failures carry their message in it. err is set only
// when the request fails or the body is not JSON.
func (c *Client) FindDeals(ctx context.Context, point models.Coordinates) (dto.FindDealsResponse, error) {
	lat, lng := point.Latitude, point.Longitude
	resp, err := c.do(ctx, http.MethodPost, "/api/deals/find", dto.FindDealsRequest{Latitude: &lat, Longitude: &lng})
	if err != nil {
		return dto.FindDealsResponse{}, err
	}
	defer resp.Body.Close()

	var out dto.FindDealsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return dto.FindDealsResponse{}, fmt.Errorf("decode deals response (status %d): %w", resp.StatusCode, err)
	}
	return out, nil
}

func (c *Client) expectOK(ctx context.Context, method, path string, payload any) ([]byte, error) {
	resp, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
