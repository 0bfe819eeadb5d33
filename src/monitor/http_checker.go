package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Paths on the server the checker talks to
const (
	CheckSessionPath = "/api/auth/check-session"
	LogoutPath       = "/api/auth/logout"
)

// HTTPStatusChecker checks a session against a running server using its cookie
type HTTPStatusChecker struct {
	baseURL    string
	cookieName string
	token      string
	client     *http.Client
}

// NewHTTPStatusChecker creates a checker for the session token under cookieName
func NewHTTPStatusChecker(baseURL, cookieName, token string, timeout time.Duration) *HTTPStatusChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPStatusChecker{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cookieName: cookieName,
		token:      token,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
			// The status endpoint never redirects; a redirect means a proxy in the way
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *HTTPStatusChecker) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: h.cookieName, Value: h.token})
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// CheckSession asks the server whether the session is still current.
// Only 200 and 401 carry an answer; anything else is transient.
func (h *HTTPStatusChecker) CheckSession(ctx context.Context) (Status, error) {
	req, err := h.newRequest(ctx, http.MethodGet, CheckSessionPath)
	if err != nil {
		return Status{}, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Status{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var status Status
	err = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&status)

	// A 401 is authoritative even without a readable body
	if resp.StatusCode == http.StatusUnauthorized {
		status.Valid = false
		return status, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to decode session status: %w", err)
	}
	return status, nil
}

// Logout asks the server to end the session
func (h *HTTPStatusChecker) Logout(ctx context.Context) error {
	req, err := h.newRequest(ctx, http.MethodPost, LogoutPath)
	if err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
