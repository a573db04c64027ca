// Package contact is the HTTP client for the external contact service. Only
// the two calls this service needs are covered: an existence check used
// during order validation, and the promotion of a contact to customer after
// a successful sale.
package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/louvornalaje/distribuidora-sub000/pkg/errors"
	"github.com/louvornalaje/distribuidora-sub000/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client calls the contact service over HTTP.
type Client struct {
	baseURL string
	http    HTTPDoer
	logger  *slog.Logger
}

// NewClient creates a contact service client.
func NewClient(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
	}
}

// Exists reports whether the contact is known to the contact service.
// A 404 means "no"; any other failure is propagated.
func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	reqURL := fmt.Sprintf("%s/api/v1/contacts/%s", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("build contact request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("call contact service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, nil
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	default:
		return false, httpclient.ParseResponseError(resp, "contact")
	}
}

// PromoteToCustomer marks the contact as a customer and refreshes its
// last-contact timestamp. Callers treat this as fire-and-forget.
func (c *Client) PromoteToCustomer(ctx context.Context, id string) error {
	reqURL := fmt.Sprintf("%s/api/v1/contacts/%s/promote", c.baseURL, url.PathEscape(id))

	body, err := json.Marshal(map[string]string{"status": "cliente"})
	if err != nil {
		return fmt.Errorf("marshal promote request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, reqURL, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("build promote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call contact service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return apperrors.NotFound("contact", id)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return httpclient.ParseResponseError(resp, "contact")
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.DebugContext(ctx, "contact promoted to customer",
		slog.String("contact_id", id),
	)

	return nil
}
