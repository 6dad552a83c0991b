// Package tlclient is the outbound HTTP capability set described by
// spec.md §6 "Remote client (outbound)": putDomain, putEntities (both the
// single-argument and the (attemptId, groupId, entity) variants), an
// optional flush, and stop. It is built directly on net/http and
// encoding/json — explicitly composed rather than reflection-dispatched,
// matching the extension registry's composition style (spec.md "Design
// Notes").
package tlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cuemby/atsbridge/pkg/timeline"
)

// TransientError wraps a connect-refused/timeout/socket failure or an HTTP
// 5xx response: the caller should retry with backoff (spec.md §7
// "Transient network failure").
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("timeline client %s: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// RejectionError wraps a permanent server-side rejection: an HTTP 2xx
// response whose body carries an error list, or an HTTP 4xx response
// (spec.md §7 "Permanent server rejection"). The caller must not retry.
type RejectionError struct {
	Errors []string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("timeline server rejected entity: %v", e.Errors)
}

// putResponse is the Timeline Server's ack/error-list envelope.
type putResponse struct {
	Errors []string `json:"errors,omitempty"`
}

// Client posts domains and entities to a remote Timeline Server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client targeting baseURL (e.g. "http://history:8188/ws/v1/timeline").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// PutDomain creates or updates a domain's ACLs (spec.md §4.7).
func (c *Client) PutDomain(ctx context.Context, d timeline.Domain) error {
	url := fmt.Sprintf("%s/domain", c.baseURL)
	return c.put(ctx, url, d)
}

// PutEntity posts a single entity with no attempt/group scoping — the
// single-argument variant of putEntities (spec.md §6).
func (c *Client) PutEntity(ctx context.Context, e *timeline.Entity) error {
	url := fmt.Sprintf("%s/entities", c.baseURL)
	return c.putEntity(ctx, url, e)
}

// PutEntityForAttempt posts an entity scoped to an attempt id and job
// group — the (attemptIdOrNull, groupId, entity) variant used in v1.5 mode
// (spec.md §6). attemptID may be empty.
func (c *Client) PutEntityForAttempt(ctx context.Context, attemptID, groupID string, e *timeline.Entity) error {
	url := fmt.Sprintf("%s/entities?groupId=%s", c.baseURL, groupID)
	if attemptID != "" {
		url = fmt.Sprintf("%s&attemptId=%s", url, attemptID)
	}
	return c.putEntity(ctx, url, e)
}

func (c *Client) putEntity(ctx context.Context, url string, e *timeline.Entity) error {
	var resp putResponse
	if err := c.doJSON(ctx, url, e, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return &RejectionError{Errors: resp.Errors}
	}
	return nil
}

func (c *Client) put(ctx context.Context, url string, body interface{}) error {
	return c.doJSON(ctx, url, body, nil)
}

func (c *Client) doJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: "put", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &TransientError{Op: "put", Err: fmt.Errorf("server status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return &RejectionError{Errors: []string{fmt.Sprintf("http status %d", resp.StatusCode)}}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &TransientError{Op: "decode", Err: err}
		}
		return nil // empty/non-JSON body is treated as a bare ack, not a rejection
	}
	return nil
}

// Flush is a no-op for the plain HTTP client; it exists so callers can
// treat tlclient.Client as "flushable" uniformly (spec.md §4.4 "if the
// client is flushable, call flush").
func (c *Client) Flush(context.Context) error { return nil }

// Stop releases idle connections held by the underlying transport.
func (c *Client) Stop() error {
	c.http.CloseIdleConnections()
	return nil
}

// IsTransient reports whether err represents a connect-refused/timeout
// style failure that the poster should retry (spec.md §7).
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
