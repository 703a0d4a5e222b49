// Package backend is the JSON-over-HTTP client for the storefront backend:
// catalog, customer directory and transactions.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront-checkout/internal/checkout"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *APIError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// ServerMessage is the message the backend put in the error body, if any.
func (e *APIError) ServerMessage() string { return e.Message }

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New builds a client. A nil httpClient gets one without a timeout.
func New(baseURL string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

func (c *Client) Catalog() *CatalogAPI { return &CatalogAPI{c: c} }

func (c *Client) Customers() *CustomerAPI { return &CustomerAPI{c: c} }

func (c *Client) Transactions() *TransactionAPI { return &TransactionAPI{c: c} }

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.log.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	return unwrapData(raw), nil
}

// unwrapData accepts both {"data": payload} and a bare payload.
func unwrapData(raw []byte) json.RawMessage {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		if d := bytes.TrimSpace(env.Data); len(d) > 0 && !bytes.Equal(d, []byte("null")) {
			return d
		}
	}
	return raw
}

func errorMessage(raw []byte) string {
	var body struct {
		Message checkout.Text `json:"message"`
		Error   checkout.Text `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return string(body.Message)
	}
	return string(body.Error)
}

func decode[T any](raw json.RawMessage) (T, error) {
	var t T
	if len(bytes.TrimSpace(raw)) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
