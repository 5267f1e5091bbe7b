// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the REST client for the HR SARTHI chat endpoints.
//
// The client is a thin façade: one HTTP round trip per call, bearer-token
// authentication, typed decoding with validation at the boundary, and no
// retries. Callers decide what a failure means for their view.
package api

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hrsarthi/sarthi-tui/internal/model"
)

// Configuration constants for the chat API.
const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:5000/api"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// RequestIDHeader carries a per-request id for server log correlation.
	RequestIDHeader = "X-Request-ID"

	userAgent = "sarthi/1.0"
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat REST API. It is safe for concurrent use once
// configured; the With* methods are meant for construction time only.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	userAgent  string
}

// NewClient creates a client for baseURL authenticated with token.
// An empty token produces a client whose calls fail with ErrNotConfigured.
func NewClient(baseURL, token string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:    zap.NewNop(),
		userAgent: userAgent,
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// WithToken replaces the bearer token.
func (c *Client) WithToken(token string) *Client {
	c.token = strings.TrimSpace(token)
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient swaps the underlying HTTP client (tests, custom transports).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger attaches a logger. Requests are logged without headers or bodies.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger.Named("api")
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured returns true if the client has a token to send.
func (c *Client) IsConfigured() bool {
	return c.token != "" && c.baseURL != ""
}

// =============================================================================
// CHAT ENDPOINTS
// =============================================================================

// ListUsers returns the user directory (GET /users).
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[model.User](body, "users")
}

// ListConversations returns the current user's conversation summaries
// (GET /conversations).
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	body, err := c.do(ctx, http.MethodGet, "/conversations", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[model.Conversation](body, "conversations")
}

// ListMessages returns the thread with counterpartID in server order
// (GET /messages/{counterpartId}).
func (c *Client) ListMessages(ctx context.Context, counterpartID string) ([]model.Message, error) {
	if counterpartID == "" {
		return nil, fmt.Errorf("%w: empty counterpart id", ErrNotFound)
	}
	body, err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(counterpartID), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[model.Message](body, "messages")
}

// SendMessage posts a message and returns the server's stored copy
// (POST /messages). Content is sent as typed; blank content is rejected
// locally.
func (c *Client) SendMessage(ctx context.Context, receiverID, content string) (model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return model.Message{}, ErrEmptyMessage
	}
	req := model.SendRequest{ReceiverID: receiverID, Content: content}
	body, err := c.do(ctx, http.MethodPost, "/messages", req)
	if err != nil {
		return model.Message{}, err
	}
	return decodeOne[model.Message](body, "message")
}

// MarkRead marks one message as read (POST /messages/{id}/read).
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	_, err := c.do(ctx, http.MethodPost, "/messages/"+url.PathEscape(messageID)+"/read", nil)
	return err
}

// MarkAllRead marks every message from counterpartID as read
// (POST /messages/read-all/{counterpartId}).
func (c *Client) MarkAllRead(ctx context.Context, counterpartID string) error {
	_, err := c.do(ctx, http.MethodPost, "/messages/read-all/"+url.PathEscape(counterpartID), nil)
	return err
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do performs a single request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	c.setHeaders(req, requestID, payload != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// setHeaders sets the headers every request carries.
func (c *Client) setHeaders(req *http.Request, requestID string, hasBody bool) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
