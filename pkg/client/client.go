// Package client is a thin HTTP client for the FAQ chatbot backend.
//
// All retrieval, caching and generation happens server side. The client
// builds requests, checks status codes, and hands streamed answers to the
// chat decoder.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/faqbot/pkg/chat"
	"github.com/papercomputeco/faqbot/pkg/logger"
)

const (
	askStreamPath   = "/api/chat/ask_stream"
	askPath         = "/api/chat/ask"
	suggestionsPath = "/api/chat/suggestions"
	productsPath    = "/api/products/"

	contentTypeJSON   = "application/json"
	contentTypeNDJSON = "application/x-ndjson"

	defaultTimeout = 60 * time.Second

	// maxErrorBody bounds how much of a failed response is kept for the
	// error message.
	maxErrorBody = 4 * 1024
)

// Client talks to one backend instance.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	token      string
	timeout    time.Duration
	decodeOpts []chat.Option
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. Its own Timeout, if
// any, also applies to streaming requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout bounds non-streaming requests. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the client logger. It is also passed to the stream decoder
// unless WithDecodeOptions supplies another.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDecodeOptions passes options through to chat.Decode for AskStream.
func WithDecodeOptions(opts ...chat.Option) Option {
	return func(c *Client) {
		c.decodeOpts = append(c.decodeOpts, opts...)
	}
}

// New returns a Client for the backend at target, e.g. "http://localhost:8000".
func New(target string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(target) == "" {
		return nil, errors.New("client: empty API target")
	}

	base, err := url.Parse(strings.TrimRight(target, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parsing API target: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("client: API target %q must be an http or https URL", target)
	}

	c := &Client{
		base:       base,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// AskRequest is the body of ask and ask_stream.
type AskRequest struct {
	Question  string `json:"question"`
	ProductID string `json:"product_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Language  string `json:"language,omitempty"`
}

// AskResponse is the blocking ask result.
type AskResponse struct {
	Answer           string   `json:"answer"`
	Sources          []string `json:"sources"`
	ResponseTime     float64  `json:"response_time"`
	Cached           bool     `json:"cached"`
	DetectedLanguage string   `json:"detected_language"`
	DebugInfo        string   `json:"debug_info,omitempty"`
}

// Elapsed returns the server-reported response time.
func (r *AskResponse) Elapsed() time.Duration {
	return time.Duration(r.ResponseTime * float64(time.Second))
}

// Product is a read-only view of an insurance product.
type Product struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type suggestionsResponse struct {
	Questions []string `json:"questions"`
}

// AskStream posts req to the streaming endpoint and delivers every chunk to
// fn in arrival order.
//
// An error is returned only when the stream never starts: the request could
// not be built or sent, or the backend answered with a non-2xx status. Once
// the body is open, every outcome, including a dropped connection, reaches
// fn as a chunk and AskStream returns nil.
//
// Cancelling ctx aborts the stream; fn then receives an error chunk.
func (c *Client) AskStream(ctx context.Context, req AskRequest, fn func(chat.Chunk)) error {
	if err := validateAsk(req); err != nil {
		return err
	}

	httpReq, err := c.newJSONRequest(ctx, http.MethodPost, askStreamPath, req)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", contentTypeNDJSON)

	c.logger.Debug("starting answer stream",
		"target", c.base.String(),
		"product_id", req.ProductID,
		"session_id", req.SessionID,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request to backend: %w", err)
	}

	if err := checkStatus(resp); err != nil {
		return err
	}

	opts := append([]chat.Option{chat.WithLogger(c.logger)}, c.decodeOpts...)
	chat.Decode(resp.Body, fn, opts...)
	return nil
}

// Ask posts req to the blocking endpoint and returns the full answer.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	if err := validateAsk(req); err != nil {
		return nil, err
	}

	out := &AskResponse{}
	if err := c.doJSON(ctx, http.MethodPost, askPath, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Suggestions returns questions the backend has cached answers for.
func (c *Client) Suggestions(ctx context.Context) ([]string, error) {
	out := &suggestionsResponse{}
	if err := c.doJSON(ctx, http.MethodGet, suggestionsPath, nil, out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// Products lists the products questions can be scoped to.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.doJSON(ctx, http.MethodGet, productsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateAsk(req AskRequest) error {
	if strings.TrimSpace(req.Question) == "" {
		return errors.New("client: question must not be empty")
	}
	return nil
}

// doJSON performs a bounded request and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.newJSONRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", contentTypeJSON)

	c.logger.Debug("backend request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to backend: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}
