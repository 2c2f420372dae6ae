// Package api is the HTTP client for the Mystery Digits game service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/mysterydigits/internal/model"
)

const (
	pathNewGame    = "/api/new-game"
	pathCheckGuess = "/api/check-guess"
	pathGetHint    = "/api/get-hint"

	maxImageBytes = 64 << 10
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("game service returned %d", e.Status)
	}
	return fmt.Sprintf("game service returned %d: %s", e.Status, e.Message)
}

// Client talks JSON to the game service. The session cookie set by the service is kept in a
// cookie jar and sent with every later request.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout *time.Duration
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A nil jar is filled in; a nil client
// is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero means no timeout. It applies to the final HTTP
// client regardless of option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = &d
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// New returns a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https: %q", baseURL)
	}
	c := &Client{
		base: base,
		http: &http.Client{},
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		c.http.Timeout = *c.timeout
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

type newGameRequest struct {
	Difficulty model.Difficulty `json:"difficulty"`
}

type guessRequest struct {
	Guess string `json:"guess"`
}

// NewGame requests a new puzzle.
func (c *Client) NewGame(ctx context.Context, difficulty model.Difficulty) (model.Payload, error) {
	var out model.Payload
	err := c.postJSON(ctx, pathNewGame, newGameRequest{Difficulty: difficulty}, &out)
	return out, err
}

// CheckGuess submits a guess for the current puzzle.
func (c *Client) CheckGuess(ctx context.Context, guess string) (model.Payload, error) {
	var out model.Payload
	err := c.postJSON(ctx, pathCheckGuess, guessRequest{Guess: guess}, &out)
	return out, err
}

// GetHint requests the next hint for the current puzzle.
func (c *Client) GetHint(ctx context.Context) (model.Payload, error) {
	var out model.Payload
	err := c.postJSON(ctx, pathGetHint, struct{}{}, &out)
	return out, err
}

// FetchImage downloads the text rendering at imageURL, which may be relative to the server.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (string, error) {
	ref, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse image url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return string(body), nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	endpoint := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("request failed")
		return nil, fmt.Errorf("failed to call %s: %w", req.URL.Path, err)
	}
	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("game service response")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() {
			_ = resp.Body.Close()
		}()
		return nil, statusError(resp)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	return &StatusError{Status: resp.StatusCode, Message: body.Error}
}
