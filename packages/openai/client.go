package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second

	generationsPath = "/v1/images/generations"
)

// Client talks to an OpenAI-compatible image-generation API.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	userAgent  string
	limiter    *rate.Limiter
	logger     logrus.FieldLogger
	httpClient *http.Client
}

type ClientOption func(*Client)

func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		timeout:   DefaultTimeout,
		userAgent: "imgprobe",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit throttles outgoing requests to at most rps per second.
// Zero or negative rps disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger enables debug-level transport logging.
func WithLogger(logger logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// GenerateImages issues one generation request and decodes the response.
// Non-2xx responses are returned as *APIError; undecodable 2xx bodies as
// *DecodeError.
func (c *Client) GenerateImages(ctx context.Context, req *ImageRequest) (*ImageResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := c.baseURL + generationsPath

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"url":             url,
			"model":           req.Model,
			"n":               req.N,
			"response_format": req.ResponseFormat,
		}).Debug("sending generation request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"status":   httpResp.StatusCode,
			"duration": time.Since(start).String(),
			"bytes":    len(body),
		}).Debug("received generation response")
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, parseAPIError(httpResp.StatusCode, body)
	}

	resp := &ImageResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, &DecodeError{Err: err, Body: body}
	}
	resp.Raw = body

	return resp, nil
}

// parseAPIError extracts the structured error envelope, falling back to a
// body snippet when the service returned something else.
func parseAPIError(statusCode int, body []byte) *APIError {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		apiErr := envelope.Error
		apiErr.StatusCode = statusCode
		return apiErr
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	return &APIError{StatusCode: statusCode, Message: msg}
}
