// Package graphapi is the small HTTP layer shared by the Facebook and
// Instagram publishers: form posts and field reads against the Graph API,
// plus binary uploads to the rupload host.
package graphapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"clipcaster/internal/services"
)

const (
	DefaultBaseURL   = "https://graph.facebook.com"
	DefaultVersion   = "v18.0"
	maxErrorBodySize = 4 << 10
)

// HTTPDoer is the HTTP client surface used by the Graph clients.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues authenticated Graph API requests.
type Client struct {
	BaseURL string
	Version string
	Token   string
	HTTP    HTTPDoer
	// UploadHTTP carries rupload bodies. It should not impose an overall
	// request timeout; nil falls back to HTTP.
	UploadHTTP HTTPDoer
	// Component tags wrapped errors, e.g. "facebook".
	Component string
}

// APIError is the Graph API error envelope.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	FBTraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error %d (%s): %s", e.Code, e.Type, e.Message)
}

// Endpoint joins path onto the versioned base URL.
func (c *Client) Endpoint(path string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	version := strings.Trim(c.Version, "/")
	if version == "" {
		version = DefaultVersion
	}
	return base + "/" + version + "/" + strings.TrimLeft(path, "/")
}

// PostForm posts form values with the access token and decodes the reply
// into out.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	if form == nil {
		form = url.Values{}
	}
	form.Set("access_token", c.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(path), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build graph request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, "post "+path, out)
}

// GetFields reads fields of a node and decodes the reply into out.
func (c *Client) GetFields(ctx context.Context, id, fields string, out any) error {
	q := url.Values{}
	q.Set("fields", fields)
	q.Set("access_token", c.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(id)+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build graph request: %w", err)
	}
	return c.do(req, "get "+id, out)
}

// Rupload streams the file at path to an rupload URL with OAuth auth.
func (c *Client) Rupload(ctx context.Context, uploadURL, path string, extraHeaders map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, c.Component, "upload", "open artifact", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return services.Wrap(services.ErrValidation, c.Component, "upload", "stat artifact", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, file)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Authorization", "OAuth "+c.Token)
	req.Header.Set("offset", "0")
	req.Header.Set("file_size", strconv.FormatInt(info.Size(), 10))
	req.Header.Set("Content-Type", "application/octet-stream")
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}
	client := c.UploadHTTP
	if client == nil {
		client = c.HTTP
	}
	return c.send(client, req, "upload", nil)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	return c.send(c.HTTP, req, op, out)
}

func (c *Client) send(client HTTPDoer, req *http.Request, op string, out any) error {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, c.Component, op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			return services.Wrap(markerFor(resp.StatusCode), c.Component, op, fmt.Sprintf("status %d", resp.StatusCode), envelope.Error)
		}
		return services.Wrap(markerFor(resp.StatusCode), c.Component, op,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, c.Component, op, "decode response", err)
	}
	return nil
}

func markerFor(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return services.ErrConfiguration
	case status >= http.StatusInternalServerError, status == http.StatusTooManyRequests:
		return services.ErrTransient
	default:
		return services.ErrExternalTool
	}
}
