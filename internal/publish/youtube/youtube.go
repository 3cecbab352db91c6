// Package youtube publishes Shorts through the YouTube Data API v3.
//
// The upload is created private with a resumable session, polled until
// YouTube finishes processing, and then flipped to public. OAuth token
// acquisition and refresh happen outside this package; callers pass a
// ready access token.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"clipcaster/internal/publish"
	"clipcaster/internal/services"
)

const (
	DefaultBaseURL = "https://www.googleapis.com"
	categoryPeople = "24"
)

// HTTPDoer is the HTTP client surface used by the publisher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Publisher.
type Options struct {
	AccessToken string
	BaseURL     string
	HTTP        HTTPDoer
	// UploadHTTP carries the artifact bytes. It should not impose an
	// overall request timeout; nil falls back to HTTP.
	UploadHTTP HTTPDoer
}

// Publisher implements publish.Publisher for YouTube.
type Publisher struct {
	token   string
	baseURL string
	client  HTTPDoer
	upload  HTTPDoer
}

// New validates the token and returns a publisher.
func New(opts Options) (*Publisher, error) {
	token := strings.TrimSpace(opts.AccessToken)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "init", "access token is empty", nil)
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := opts.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	upload := opts.UploadHTTP
	if upload == nil {
		upload = client
	}
	return &Publisher{token: token, baseURL: base, client: client, upload: upload}, nil
}

func (p *Publisher) Platform() publish.Platform { return publish.YouTube }

type videoSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	CategoryID  string   `json:"categoryId,omitempty"`
}

type videoStatus struct {
	PrivacyStatus           string `json:"privacyStatus"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
}

type videoResource struct {
	ID      string        `json:"id,omitempty"`
	Snippet *videoSnippet `json:"snippet,omitempty"`
	Status  *videoStatus  `json:"status,omitempty"`
}

func (p *Publisher) Create(ctx context.Context, content publish.Content) (publish.Session, error) {
	info, err := os.Stat(content.Path)
	if err != nil {
		return publish.Session{}, services.Wrap(services.ErrValidation, "youtube", "create", "stat artifact", err)
	}
	body, err := json.Marshal(videoResource{
		Snippet: &videoSnippet{
			Title:       content.Title,
			Description: content.Description,
			Tags:        []string{"shorts"},
			CategoryID:  categoryPeople,
		},
		Status: &videoStatus{PrivacyStatus: "private"},
	})
	if err != nil {
		return publish.Session{}, fmt.Errorf("encode video resource: %w", err)
	}

	endpoint := p.baseURL + "/upload/youtube/v3/videos?" + url.Values{
		"uploadType": {"resumable"},
		"part":       {"snippet,status"},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return publish.Session{}, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "video/mp4")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(info.Size(), 10))

	resp, err := p.do(p.client, req, "create")
	if err != nil {
		return publish.Session{}, err
	}
	defer resp.Body.Close()
	location := resp.Header.Get("Location")
	if location == "" {
		return publish.Session{}, services.Wrap(services.ErrExternalTool, "youtube", "create", "resumable session has no Location", nil)
	}
	return publish.Session{UploadURL: location}, nil
}

func (p *Publisher) Upload(ctx context.Context, session publish.Session, content publish.Content) (publish.Session, error) {
	file, err := os.Open(content.Path)
	if err != nil {
		return session, services.Wrap(services.ErrValidation, "youtube", "upload", "open artifact", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return session, services.Wrap(services.ErrValidation, "youtube", "upload", "stat artifact", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, session.UploadURL, file)
	if err != nil {
		return session, fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "video/mp4")

	resp, err := p.do(p.upload, req, "upload")
	if err != nil {
		return session, err
	}
	defer resp.Body.Close()
	var video videoResource
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return session, services.Wrap(services.ErrTransient, "youtube", "upload", "decode response", err)
	}
	if video.ID == "" {
		return session, services.Wrap(services.ErrExternalTool, "youtube", "upload", "upload returned no video id", nil)
	}
	session.ID = video.ID
	return session, nil
}

func (p *Publisher) PollStatus(ctx context.Context, session publish.Session) (publish.Status, error) {
	endpoint := p.baseURL + "/youtube/v3/videos?" + url.Values{
		"part": {"processingDetails,status"},
		"id":   {session.ID},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return publish.Status{}, fmt.Errorf("build poll request: %w", err)
	}
	resp, err := p.do(p.client, req, "poll")
	if err != nil {
		return publish.Status{}, err
	}
	defer resp.Body.Close()

	var list struct {
		Items []struct {
			Status struct {
				UploadStatus    string `json:"uploadStatus"`
				FailureReason   string `json:"failureReason"`
				RejectionReason string `json:"rejectionReason"`
			} `json:"status"`
			ProcessingDetails struct {
				ProcessingStatus string `json:"processingStatus"`
			} `json:"processingDetails"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return publish.Status{}, services.Wrap(services.ErrTransient, "youtube", "poll", "decode response", err)
	}
	if len(list.Items) == 0 {
		return publish.Status{State: publish.StateProcessing, Detail: "video not listed yet"}, nil
	}
	item := list.Items[0]
	switch {
	case item.Status.UploadStatus == "failed", item.Status.UploadStatus == "rejected", item.Status.UploadStatus == "deleted":
		detail := strings.TrimSpace(item.Status.UploadStatus + " " + item.Status.FailureReason + item.Status.RejectionReason)
		return publish.Status{State: publish.StateFailed, Detail: detail}, nil
	case item.ProcessingDetails.ProcessingStatus == "failed", item.ProcessingDetails.ProcessingStatus == "terminated":
		return publish.Status{State: publish.StateFailed, Detail: "processing " + item.ProcessingDetails.ProcessingStatus}, nil
	case item.ProcessingDetails.ProcessingStatus == "succeeded", item.Status.UploadStatus == "processed":
		return publish.Status{State: publish.StateReady, Detail: item.Status.UploadStatus}, nil
	default:
		return publish.Status{State: publish.StateProcessing, Detail: item.ProcessingDetails.ProcessingStatus}, nil
	}
}

func (p *Publisher) Publish(ctx context.Context, session publish.Session, _ publish.Content) (publish.Published, error) {
	body, err := json.Marshal(videoResource{
		ID:     session.ID,
		Status: &videoStatus{PrivacyStatus: "public"},
	})
	if err != nil {
		return publish.Published{}, fmt.Errorf("encode status update: %w", err)
	}
	endpoint := p.baseURL + "/youtube/v3/videos?part=status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return publish.Published{}, fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	resp, err := p.do(p.client, req, "publish")
	if err != nil {
		return publish.Published{}, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return publish.Published{ID: session.ID, Link: "https://youtu.be/" + session.ID}, nil
}

func (p *Publisher) do(client HTTPDoer, req *http.Request, op string) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+p.token)
	resp, err := client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "youtube", op, "request failed", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		marker := services.ErrExternalTool
		switch {
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			marker = services.ErrConfiguration
		case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
			marker = services.ErrTransient
		}
		return nil, services.Wrap(marker, "youtube", op,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	return resp, nil
}
