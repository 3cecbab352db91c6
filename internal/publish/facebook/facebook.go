// Package facebook publishes Reels to a Facebook page through the Graph API
// video_reels flow.
package facebook

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"clipcaster/internal/publish"
	"clipcaster/internal/publish/graphapi"
	"clipcaster/internal/services"
)

// DefaultRuploadURL is the binary upload host.
const DefaultRuploadURL = "https://rupload.facebook.com"

// Options configures a Publisher.
type Options struct {
	PageID     string
	Token      string
	BaseURL    string
	RuploadURL string
	Version    string
	HTTP       graphapi.HTTPDoer
	UploadHTTP graphapi.HTTPDoer
}

// Publisher implements publish.Publisher for Facebook Reels.
type Publisher struct {
	pageID     string
	ruploadURL string
	graph      *graphapi.Client
}

// New validates credentials and returns a publisher.
func New(opts Options) (*Publisher, error) {
	pageID := strings.TrimSpace(opts.PageID)
	token := strings.TrimSpace(opts.Token)
	if pageID == "" || token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "facebook", "init", "FB_PAGE_ID and FB_PAGE_TOKEN are required", nil)
	}
	rupload := strings.TrimRight(strings.TrimSpace(opts.RuploadURL), "/")
	if rupload == "" {
		rupload = DefaultRuploadURL
	}
	return &Publisher{
		pageID:     pageID,
		ruploadURL: rupload,
		graph: &graphapi.Client{
			BaseURL:    opts.BaseURL,
			Version:    opts.Version,
			Token:      token,
			HTTP:       opts.HTTP,
			UploadHTTP: opts.UploadHTTP,
			Component:  "facebook",
		},
	}, nil
}

func (p *Publisher) Platform() publish.Platform { return publish.Facebook }

func (p *Publisher) Create(ctx context.Context, _ publish.Content) (publish.Session, error) {
	var resp struct {
		VideoID   string `json:"video_id"`
		UploadURL string `json:"upload_url"`
	}
	form := url.Values{"upload_phase": {"start"}}
	if err := p.graph.PostForm(ctx, p.pageID+"/video_reels", form, &resp); err != nil {
		return publish.Session{}, err
	}
	if resp.VideoID == "" {
		return publish.Session{}, services.Wrap(services.ErrExternalTool, "facebook", "create", "start phase returned no video_id", nil)
	}
	uploadURL := resp.UploadURL
	if uploadURL == "" {
		uploadURL = fmt.Sprintf("%s/video-reels/%s", p.ruploadURL, resp.VideoID)
	}
	return publish.Session{ID: resp.VideoID, UploadURL: uploadURL}, nil
}

func (p *Publisher) Upload(ctx context.Context, session publish.Session, content publish.Content) (publish.Session, error) {
	return session, p.graph.Rupload(ctx, session.UploadURL, content.Path, nil)
}

func (p *Publisher) PollStatus(ctx context.Context, session publish.Session) (publish.Status, error) {
	var resp struct {
		Status struct {
			VideoStatus    string `json:"video_status"`
			UploadingPhase struct {
				Status string `json:"status"`
			} `json:"uploading_phase"`
			ProcessingPhase struct {
				Status string `json:"status"`
			} `json:"processing_phase"`
		} `json:"status"`
	}
	if err := p.graph.GetFields(ctx, session.ID, "status", &resp); err != nil {
		return publish.Status{}, err
	}
	st := resp.Status
	switch {
	case st.VideoStatus == "error", st.VideoStatus == "failed", st.ProcessingPhase.Status == "error":
		return publish.Status{State: publish.StateFailed, Detail: "video_status=" + st.VideoStatus}, nil
	case st.VideoStatus == "ready", st.VideoStatus == "upload_complete", st.UploadingPhase.Status == "complete":
		return publish.Status{State: publish.StateReady, Detail: st.VideoStatus}, nil
	default:
		return publish.Status{State: publish.StateProcessing, Detail: st.VideoStatus}, nil
	}
}

func (p *Publisher) Publish(ctx context.Context, session publish.Session, content publish.Content) (publish.Published, error) {
	form := url.Values{
		"upload_phase": {"finish"},
		"video_id":     {session.ID},
		"video_state":  {"PUBLISHED"},
		"description":  {caption(content)},
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := p.graph.PostForm(ctx, p.pageID+"/video_reels", form, &resp); err != nil {
		return publish.Published{}, err
	}
	if !resp.Success {
		return publish.Published{}, services.Wrap(services.ErrExternalTool, "facebook", "publish", "finish phase not acknowledged", nil)
	}
	return publish.Published{ID: session.ID, Link: "https://www.facebook.com/reels/" + session.ID}, nil
}

// caption joins the title and description the way Reels display them.
func caption(content publish.Content) string {
	title := strings.TrimSpace(content.Title)
	if title == "" {
		return content.Description
	}
	return title + "\n\n" + content.Description
}
