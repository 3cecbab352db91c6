// Package instagram publishes Reels to an Instagram business account using
// resumable media containers.
package instagram

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
	UserID     string
	Token      string
	BaseURL    string
	RuploadURL string
	Version    string
	HTTP       graphapi.HTTPDoer
	UploadHTTP graphapi.HTTPDoer
}

// Publisher implements publish.Publisher for Instagram Reels.
type Publisher struct {
	userID     string
	ruploadURL string
	graph      *graphapi.Client
}

// New validates credentials and returns a publisher.
func New(opts Options) (*Publisher, error) {
	userID := strings.TrimSpace(opts.UserID)
	token := strings.TrimSpace(opts.Token)
	if userID == "" || token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "instagram", "init", "IG_USER_ID and IG_TOKEN are required", nil)
	}
	rupload := strings.TrimRight(strings.TrimSpace(opts.RuploadURL), "/")
	if rupload == "" {
		rupload = DefaultRuploadURL
	}
	graph := &graphapi.Client{
		BaseURL:    opts.BaseURL,
		Version:    opts.Version,
		Token:      token,
		HTTP:       opts.HTTP,
		UploadHTTP: opts.UploadHTTP,
		Component:  "instagram",
	}
	return &Publisher{userID: userID, ruploadURL: rupload, graph: graph}, nil
}

func (p *Publisher) Platform() publish.Platform { return publish.Instagram }

func (p *Publisher) Create(ctx context.Context, content publish.Content) (publish.Session, error) {
	form := url.Values{
		"media_type":  {"REELS"},
		"upload_type": {"resumable"},
		"caption":     {caption(content)},
	}
	var resp struct {
		ID  string `json:"id"`
		URI string `json:"uri"`
	}
	if err := p.graph.PostForm(ctx, p.userID+"/media", form, &resp); err != nil {
		return publish.Session{}, err
	}
	if resp.ID == "" {
		return publish.Session{}, services.Wrap(services.ErrExternalTool, "instagram", "create", "container creation returned no id", nil)
	}
	uploadURL := resp.URI
	if uploadURL == "" {
		version := p.graph.Version
		if version == "" {
			version = graphapi.DefaultVersion
		}
		uploadURL = fmt.Sprintf("%s/ig-api-upload/%s/%s", p.ruploadURL, version, resp.ID)
	}
	return publish.Session{ID: resp.ID, UploadURL: uploadURL}, nil
}

func (p *Publisher) Upload(ctx context.Context, session publish.Session, content publish.Content) (publish.Session, error) {
	return session, p.graph.Rupload(ctx, session.UploadURL, content.Path, nil)
}

func (p *Publisher) PollStatus(ctx context.Context, session publish.Session) (publish.Status, error) {
	var resp struct {
		StatusCode string `json:"status_code"`
		Status     string `json:"status"`
	}
	if err := p.graph.GetFields(ctx, session.ID, "status_code,status", &resp); err != nil {
		return publish.Status{}, err
	}
	switch resp.StatusCode {
	case "FINISHED", "PUBLISHED":
		return publish.Status{State: publish.StateReady, Detail: resp.StatusCode}, nil
	case "ERROR", "EXPIRED":
		detail := resp.StatusCode
		if resp.Status != "" {
			detail += ": " + resp.Status
		}
		return publish.Status{State: publish.StateFailed, Detail: detail}, nil
	default:
		return publish.Status{State: publish.StateProcessing, Detail: resp.StatusCode}, nil
	}
}

func (p *Publisher) Publish(ctx context.Context, session publish.Session, _ publish.Content) (publish.Published, error) {
	var resp struct {
		ID string `json:"id"`
	}
	form := url.Values{"creation_id": {session.ID}}
	if err := p.graph.PostForm(ctx, p.userID+"/media_publish", form, &resp); err != nil {
		return publish.Published{}, err
	}
	if resp.ID == "" {
		return publish.Published{}, services.Wrap(services.ErrExternalTool, "instagram", "publish", "media_publish returned no id", nil)
	}
	return publish.Published{ID: resp.ID, Link: "https://www.instagram.com/reels/" + resp.ID + "/"}, nil
}

func caption(content publish.Content) string {
	title := strings.TrimSpace(content.Title)
	if title == "" {
		return content.Description
	}
	return title + "\n\n" + content.Description
}
