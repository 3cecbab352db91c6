package accounts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"clipcaster/internal/publish"
	"clipcaster/internal/publish/facebook"
	"clipcaster/internal/publish/instagram"
	"clipcaster/internal/publish/youtube"
	"clipcaster/internal/services"
)

// Endpoints overrides platform base URLs, mainly for tests.
type Endpoints struct {
	YouTube    string
	Graph      string
	Rupload    string
	APIVersion string
}

// Resolver builds publishers for an account's configured platforms.
type Resolver struct {
	Registry  *Registry
	Endpoints Endpoints
	// HTTP serves metadata calls (create, poll, publish).
	HTTP *http.Client
	// UploadHTTP streams artifacts. It has no overall timeout, so large
	// clips on slow links are bounded only by the response header wait.
	UploadHTTP *http.Client
	Clock      func() time.Time
}

// NewResolver returns a resolver whose metadata calls time out after
// timeout. Uploads wait at most timeout for response headers once the body
// has been sent.
func NewResolver(registry *Registry, endpoints Endpoints, timeout time.Duration) *Resolver {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &Resolver{
		Registry:   registry,
		Endpoints:  endpoints,
		HTTP:       &http.Client{Timeout: timeout},
		UploadHTTP: &http.Client{Transport: transport},
		Clock:      time.Now,
	}
}

// Targets implements publish.Resolver.
func (r *Resolver) Targets(_ context.Context, name string) ([]publish.Target, error) {
	acct, err := r.Registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	var targets []publish.Target

	if acct.HasYouTube() {
		targets = append(targets, r.youtubeTarget(acct))
	}
	if acct.HasMeta() {
		targets = append(targets, r.facebookTarget(acct), r.instagramTarget(acct))
	}
	return targets, nil
}

func (r *Resolver) youtubeTarget(acct *Account) publish.Target {
	target := publish.Target{Platform: publish.YouTube}
	if acct.YouTubeErr != nil {
		target.Err = acct.YouTubeErr
		return target
	}
	now := time.Now
	if r.Clock != nil {
		now = r.Clock
	}
	if !acct.YouTube.Expiry.IsZero() && now().After(acct.YouTube.Expiry) {
		target.Err = services.Wrap(services.ErrConfiguration, "accounts", "youtube token",
			fmt.Sprintf("token for %s expired at %s", acct.Name, acct.YouTube.Expiry.Format(time.RFC3339)), nil)
		return target
	}
	pub, err := youtube.New(youtube.Options{
		AccessToken: acct.YouTube.AccessToken,
		BaseURL:     r.Endpoints.YouTube,
		HTTP:        r.HTTP,
		UploadHTTP:  r.uploadClient(),
	})
	target.Publisher, target.Err = nilIfErr(pub, err)
	return target
}

func (r *Resolver) facebookTarget(acct *Account) publish.Target {
	target := publish.Target{Platform: publish.Facebook}
	if acct.MetaErr != nil {
		target.Err = acct.MetaErr
		return target
	}
	pub, err := facebook.New(facebook.Options{
		PageID:     acct.Meta.PageID,
		Token:      acct.Meta.PageToken,
		BaseURL:    r.Endpoints.Graph,
		RuploadURL: r.Endpoints.Rupload,
		Version:    r.Endpoints.APIVersion,
		HTTP:       r.HTTP,
		UploadHTTP: r.uploadClient(),
	})
	target.Publisher, target.Err = nilIfErr(pub, err)
	return target
}

func (r *Resolver) instagramTarget(acct *Account) publish.Target {
	target := publish.Target{Platform: publish.Instagram}
	if acct.MetaErr != nil {
		target.Err = acct.MetaErr
		return target
	}
	pub, err := instagram.New(instagram.Options{
		UserID:     acct.Meta.IGUserID,
		Token:      acct.Meta.IGToken,
		BaseURL:    r.Endpoints.Graph,
		RuploadURL: r.Endpoints.Rupload,
		Version:    r.Endpoints.APIVersion,
		HTTP:       r.HTTP,
		UploadHTTP: r.uploadClient(),
	})
	target.Publisher, target.Err = nilIfErr(pub, err)
	return target
}

// uploadClient returns UploadHTTP, or HTTP for resolvers built without one.
func (r *Resolver) uploadClient() *http.Client {
	if r.UploadHTTP != nil {
		return r.UploadHTTP
	}
	return r.HTTP
}

// nilIfErr avoids storing a typed nil pointer in the Publisher interface.
func nilIfErr[P publish.Publisher](pub P, err error) (publish.Publisher, error) {
	if err != nil {
		return nil, err
	}
	return pub, nil
}
