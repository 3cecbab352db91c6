package graphapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"clipcaster/internal/services"
)

func TestPostFormAddsTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v19.0/123/video_reels" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("access_token") != "tok" || r.PostForm.Get("upload_phase") != "start" {
			t.Errorf("form = %v", r.PostForm)
		}
		_, _ = io.WriteString(w, `{"video_id":"v1"}`)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Version: "v19.0", Token: "tok", HTTP: srv.Client(), Component: "facebook"}
	var out struct {
		VideoID string `json:"video_id"`
	}
	if err := c.PostForm(context.Background(), "123/video_reels", url.Values{"upload_phase": {"start"}}, &out); err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	if out.VideoID != "v1" {
		t.Fatalf("video id = %q", out.VideoID)
	}
}

func TestErrorEnvelopeIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Token: "bad", HTTP: srv.Client(), Component: "instagram"}
	err := c.GetFields(context.Background(), "42", "status_code", &struct{}{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 190 {
		t.Fatalf("expected APIError, got %v", err)
	}
}

func TestRuploadSendsHeadersAndBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("videobytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "OAuth tok" || r.Header.Get("file_size") != "10" || r.Header.Get("offset") != "0" {
			t.Errorf("headers = %v", r.Header)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "videobytes" {
			t.Errorf("body = %q", body)
		}
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := &Client{Token: "tok", HTTP: srv.Client()}
	if err := c.Rupload(context.Background(), srv.URL+"/video-reels/v1", path, nil); err != nil {
		t.Fatalf("Rupload: %v", err)
	}
}

func TestEndpointDefaults(t *testing.T) {
	c := &Client{}
	if got := c.Endpoint("/me"); got != "https://graph.facebook.com/v18.0/me" {
		t.Fatalf("Endpoint = %q", got)
	}
}
