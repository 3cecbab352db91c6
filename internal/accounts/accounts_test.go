package accounts

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipcaster/internal/publish"
	"clipcaster/internal/services"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestResolveMissingAccountIsConfigurationError(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	_, err := reg.Resolve("ghost")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := reg.Resolve("../etc"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("path traversal must be rejected, got %v", err)
	}
}

func TestResolveReadsCredentialFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "acctX", YouTubeTokenFile), `{"access_token":"ya29","refresh_token":"r"}`)
	writeFile(t, filepath.Join(dir, "acctX", MetaEnvFile), "FB_PAGE_ID=123\nFB_PAGE_TOKEN=\"pt\"\n# comment\nIG_USER_ID=456\nIG_TOKEN=igt\n")

	acct, err := NewRegistry(dir).Resolve("acctX")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if acct.YouTube == nil || acct.YouTube.AccessToken != "ya29" {
		t.Fatalf("youtube token = %+v", acct.YouTube)
	}
	want := Meta{PageID: "123", PageToken: "pt", IGUserID: "456", IGToken: "igt"}
	if acct.Meta == nil || *acct.Meta != want {
		t.Fatalf("meta = %+v", acct.Meta)
	}
}

func TestTargetsOnlyIncludeConfiguredPlatforms(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "bare"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "metaonly", MetaEnvFile), "FB_PAGE_ID=1\nFB_PAGE_TOKEN=t\n")

	r := NewResolver(NewRegistry(dir), Endpoints{}, time.Second)

	targets, err := r.Targets(context.Background(), "bare")
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 0 {
		t.Fatalf("bare account targets = %+v", targets)
	}

	targets, err = r.Targets(context.Background(), "metaonly")
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected facebook and instagram, got %+v", targets)
	}
	if targets[0].Platform != publish.Facebook || targets[0].Err != nil || targets[0].Publisher == nil {
		t.Fatalf("facebook target = %+v", targets[0])
	}
	if targets[1].Platform != publish.Instagram || !errors.Is(targets[1].Err, services.ErrConfiguration) || targets[1].Publisher != nil {
		t.Fatalf("instagram target must fail on missing keys: %+v", targets[1])
	}
}

func TestExpiredYouTubeTokenFailsOnlyYouTube(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "acctX", YouTubeTokenFile), `{"access_token":"ya29","expiry":"2024-01-01T00:00:00Z"}`)
	r := NewResolver(NewRegistry(dir), Endpoints{}, time.Second)
	r.Clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	targets, err := r.Targets(context.Background(), "acctX")
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || !errors.Is(targets[0].Err, services.ErrConfiguration) {
		t.Fatalf("targets = %+v", targets)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b", "a", ".hidden"} {
		if err := os.MkdirAll(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, filepath.Join(dir, "stray.txt"), "x")
	names, err := NewRegistry(dir).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("List = %v", names)
	}
	missing, err := NewRegistry(filepath.Join(dir, "nope")).List()
	if err != nil || missing != nil {
		t.Fatalf("missing dir: %v %v", missing, err)
	}
}

func TestResolverUploadClientHasNoOverallTimeout(t *testing.T) {
	r := NewResolver(NewRegistry(t.TempDir()), Endpoints{}, 60*time.Second)
	if r.HTTP.Timeout != 60*time.Second {
		t.Fatalf("metadata timeout = %s", r.HTTP.Timeout)
	}
	if r.UploadHTTP == nil || r.UploadHTTP.Timeout != 0 {
		t.Fatalf("upload client must not cap the whole transfer: %+v", r.UploadHTTP)
	}
	transport, ok := r.UploadHTTP.Transport.(*http.Transport)
	if !ok || transport.ResponseHeaderTimeout != 60*time.Second {
		t.Fatalf("upload transport = %#v", r.UploadHTTP.Transport)
	}
}
