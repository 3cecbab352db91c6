// Package accounts resolves an account key to the platform credentials kept
// under the accounts directory:
//
//	<accounts_dir>/<account>/yt_token.json   YouTube OAuth token
//	<accounts_dir>/<account>/meta.env        FB_PAGE_ID, FB_PAGE_TOKEN, IG_USER_ID, IG_TOKEN
//
// A platform whose file is absent is simply not configured for that account.
package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"clipcaster/internal/services"
)

const (
	YouTubeTokenFile = "yt_token.json"
	MetaEnvFile      = "meta.env"
)

// YouTubeToken is the stored OAuth token. Acquisition and refresh happen
// outside clipcaster.
type YouTubeToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Meta holds the Facebook page and Instagram business credentials.
type Meta struct {
	PageID    string
	PageToken string
	IGUserID  string
	IGToken   string
}

// Account is the resolved credential set for one key.
type Account struct {
	Name    string
	Dir     string
	YouTube *YouTubeToken
	// YouTubeErr is set when the token file exists but is unusable.
	YouTubeErr error
	Meta       *Meta
	MetaErr    error
}

// Registry reads accounts from Dir.
type Registry struct {
	Dir string
}

// NewRegistry returns a registry rooted at dir.
func NewRegistry(dir string) *Registry {
	return &Registry{Dir: dir}
}

// Resolve loads the account's credential files. A missing account
// directory is a configuration error.
func (r *Registry) Resolve(name string) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, services.Wrap(services.ErrConfiguration, "accounts", "resolve", fmt.Sprintf("invalid account name %q", name), nil)
	}
	dir := filepath.Join(r.Dir, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "accounts", "resolve",
			fmt.Sprintf("account directory %s not found", dir), err)
	}

	acct := &Account{Name: name, Dir: dir}
	acct.YouTube, acct.YouTubeErr = loadYouTubeToken(filepath.Join(dir, YouTubeTokenFile))
	acct.Meta, acct.MetaErr = loadMeta(filepath.Join(dir, MetaEnvFile))
	return acct, nil
}

// List returns account names in sorted order.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read accounts dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// HasYouTube reports whether a YouTube token file is present.
func (a *Account) HasYouTube() bool { return a.YouTube != nil || a.YouTubeErr != nil }

// HasMeta reports whether meta.env is present.
func (a *Account) HasMeta() bool { return a.Meta != nil || a.MetaErr != nil }

func loadYouTubeToken(path string) (*YouTubeToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrConfiguration, "accounts", "youtube token", "read "+path, err)
	}
	var token YouTubeToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "accounts", "youtube token", "parse "+path, err)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "accounts", "youtube token", path+" has no access_token", nil)
	}
	return &token, nil
}

func loadMeta(path string) (*Meta, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrConfiguration, "accounts", "meta env", "read "+path, err)
	}
	return &Meta{
		PageID:    strings.TrimSpace(values["FB_PAGE_ID"]),
		PageToken: strings.TrimSpace(values["FB_PAGE_TOKEN"]),
		IGUserID:  strings.TrimSpace(values["IG_USER_ID"]),
		IGToken:   strings.TrimSpace(values["IG_TOKEN"]),
	}, nil
}
