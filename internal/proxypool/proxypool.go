// Package proxypool rotates through configured proxies round-robin. The
// cursor lives on a Pool value so each scheduler owns its own rotation.
package proxypool

import (
	"strings"
	"sync"
)

// Pool is a round-robin proxy cursor. The zero value has no proxies.
type Pool struct {
	mu      sync.Mutex
	proxies []string
	next    int
}

// New returns a pool over the non-empty entries of proxies.
func New(proxies []string) *Pool {
	p := &Pool{}
	for _, proxy := range proxies {
		if proxy = strings.TrimSpace(proxy); proxy != "" {
			p.proxies = append(p.proxies, proxy)
		}
	}
	return p
}

// Next returns the next proxy, or "" when none are configured.
func (p *Pool) Next() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.proxies) == 0 {
		return ""
	}
	proxy := p.proxies[p.next]
	p.next = (p.next + 1) % len(p.proxies)
	return proxy
}

// Len returns the number of proxies.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// Redact hides credentials in a proxy URL for logging.
func Redact(proxy string) string {
	scheme, rest, ok := strings.Cut(proxy, "://")
	if !ok {
		rest, scheme = proxy, ""
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	if scheme == "" {
		return rest
	}
	return scheme + "://" + rest
}
