package http

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"github.com/tmustier/webtk"
)

// Robots cache defaults. The cache is in-memory and process-scoped; it
// must not pollute the response cache.
const (
	DefaultRobotsTTL     = 30 * time.Minute
	DefaultRobotsTimeout = 5 * time.Second
)

type robotsEntry struct {
	data      *robotstxt.RobotsData
	status    int
	fetchedAt time.Time
}

// RobotsAgent consults robots.txt per host with a short-lived in-process
// cache. Lookup failures fail open: an unreachable or non-200 robots.txt
// allows the URL.
type RobotsAgent struct {
	client  *http.Client
	ttl     time.Duration
	timeout time.Duration

	mu    sync.Mutex
	hosts map[string]robotsEntry
}

// RobotsOption configures a RobotsAgent.
type RobotsOption func(*RobotsAgent)

// WithRobotsTTL overrides the per-host cache TTL.
func WithRobotsTTL(ttl time.Duration) RobotsOption {
	return func(a *RobotsAgent) {
		a.ttl = ttl
	}
}

// WithRobotsTimeout overrides the robots.txt fetch timeout.
func WithRobotsTimeout(d time.Duration) RobotsOption {
	return func(a *RobotsAgent) {
		a.timeout = d
	}
}

// WithRobotsTransport overrides the HTTP transport.
func WithRobotsTransport(rt http.RoundTripper) RobotsOption {
	return func(a *RobotsAgent) {
		a.client.Transport = rt
	}
}

// NewRobotsAgent creates a robots.txt checker.
func NewRobotsAgent(opts ...RobotsOption) *RobotsAgent {
	a := &RobotsAgent{
		client:  &http.Client{},
		ttl:     DefaultRobotsTTL,
		timeout: DefaultRobotsTimeout,
		hosts:   make(map[string]robotsEntry),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Check reports whether the user agent may fetch the URL according to the
// host's robots.txt.
func (a *RobotsAgent) Check(ctx context.Context, rawURL, userAgent string) (webtk.RobotsDecision, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return webtk.RobotsDecision{Allowed: true}, webtk.Errorf(webtk.EINVALID, "invalid URL %q", rawURL)
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	entry, ok := a.cached(u.Host)
	if !ok {
		entry = a.fetch(ctx, u.Host, robotsURL)
	}

	decision := webtk.RobotsDecision{
		Allowed:   true,
		RobotsURL: robotsURL,
		Status:    entry.status,
	}
	if entry.data == nil {
		return decision, nil
	}

	agent := userAgent
	if agent == "" {
		agent = "*"
	}
	decision.Allowed = entry.data.TestAgent(u.RequestURI(), agent)
	return decision, nil
}

func (a *RobotsAgent) cached(host string) (robotsEntry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.hosts[host]
	if !ok || time.Since(entry.fetchedAt) > a.ttl {
		return robotsEntry{}, false
	}
	return entry, true
}

func (a *RobotsAgent) fetch(ctx context.Context, host, robotsURL string) robotsEntry {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	entry := robotsEntry{fetchedAt: time.Now()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err == nil {
		if resp, err := a.client.Do(req); err == nil {
			entry.status = resp.StatusCode
			if resp.StatusCode == http.StatusOK {
				if body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10)); err == nil {
					if data, err := robotstxt.FromBytes(body); err == nil {
						entry.data = data
					}
				}
			}
			resp.Body.Close()
		}
	}

	a.mu.Lock()
	a.hosts[host] = entry
	a.mu.Unlock()
	return entry
}
