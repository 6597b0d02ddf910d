// Package rod provides the browser rendering collaborator using Chrome
// automation. The core consumes it through the webtk.Renderer interface
// only; pages that need JavaScript execution are rendered here.
package rod

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"github.com/tmustier/webtk"
)

// Ensure Renderer implements webtk.Renderer at compile time.
var _ webtk.Renderer = (*Renderer)(nil)

// DefaultRenderTimeout is the default navigation timeout.
const DefaultRenderTimeout = 30 * time.Second

// Renderer retrieves rendered HTML using a headless Chrome browser.
// Renderer is safe for concurrent use by multiple goroutines.
type Renderer struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	profileDir string
}

// Option configures a Renderer.
type Option func(*options)

type options struct {
	headful    bool
	profileDir string
}

// WithHeadful launches a visible browser window.
func WithHeadful() Option {
	return func(o *options) {
		o.headful = true
	}
}

// WithProfileDir launches the browser against an existing user profile.
// Responses rendered under a real profile are do-not-persist: the caller
// must keep them out of the shared cache.
func WithProfileDir(dir string) Option {
	return func(o *options) {
		o.profileDir = dir
	}
}

// NewRenderer launches a Chrome browser. Close must be called when the
// Renderer is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewRenderer(opts ...Option) (*Renderer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	l := launcher.New().Headless(!o.headful)
	if o.profileDir != "" {
		l = l.UserDataDir(o.profileDir)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, webtk.Errorf(webtk.EINTERNAL, "launching browser: %v", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill() // Clean up launched process on connection failure
		return nil, webtk.Errorf(webtk.EINTERNAL, "connecting to browser: %v", err)
	}

	return &Renderer{browser: browser, launcher: l, profileDir: o.profileDir}, nil
}

// Render navigates to the URL, waits for the page to settle, and returns
// the rendered Document plus the rendered HTML. DOM snapshots and optional
// screenshots are written under opts.EvidenceDir.
func (r *Renderer) Render(ctx context.Context, url string, opts webtk.RenderOptions) (*webtk.Document, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRenderTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, "", webtk.Errorf(webtk.ETRANSPORT, "creating page: %v", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return nil, "", webtk.Errorf(webtk.ETRANSPORT, "navigating to %s: %v", url, err)
	}

	waitStrategy := "load"
	if err := page.WaitLoad(); err != nil {
		return nil, "", webtk.Errorf(webtk.ETIMEOUT, "waiting for page load: %v", err)
	}
	if opts.WaitFor != "" {
		waitStrategy = "selector:" + opts.WaitFor
		if _, err := page.Element(opts.WaitFor); err != nil {
			return nil, "", webtk.Errorf(webtk.ETIMEOUT, "waiting for selector %q: %v", opts.WaitFor, err)
		}
	}
	if opts.WaitMS > 0 {
		waitStrategy += "+delay"
		select {
		case <-ctx.Done():
			return nil, "", webtk.Errorf(webtk.ETIMEOUT, "render wait interrupted")
		case <-time.After(time.Duration(opts.WaitMS) * time.Millisecond):
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, "", webtk.Errorf(webtk.ETRANSPORT, "reading rendered HTML: %v", err)
	}

	info, err := page.Info()
	finalURL := url
	if err == nil && info.URL != "" {
		finalURL = info.URL
	}

	doc := webtk.NewDocument(url, webtk.FetchMethodBrowser)
	doc.HTTP = &webtk.HTTPInfo{
		Status:    200,
		FinalURL:  finalURL,
		Headers:   map[string]string{"content-type": "text/html"},
		BytesRead: int64(len(html)),
	}
	doc.Artifact = &webtk.ArtifactInfo{
		ContentType: "text/html",
		BodyBytes:   int64(len(html)),
	}
	doc.Render = &webtk.RenderInfo{WaitStrategyUsed: waitStrategy}

	if opts.EvidenceDir != "" {
		r.writeEvidence(page, doc, html, opts)
	}
	return doc, html, nil
}

// writeEvidence saves the DOM snapshot and optional screenshot. Evidence
// failures degrade to document warnings.
func (r *Renderer) writeEvidence(page *rod.Page, doc *webtk.Document, html string, opts webtk.RenderOptions) {
	if err := os.MkdirAll(opts.EvidenceDir, 0o755); err != nil {
		doc.AddWarning("evidence dir unavailable: " + err.Error())
		return
	}

	snapshotID := uuid.New().String()
	domPath := filepath.Join(opts.EvidenceDir, snapshotID+".html")
	if err := os.WriteFile(domPath, []byte(html), 0o644); err != nil {
		doc.AddWarning("dom snapshot write failed: " + err.Error())
	} else {
		doc.Render.DOMSnapshotID = snapshotID
		doc.Artifact.BodyPath = domPath
	}

	if opts.Screenshot {
		shot, err := page.Screenshot(false, nil)
		if err != nil {
			doc.AddWarning("screenshot failed: " + err.Error())
			return
		}
		shotPath := filepath.Join(opts.EvidenceDir, snapshotID+".png")
		if err := os.WriteFile(shotPath, shot, 0o644); err != nil {
			doc.AddWarning("screenshot write failed: " + err.Error())
			return
		}
		doc.Render.ScreenshotPath = shotPath
	}
}

// UsesProfile reports whether renders go through a real user profile and
// must therefore not be persisted to the shared cache.
func (r *Renderer) UsesProfile() bool {
	return r.profileDir != ""
}

// Close releases browser resources.
func (r *Renderer) Close() error {
	return r.browser.Close()
}
