package main

import (
	"context"
	"sync"

	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/rod"
)

// RendererFactory constructs the browser collaborator.
type RendererFactory func(headful bool, profileDir string) (webtk.Renderer, error)

func launchRodRenderer(headful bool, profileDir string) (webtk.Renderer, error) {
	var opts []rod.Option
	if headful {
		opts = append(opts, rod.WithHeadful())
	}
	if profileDir != "" {
		opts = append(opts, rod.WithProfileDir(profileDir))
	}
	return rod.NewRenderer(opts...)
}

// Ensure lazyRenderer implements webtk.Renderer at compile time.
var _ webtk.Renderer = (*lazyRenderer)(nil)

// lazyRenderer defers browser launch to the first Render call, so
// commands that never render pay nothing.
type lazyRenderer struct {
	factory RendererFactory

	headful    bool
	profileDir string

	mu        sync.Mutex
	delegate  webtk.Renderer
	launchErr error
}

// Configure sets launch options; it must be called before the first
// Render.
func (r *lazyRenderer) Configure(headful bool, profileDir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headful = headful
	r.profileDir = profileDir
}

// UsesProfile reports whether renders go through a real user profile.
func (r *lazyRenderer) UsesProfile() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profileDir != ""
}

func (r *lazyRenderer) renderer() (webtk.Renderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.delegate != nil || r.launchErr != nil {
		return r.delegate, r.launchErr
	}
	delegate, err := r.factory(r.headful, r.profileDir)
	if err != nil {
		r.launchErr = webtk.Errorf(webtk.ENEEDSRENDER, "browser unavailable: %s (install Chrome or Chromium)", webtk.ErrorMessage(err))
		return nil, r.launchErr
	}
	r.delegate = delegate
	return delegate, nil
}

// Render launches the browser on first use and delegates.
func (r *lazyRenderer) Render(ctx context.Context, url string, opts webtk.RenderOptions) (*webtk.Document, string, error) {
	delegate, err := r.renderer()
	if err != nil {
		return nil, "", err
	}
	return delegate.Render(ctx, url, opts)
}

// Close shuts the browser down if it was launched.
func (r *lazyRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.delegate == nil {
		return nil
	}
	err := r.delegate.Close()
	r.delegate = nil
	return err
}
