package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/tmustier/webtk"
)

// Run renders a URL in the browser collaborator and emits the Document.
func (c *RenderCmd) Run(deps *Dependencies) error {
	e := newEmitter("render", deps)

	if err := deps.Runner.EnforceURL(deps.Ctx, c.URL, "render", &e.warnings); err != nil {
		return e.failure(err, nil)
	}

	deps.Renderer.Configure(c.Headful, c.Profile)
	if c.Profile != "" {
		e.warn("profile render: response will not be persisted to the cache")
	}

	doc, _, err := deps.Renderer.Render(deps.Ctx, c.URL, webtk.RenderOptions{
		Timeout:     deps.Policy.Timeout,
		WaitMS:      c.WaitMS,
		WaitFor:     c.WaitFor,
		Screenshot:  c.Screenshot,
		Headful:     c.Headful,
		EvidenceDir: resolveEvidenceDir(deps, c.Profile != ""),
	})
	if err != nil {
		return e.failure(err, nil)
	}
	e.warnAll(doc.Warnings)

	return e.success(map[string]any{"document": doc}, func(w io.Writer) {
		if doc.Artifact != nil && doc.Artifact.BodyPath != "" {
			fmt.Fprintln(w, doc.Artifact.BodyPath)
		}
	})
}

// resolveEvidenceDir picks where render artifacts land. Profile renders
// are do-not-persist: their evidence goes under the ephemeral temp area
// that is removed on process exit.
func resolveEvidenceDir(deps *Dependencies, doNotPersist bool) string {
	if deps.Globals.EvidenceDir != "" && !doNotPersist {
		return deps.Globals.EvidenceDir
	}
	base := deps.Globals.CacheDir
	if base == "" {
		base = defaultCacheDir()
	}
	if doNotPersist {
		return filepath.Join(base, "tmp", "evidence")
	}
	return filepath.Join(base, "evidence")
}
