// Package webtk provides a portable command-line toolkit for programmatic
// web retrieval. It binds three composable operations — discover (search),
// transport (fetch/render), and extract (readable content) — under a single
// machine-readable contract with unified policy, caching, and failure
// classification.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., http/, rod/, goquery/, trafilatura/).
package webtk

// Version is the toolkit version reported in the output envelope.
const Version = "0.1.0"
