package slog

import (
	"log/slog"

	"github.com/tmustier/webtk"
)

// Ensure LoggingRegistry implements webtk.ProviderRegistry.
var _ webtk.ProviderRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps a ProviderRegistry with debug logging of provider
// selection.
type LoggingRegistry struct {
	next   webtk.ProviderRegistry
	logger *slog.Logger
}

// NewLoggingRegistry creates a LoggingRegistry.
func NewLoggingRegistry(next webtk.ProviderRegistry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

// List delegates to the wrapped registry.
func (r *LoggingRegistry) List() []webtk.ProviderInfo {
	return r.next.List()
}

// Select resolves the provider and logs which one won.
func (r *LoggingRegistry) Select(id string) (webtk.SearchProvider, error) {
	provider, err := r.next.Select(id)
	if err != nil {
		r.logger.Debug("provider selection failed", "requested", id, "error", err)
		return nil, err
	}
	r.logger.Debug("provider selected", "requested", id, "selected", provider.ID())
	return provider, nil
}

// Warnings delegates to the wrapped registry.
func (r *LoggingRegistry) Warnings(id string) []string {
	return r.next.Warnings(id)
}
