package main

import (
	"fmt"
	"io"
)

// Run lists the registered search providers with their enablement and
// privacy metadata.
func (c *ProvidersCmd) Run(deps *Dependencies) error {
	e := newEmitter("providers", deps)

	infos := deps.Registry.List()
	return e.success(map[string]any{"providers": infos}, func(w io.Writer) {
		for _, info := range infos {
			fmt.Fprintln(w, info.ID)
		}
	})
}
