package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tmustier/webtk"
)

// emitter assembles and prints the output envelope for one command
// invocation, tracking warnings, providers, and cache involvement along
// the way. Exactly one envelope reaches stdout in JSON mode, even on
// error.
type emitter struct {
	command string
	deps    *Dependencies
	started time.Time

	warnings  []string
	providers []string
	cacheHit  bool
	stored    *bool
	hitRatio  *float64
}

func newEmitter(command string, deps *Dependencies) *emitter {
	return &emitter{command: command, deps: deps, started: time.Now()}
}

func (e *emitter) warn(message string) {
	e.warnings = webtk.AppendWarning(e.warnings, message)
}

func (e *emitter) warnAll(messages []string) {
	for _, m := range messages {
		e.warn(m)
	}
}

func (e *emitter) addProvider(id string) {
	for _, existing := range e.providers {
		if existing == id {
			return
		}
	}
	e.providers = append(e.providers, id)
}

func (e *emitter) markCache(hit bool, stored bool) {
	e.cacheHit = hit
	e.stored = &stored
}

func (e *emitter) meta() webtk.EnvelopeMeta {
	return webtk.EnvelopeMeta{
		DurationMS: time.Since(e.started).Milliseconds(),
		Cache:      webtk.CacheMeta{Hit: e.cacheHit, Stored: e.stored, HitRatio: e.hitRatio},
		Providers:  e.providers,
	}
}

func (e *emitter) jsonMode() bool {
	return e.deps.Globals.JSON || e.deps.Globals.Pretty
}

// success emits a success envelope. In plain and human modes, plain is
// called to write the semantic lines to stdout.
func (e *emitter) success(data any, plain func(w io.Writer)) error {
	e.emitStderrWarnings()

	if e.jsonMode() {
		e.printEnvelope(webtk.NewEnvelope(e.command, data, e.warnings, e.meta()))
	} else if plain != nil {
		plain(e.deps.Stdout)
	}
	e.deps.ExitCode = webtk.ExitOK
	return nil
}

// failure emits a failure envelope with the stable error code and sets
// the mapped exit code. Data may carry partial results. In non-JSON
// modes, stdout stays empty and the diagnostic goes to stderr.
func (e *emitter) failure(err error, data any) error {
	if !e.deps.Globals.Quiet {
		fmt.Fprintf(e.deps.Stderr, "webtk %s: %s\n", e.command, webtk.ErrorMessage(err))
	}
	e.emitStderrWarnings()

	env := webtk.ErrorEnvelope(e.command, err, data, e.warnings, e.meta())
	if e.jsonMode() {
		e.printEnvelope(env)
	}
	e.deps.ExitCode = env.ExitCode()
	return nil
}

func (e *emitter) emitStderrWarnings() {
	if e.deps.Globals.Quiet {
		return
	}
	for _, w := range e.warnings {
		fmt.Fprintf(e.deps.Stderr, "warning: %s\n", w)
	}
}

func (e *emitter) printEnvelope(env webtk.Envelope) {
	payload := any(env)
	if e.deps.Globals.Redact {
		payload = redactPayload(env)
	}

	enc := json.NewEncoder(e.deps.Stdout)
	if e.deps.Globals.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(payload); err != nil {
		fmt.Fprintf(e.deps.Stderr, "webtk: encoding envelope: %v\n", err)
	}
}

// redactPayload round-trips the envelope through generic JSON and walks
// it, stripping URLs and masking sensitive keys everywhere in the output.
func redactPayload(env webtk.Envelope) any {
	raw, err := json.Marshal(env)
	if err != nil {
		return env
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return env
	}
	return redactAny(generic)
}

func redactAny(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return webtk.RedactDetails(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = redactAny(item)
		}
		return out
	case string:
		return webtk.RedactText(v)
	default:
		return v
	}
}

// plainURL applies redaction to URLs printed in plain mode.
func (e *emitter) plainURL(url string) string {
	if e.deps.Globals.Redact {
		return webtk.RedactURL(url)
	}
	return url
}
