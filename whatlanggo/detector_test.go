package whatlanggo_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmustier/webtk/whatlanggo"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	t.Run("html lang attribute wins", func(t *testing.T) {
		t.Parallel()
		html := `<html lang="de-DE"><body><p>This text is actually English.</p></body></html>`
		assert.Equal(t, "de", whatlanggo.Detect(html, "This text is actually English."))
	})

	t.Run("meta content-language is consulted", func(t *testing.T) {
		t.Parallel()
		html := `<html><head><meta http-equiv="content-language" content="fr"></head><body></body></html>`
		assert.Equal(t, "fr", whatlanggo.Detect(html, ""))
	})

	t.Run("falls back to statistical detection", func(t *testing.T) {
		t.Parallel()
		text := strings.Repeat("The quick brown fox jumps over the lazy dog and keeps on running through the field. ", 10)
		assert.Equal(t, "en", whatlanggo.Detect("<html><body></body></html>", text))
	})

	t.Run("unknown stays unset", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, whatlanggo.Detect("", ""))
		assert.Empty(t, whatlanggo.Detect("<html></html>", "zzz qqq xxx"))
	})
}
