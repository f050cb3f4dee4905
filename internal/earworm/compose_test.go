package earworm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	got := Compose("Hello", "http://x.co/a")
	assert.Equal(t, "🎶🎵🎶\nHello\n🎶🎵🎶\nhttp://x.co/a", got)
}

func TestComposeEmptySnippet(t *testing.T) {
	// degenerate but still a valid message
	assert.Equal(t, "🎶🎵🎶\n\n🎶🎵🎶\nhttp://x.co/a", Compose("", "http://x.co/a"))
}
