package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClipMessage(t *testing.T) {
	short := "Take the night train."
	assert.Equal(t, short, clipMessage(short))

	long := strings.Repeat("é", maxMessageRunes+100)
	clipped := clipMessage(long)
	assert.Equal(t, maxMessageRunes, utf8.RuneCountInString(clipped))
	assert.True(t, strings.HasSuffix(clipped, "..."))
}
