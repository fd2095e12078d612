package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitIntoChunks(t *testing.T) {
	t.Parallel()

	t.Run("empty text", func(t *testing.T) {
		assert.Nil(t, splitIntoChunks("", 100, 10))
		assert.Nil(t, splitIntoChunks("   \n\t ", 100, 10))
	})

	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := splitIntoChunks("a short piece of text", 100, 10)
		assert.Equal(t, []string{"a short piece of text"}, chunks)
	})

	t.Run("long text is split", func(t *testing.T) {
		text := strings.Repeat("word ", 200)
		chunks := splitIntoChunks(text, 100, 20)
		assert.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			// size plus at most one word of spill
			assert.LessOrEqual(t, len(c), 100+len("word "))
		}
	})

	t.Run("adjacent chunks overlap", func(t *testing.T) {
		var words []string
		for i := 0; i < 50; i++ {
			words = append(words, strings.Repeat(string(rune('a'+i%26)), 4))
		}
		chunks := splitIntoChunks(strings.Join(words, " "), 60, 15)
		assert.Greater(t, len(chunks), 1)

		firstTail := chunks[0][len(chunks[0])-10:]
		assert.Contains(t, chunks[1], strings.Fields(firstTail)[len(strings.Fields(firstTail))-1])
	})

	t.Run("no content lost", func(t *testing.T) {
		text := strings.Repeat("alpha beta gamma ", 30)
		chunks := splitIntoChunks(text, 80, 0)
		joined := strings.Join(chunks, " ")
		assert.Equal(t, len(strings.Fields(text)), len(strings.Fields(joined)))
	})
}
