package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split("a short transcript")
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "a short transcript", chunks[0].Text)
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(1000, 200)
	assert.Empty(t, s.Split(""))
}

func TestSplitTwoChunks(t *testing.T) {
	// 1200 runes with no separators: a hard cut at 1000, then the
	// remainder starting at 800.
	text := strings.Repeat("x", 1200)
	s := NewSplitter(1000, 200)
	chunks := s.Split(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1000, len([]rune(chunks[0].Text)))
	assert.Equal(t, 400, len([]rune(chunks[1].Text)))
	assert.Equal(t, 1, chunks[1].Index)
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	text := strings.Repeat("a", 500) + "\n\n" + strings.Repeat("b", 700)
	s := NewSplitter(1000, 100)
	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "\n\n"),
		"first chunk should end at the paragraph break, got len %d", len(chunks[0].Text))
}

func TestSplitReconstruction(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"no separators", strings.Repeat("y", 3456), 500, 100},
		{"zero overlap", strings.Repeat("z", 2048), 512, 0},
		{"sentences", strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200), 700, 150},
		{"paragraphs", strings.Repeat("First line.\nSecond line.\n\n", 300), 900, 200},
		{"unicode", strings.Repeat("héllo wörld. ", 400), 300, 60},
		{"exactly one chunk", strings.Repeat("q", 100), 100, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSplitter(tc.size, tc.overlap)
			chunks := s.Split(tc.text)
			require.NotEmpty(t, chunks)
			var b strings.Builder
			for i, ch := range chunks {
				runes := []rune(ch.Text)
				assert.LessOrEqual(t, len(runes), tc.size)
				assert.Equal(t, i, ch.Index)
				if i == len(chunks)-1 {
					b.WriteString(ch.Text)
				} else {
					b.WriteString(string(runes[:len(runes)-tc.overlap]))
				}
			}
			require.Equal(t, tc.text, b.String())
		})
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("Some sentence here. Another one follows! A third? ", 120)
	s := NewSplitter(800, 160)
	first := s.Split(text)
	second := s.Split(text)
	require.Equal(t, first, second)
}
