package chunker

import (
	"strings"

	"clipchat/internal/domain"
)

// separators in preference order: paragraph, line, sentence, word.
// A hard cut at the size limit is the final fallback.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Splitter cuts text into overlapping chunks of at most chunkSize runes.
// Consecutive chunks overlap by exactly overlap runes, so concatenating
// all chunks minus the trailing overlap of each non-final chunk yields
// the original text back. Boundaries prefer the separators above.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a splitter with the given chunk size and overlap,
// both measured in runes. Invalid values fall back to 1000/200.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

func (s *Splitter) ChunkSize() int { return s.chunkSize }
func (s *Splitter) Overlap() int   { return s.overlap }

// Split produces the ordered chunk sequence for text. Empty text yields
// zero chunks. The output is deterministic for a given input.
func (s *Splitter) Split(text string) []domain.Chunk {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var chunks []domain.Chunk
	start := 0
	for {
		rest := len(runes) - start
		if rest <= s.chunkSize {
			chunks = append(chunks, domain.Chunk{Index: len(chunks), Text: string(runes[start:])})
			return chunks
		}
		end := s.cut(runes, start, start+s.chunkSize)
		chunks = append(chunks, domain.Chunk{Index: len(chunks), Text: string(runes[start:end])})
		start = end - s.overlap
	}
}

// cut picks the chunk end in (start+overlap, limit], preferring the last
// occurrence of the highest-priority separator. The lower bound keeps the
// next chunk start strictly advancing past the current one.
func (s *Splitter) cut(runes []rune, start, limit int) int {
	window := string(runes[start+s.overlap+1 : limit])
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return start + s.overlap + 1 + len([]rune(window[:i])) + len([]rune(sep))
		}
	}
	return limit
}
