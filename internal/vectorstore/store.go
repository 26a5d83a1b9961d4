package vectorstore

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"clipchat/internal/domain"
)

// ErrNotReady is returned by Search before any successful ingestion has
// published an index. Callers use it to distinguish "no session" from
// "no matches"; the latter cannot occur on a ready index since k is clamped.
var ErrNotReady = errors.New("vector index not ready")

// Store is an in-memory vector index for one session, searched with
// brute-force cosine similarity. The chunk slice is replaced wholesale by
// Swap and never mutated after publication, so readers see either the
// previous complete index or the new one, never a partial state.
type Store struct {
	mu        sync.RWMutex
	dimension int
	chunks    []domain.Chunk
}

func NewStore() *Store { return &Store{} }

// Swap atomically replaces the index contents. Every chunk must carry a
// vector and all vectors must share one dimensionality.
func (s *Store) Swap(chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return errors.New("refusing to swap in an empty index")
	}
	dim := len(chunks[0].Vector)
	for _, c := range chunks {
		if !c.Embedded() {
			return fmt.Errorf("chunk %d has no vector", c.Index)
		}
		if len(c.Vector) != dim {
			return fmt.Errorf("chunk %d dimension %d, want %d", c.Index, len(c.Vector), dim)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dim
	s.chunks = chunks
	return nil
}

// Search returns the min(k, len) chunks most similar to vector, in
// descending cosine similarity, ties broken by lower chunk index.
func (s *Store) Search(vector []float64, k int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.chunks) == 0 {
		return nil, ErrNotReady
	}
	if k <= 0 {
		k = 4
	}
	if k > len(s.chunks) {
		k = len(s.chunks)
	}
	results := make([]domain.SearchResult, len(s.chunks))
	for i, c := range s.chunks {
		results[i] = domain.SearchResult{Chunk: c, Score: cosine(c.Vector, vector)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})
	return results[:k], nil
}

// Ready reports whether a complete index has been published.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks) > 0
}

// Len returns the number of indexed chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Dimension returns the vector dimensionality of the current index, 0 when empty.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
