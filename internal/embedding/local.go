package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var localTokenRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Local is a deterministic feature-hashing embedder for offline use: each
// token is hashed into one of dimension buckets, counts are log-scaled and
// the vector L2-normalized. It needs no corpus pass and no network, which
// makes it the default for development and for the test suite.
type Local struct {
	dimension int
}

func NewLocal(dimension int) *Local {
	if dimension <= 0 {
		dimension = 256
	}
	return &Local{dimension: dimension}
}

func (l *Local) Name() string   { return "local" }
func (l *Local) Dimension() int { return l.dimension }

// Embed maps text to its hashed bag-of-words vector. The zero vector is
// returned for text with no tokens.
func (l *Local) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, l.dimension)
	for _, tok := range localTokenRe.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[int(h.Sum32())%l.dimension]++
	}
	norm := 0.0
	for i, v := range vec {
		if v > 0 {
			vec[i] = 1 + math.Log(v)
		}
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
