// Package examples holds the few-shot exemplar index: curated
// (question, SQL) pairs retrieved by embedding similarity to ground
// generation.
package examples

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Entry is one curated exemplar. Embedding may be nil when the entry was
// seeded without an embedding backend; such entries are skipped at
// retrieval time.
type Entry struct {
	Question  string    `json:"question"`
	SQL       string    `json:"sql"`
	Embedding []float32 `json:"-"`
	Tables    []string  `json:"tables,omitempty"`
}

type indexSnapshot struct {
	entries []Entry
}

// Index is an in-memory nearest-neighbor index over exemplars. Reads
// operate against an immutable snapshot; Add and Remove rebuild the
// snapshot off the read path.
type Index struct {
	logger *zap.Logger

	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[indexSnapshot]
}

// NewIndex creates an empty exemplar index.
func NewIndex(logger *zap.Logger) *Index {
	idx := &Index{logger: logger.Named("example_index")}
	idx.snap.Store(&indexSnapshot{})
	return idx
}

// Add appends an exemplar to the index.
func (idx *Index) Add(entry Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	old := idx.snap.Load()
	next := make([]Entry, len(old.entries)+1)
	copy(next, old.entries)
	next[len(old.entries)] = entry
	idx.snap.Store(&indexSnapshot{entries: next})
}

// Remove drops all exemplars with a matching question text. Removing an
// absent question is a no-op.
func (idx *Index) Remove(question string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	old := idx.snap.Load()
	next := make([]Entry, 0, len(old.entries))
	for _, e := range old.entries {
		if e.Question != question {
			next = append(next, e)
		}
	}
	idx.snap.Store(&indexSnapshot{entries: next})
}

// Len returns the number of indexed exemplars.
func (idx *Index) Len() int {
	return len(idx.snap.Load().entries)
}

type scored struct {
	entry Entry
	score float64
	order int
}

// Retrieve returns up to k exemplars ordered by descending cosine
// similarity to the question embedding. Ties break by insertion order.
// Entries with a missing or dimension-mismatched embedding are skipped.
func (idx *Index) Retrieve(embedding []float32, k int) []Entry {
	if k <= 0 || len(embedding) == 0 {
		return nil
	}
	snap := idx.snap.Load()

	candidates := make([]scored, 0, len(snap.entries))
	for i, e := range snap.entries {
		if len(e.Embedding) != len(embedding) {
			continue
		}
		sim, ok := cosineSimilarity(embedding, e.Embedding)
		if !ok {
			continue
		}
		candidates = append(candidates, scored{entry: e, score: sim, order: i})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]Entry, len(candidates))
	for i, c := range candidates {
		out[i] = c.entry
	}
	return out
}

// cosineSimilarity returns the cosine of the angle between two equal-length
// vectors. The second return is false for zero vectors.
func cosineSimilarity(a, b []float32) (float64, bool) {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
