package examples

import (
	"testing"

	"go.uber.org/zap"
)

func entryWithEmbedding(question string, emb []float32) Entry {
	return Entry{Question: question, SQL: "SELECT 1", Embedding: emb}
}

func TestRetrieve_OrdersByDescendingSimilarity(t *testing.T) {
	idx := NewIndex(zap.NewNop())
	idx.Add(entryWithEmbedding("far", []float32{0, 1, 0}))
	idx.Add(entryWithEmbedding("close", []float32{1, 0.1, 0}))
	idx.Add(entryWithEmbedding("exact", []float32{1, 0, 0}))

	got := idx.Retrieve([]float32{1, 0, 0}, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Question != "exact" {
		t.Errorf("expected 'exact' first, got %q", got[0].Question)
	}
	if got[1].Question != "close" {
		t.Errorf("expected 'close' second, got %q", got[1].Question)
	}
}

func TestRetrieve_TiesBreakByInsertionOrder(t *testing.T) {
	idx := NewIndex(zap.NewNop())
	idx.Add(entryWithEmbedding("first", []float32{1, 0}))
	idx.Add(entryWithEmbedding("second", []float32{1, 0}))
	idx.Add(entryWithEmbedding("third", []float32{2, 0})) // same direction, same cosine

	got := idx.Retrieve([]float32{1, 0}, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Question != want {
			t.Errorf("position %d: expected %q, got %q", i, want, got[i].Question)
		}
	}
}

func TestRetrieve_SkipsMismatchedAndZeroVectors(t *testing.T) {
	idx := NewIndex(zap.NewNop())
	idx.Add(entryWithEmbedding("no embedding", nil))
	idx.Add(entryWithEmbedding("wrong dims", []float32{1, 2, 3}))
	idx.Add(entryWithEmbedding("zero vector", []float32{0, 0}))
	idx.Add(entryWithEmbedding("usable", []float32{0.5, 0.5}))

	got := idx.Retrieve([]float32{1, 1}, 10)
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].Question != "usable" {
		t.Errorf("expected 'usable', got %q", got[0].Question)
	}
}

func TestRetrieve_EmptyInputs(t *testing.T) {
	idx := NewIndex(zap.NewNop())
	idx.Add(entryWithEmbedding("entry", []float32{1, 0}))

	if got := idx.Retrieve(nil, 3); got != nil {
		t.Errorf("expected nil for empty embedding, got %v", got)
	}
	if got := idx.Retrieve([]float32{1, 0}, 0); got != nil {
		t.Errorf("expected nil for k=0, got %v", got)
	}
}

func TestRemove_DropsMatchingQuestions(t *testing.T) {
	idx := NewIndex(zap.NewNop())
	idx.Add(entryWithEmbedding("keep", []float32{1, 0}))
	idx.Add(entryWithEmbedding("drop", []float32{0, 1}))

	idx.Remove("drop")
	idx.Remove("absent")

	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", idx.Len())
	}
	got := idx.Retrieve([]float32{1, 0}, 10)
	if len(got) != 1 || got[0].Question != "keep" {
		t.Errorf("expected only 'keep' retrievable, got %v", got)
	}
}

func TestDefaultEntries_CoverSampleSchema(t *testing.T) {
	entries := DefaultEntries()
	if len(entries) == 0 {
		t.Fatal("expected non-empty default corpus")
	}
	for _, e := range entries {
		if e.Question == "" || e.SQL == "" {
			t.Errorf("entry missing question or sql: %+v", e)
		}
	}
}
