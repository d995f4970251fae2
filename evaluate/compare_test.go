package evaluate

import (
	"math"
	"testing"
)

func TestCompareIdentical(t *testing.T) {
	result := Compare("The quick brown fox.", "the quick brown fox")
	if result.WordErrorRate != 0 {
		t.Fatalf("expected zero WER, got %f", result.WordErrorRate)
	}
	if result.ReferenceWords != 4 {
		t.Fatalf("expected 4 reference words, got %d", result.ReferenceWords)
	}
}

func TestCompareSubstitution(t *testing.T) {
	result := Compare("the quick brown fox", "the quick red fox")
	if result.Substitutions != 1 || result.Deletions != 0 || result.Insertions != 0 {
		t.Fatalf("expected one substitution, got %+v", result)
	}
	if math.Abs(result.WordErrorRate-0.25) > 1e-9 {
		t.Fatalf("expected WER 0.25, got %f", result.WordErrorRate)
	}
}

func TestCompareDeletionAndInsertion(t *testing.T) {
	result := Compare("one two three", "one two three four")
	if result.Insertions != 1 {
		t.Fatalf("expected one insertion, got %+v", result)
	}
	result = Compare("one two three", "one three")
	if result.Deletions != 1 {
		t.Fatalf("expected one deletion, got %+v", result)
	}
}

func TestCompareEmptyReference(t *testing.T) {
	result := Compare("", "anything at all")
	if result.WordErrorRate != 0 {
		t.Fatalf("empty reference should not divide by zero, got %f", result.WordErrorRate)
	}
}
