package evaluate

import (
	"strings"

	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Comparison is the word-level difference between a reference
// transcript and a hypothesis transcript of the same language.
type Comparison struct {
	ReferenceWords int
	Substitutions  int
	Deletions      int
	Insertions     int
	WordErrorRate  float64
}

// Compare diffs two transcripts word by word. Words are lowercased and
// stripped of surrounding punctuation before comparison, since ASR
// output and human references rarely agree on either.
func Compare(reference string, hypothesis string) Comparison {
	var result Comparison
	refWords := normalizeWords(reference)
	hypWords := normalizeWords(hypothesis)
	result.ReferenceWords = len(refWords)

	dmp := diffmatchpatch.New()
	refText, hypText, lines := dmp.DiffLinesToChars(
		strings.Join(refWords, "\n")+"\n", strings.Join(hypWords, "\n")+"\n")
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(refText, hypText, false), lines)

	// Adjacent delete/insert runs pair off as substitutions.
	pendingDeletes := 0
	for _, diff := range diffs {
		count := wordCount(diff.Text)
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			result.Deletions += pendingDeletes
			pendingDeletes = 0
		case diffmatchpatch.DiffDelete:
			result.Deletions += pendingDeletes
			pendingDeletes = count
		case diffmatchpatch.DiffInsert:
			subs := count
			if pendingDeletes < subs {
				subs = pendingDeletes
			}
			result.Substitutions += subs
			result.Insertions += count - subs
			pendingDeletes -= subs
		}
	}
	result.Deletions += pendingDeletes

	if result.ReferenceWords > 0 {
		errs := result.Substitutions + result.Deletions + result.Insertions
		result.WordErrorRate = float64(errs) / float64(result.ReferenceWords)
	}
	return result
}

func normalizeWords(text string) []string {
	var results []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, `.,!?;:"'()[]`)
		if word != `` {
			results = append(results, word)
		}
	}
	return results
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
