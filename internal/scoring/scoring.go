// Package scoring holds the heuristic scorers used when no grading model is
// configured. Scores are integers on the 0..5 scale.
package scoring

import (
	"math"
	"strings"
)

// MaxScore is the top of the scale.
const MaxScore = 5

// Fillers are the hesitation words that cost fluency points. Multi-word
// fillers match as consecutive tokens.
var Fillers = []string{"um", "uh", "like", "you know", "so", "actually"}

// Breakdown is the per-dimension result of TranscriptScore.
type Breakdown struct {
	Vocabulary int
	Length     int
	Fluency    int
	Fillers    int
	Score      int
}

// TranscriptScore rates a spoken answer on vocabulary range, sentence
// length and the absence of fillers. The result is the mean of the three
// dimensions rounded to the nearest integer.
func TranscriptScore(text string) Breakdown {
	words := strings.Fields(text)

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}

	var b Breakdown
	b.Vocabulary = min(MaxScore, len(unique)/10)
	b.Length = min(MaxScore, int(averageSentenceLength(text)))
	b.Fillers = countFillers(text)
	if b.Fillers == 0 {
		b.Fluency = MaxScore
	} else {
		b.Fluency = max(1, MaxScore-b.Fillers)
	}

	mean := float64(b.Vocabulary+b.Length+b.Fluency) / 3
	b.Score = int(math.Round(mean))
	return b
}

// averageSentenceLength divides the words of all non-empty sentences by the
// number of sentence terminators (at least one).
func averageSentenceLength(text string) float64 {
	sentences := strings.FieldsFunc(text, isTerminator)
	total := 0
	for _, s := range sentences {
		total += len(strings.Fields(s))
	}

	terminators := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	return float64(total) / float64(max(1, terminators))
}

func isTerminator(r rune) bool { return r == '.' || r == '!' || r == '?' }

func countFillers(text string) int {
	tokens := strings.Fields(strings.ToLower(text))
	n := 0
	for _, f := range Fillers {
		parts := strings.Fields(f)
		for i := 0; i+len(parts) <= len(tokens); i++ {
			if matchAt(tokens, i, parts) {
				n++
			}
		}
	}
	return n
}

func matchAt(tokens []string, i int, parts []string) bool {
	for j, p := range parts {
		if tokens[i+j] != p {
			return false
		}
	}
	return true
}

// Result is a score with a note for the learner.
type Result struct {
	Score    int
	Feedback string
}

// rubricExcerpt is how much rubric text is quoted back in feedback.
const rubricExcerpt = 60

// RubricScore awards one point per ten words, capped at MaxScore. The
// feedback quotes the start of the rubric the answer was scored against.
func RubricScore(rubric, text string) Result {
	score := min(len(strings.Fields(text))/10, MaxScore)
	if rubric == "" {
		return Result{Score: score, Feedback: "Scored, but rubric text was not found."}
	}

	excerpt := rubric
	if r := []rune(rubric); len(r) > rubricExcerpt {
		excerpt = string(r[:rubricExcerpt])
	}
	return Result{Score: score, Feedback: "Scored based on rubric: " + excerpt + "..."}
}
