package cefr

// MaxScore is the top of the external evaluation scale.
const MaxScore = 5.0

// Level is the CEFR rating shown on the summary, derived from the
// authoritative average score reported by the evaluation service.
type Level string

const (
	LevelC1Plus Level = "C1+"
	LevelB2     Level = "B2"
	LevelB1     Level = "B1"
	LevelA2     Level = "A2"
	LevelA1     Level = "A1"
)

// levelThresholds are checked top-down; a score equal to a threshold
// belongs to the higher level.
var levelThresholds = []struct {
	min   float64
	level Level
}{
	{4.5, LevelC1Plus},
	{3.5, LevelB2},
	{2.5, LevelB1},
	{1.5, LevelA2},
}

// LevelForScore maps an average score on the 0-5 scale to a CEFR level.
// It is total over the real line: anything below 1.5 (including NaN and
// negative values) is A1.
func LevelForScore(avg float64) Level {
	for _, t := range levelThresholds {
		if avg >= t.min {
			return t.level
		}
	}
	return LevelA1
}

var encouragement = map[Level]string{
	LevelC1Plus: "Impressive! You're approaching near-native fluency.",
	LevelB2:     "Solid B2! You're well on your way to advanced mastery.",
	LevelB1:     "You're in the B1 zone. Keep climbing!",
	LevelA2:     "A2 emerging. Focus on clarity and word variety.",
	LevelA1:     "Let's build from the basics. Every response is progress!",
}

// Encouragement returns the motivational line shown next to a level.
func Encouragement(l Level) string {
	if line, ok := encouragement[l]; ok {
		return line
	}
	return "Keep going. You're building toward confident communication!"
}

// ScorePercent converts an average score to a 0-100 progress value.
func ScorePercent(avg float64) float64 {
	if avg <= 0 {
		return 0
	}
	if avg >= MaxScore {
		return 100
	}
	return avg / MaxScore * 100
}
