package skills

import "strings"

// BloomLevel tags a module-competency link with an instructional-design level.
// It is unrelated to a user's MasteryLevel.
type BloomLevel string

const (
	BloomKnowledge     BloomLevel = "knowledge"
	BloomComprehension BloomLevel = "comprehension"
	BloomApplication   BloomLevel = "application"
	BloomAnalysis      BloomLevel = "analysis"
	BloomSynthesis     BloomLevel = "synthesis"
	BloomEvaluation    BloomLevel = "evaluation"
)

var bloomLevels = []BloomLevel{
	BloomKnowledge,
	BloomComprehension,
	BloomApplication,
	BloomAnalysis,
	BloomSynthesis,
	BloomEvaluation,
}

func (b BloomLevel) Valid() bool {
	for _, lvl := range bloomLevels {
		if lvl == b {
			return true
		}
	}
	return false
}

func ParseBloomLevel(s string) (BloomLevel, bool) {
	lvl := BloomLevel(strings.ToLower(strings.TrimSpace(s)))
	return lvl, lvl.Valid()
}
