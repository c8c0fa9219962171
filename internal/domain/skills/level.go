package skills

import (
	"math"
	"strings"
)

// MasteryLevel is a user's attainment on one competency, ordered awareness < ... < expertise.
type MasteryLevel string

const (
	LevelAwareness   MasteryLevel = "awareness"
	LevelKnowledge   MasteryLevel = "knowledge"
	LevelApplication MasteryLevel = "application"
	LevelMastery     MasteryLevel = "mastery"
	LevelExpertise   MasteryLevel = "expertise"
)

var masteryLadder = []MasteryLevel{
	LevelAwareness,
	LevelKnowledge,
	LevelApplication,
	LevelMastery,
	LevelExpertise,
}

// Upper bounds (inclusive) of the first four buckets; anything above the last is expertise.
var levelThresholds = [...]float64{20, 40, 60, 80}

// LevelFor maps a 0-100 score to a mastery level. Boundary values belong to the
// lower bucket. NaN and negative scores are awareness.
func LevelFor(score float64) MasteryLevel {
	if math.IsNaN(score) {
		return LevelAwareness
	}
	for i, upper := range levelThresholds {
		if score <= upper {
			return masteryLadder[i]
		}
	}
	return LevelExpertise
}

// Rank is the ladder index of l, or -1 for an unknown level.
func (l MasteryLevel) Rank() int {
	for i, lvl := range masteryLadder {
		if lvl == l {
			return i
		}
	}
	return -1
}

func (l MasteryLevel) Valid() bool { return l.Rank() >= 0 }

func (l MasteryLevel) String() string { return string(l) }

// ParseMasteryLevel accepts any casing and surrounding whitespace.
func ParseMasteryLevel(s string) (MasteryLevel, bool) {
	lvl := MasteryLevel(strings.ToLower(strings.TrimSpace(s)))
	return lvl, lvl.Valid()
}

// HigherLevel returns whichever of a and b ranks higher on the ladder.
func HigherLevel(a, b MasteryLevel) MasteryLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

func MasteryLevels() []MasteryLevel {
	out := make([]MasteryLevel, len(masteryLadder))
	copy(out, masteryLadder)
	return out
}
