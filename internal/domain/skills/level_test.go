package skills

import (
	"math"
	"testing"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		score float64
		want  MasteryLevel
	}{
		{-5, LevelAwareness},
		{0, LevelAwareness},
		{20, LevelAwareness},
		{20.01, LevelKnowledge},
		{40, LevelKnowledge},
		{55, LevelApplication},
		{60, LevelApplication},
		{80, LevelMastery},
		{80.5, LevelExpertise},
		{90, LevelExpertise},
		{100, LevelExpertise},
		{math.NaN(), LevelAwareness},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.score); got != tc.want {
			t.Fatalf("LevelFor(%v): want=%q got=%q", tc.score, tc.want, got)
		}
	}
}

func TestLevelForIsMonotonic(t *testing.T) {
	prev := LevelFor(0)
	for s := 0.0; s <= 100; s += 0.25 {
		cur := LevelFor(s)
		if cur.Rank() < prev.Rank() {
			t.Fatalf("LevelFor(%v)=%q ranks below previous %q", s, cur, prev)
		}
		prev = cur
	}
}

func TestParseLevels(t *testing.T) {
	if lvl, ok := ParseMasteryLevel("  Mastery "); !ok || lvl != LevelMastery {
		t.Fatalf("ParseMasteryLevel: want=%q got=%q ok=%v", LevelMastery, lvl, ok)
	}
	if _, ok := ParseMasteryLevel("guru"); ok {
		t.Fatalf("ParseMasteryLevel accepted an unknown level")
	}
	if lvl, ok := ParseBloomLevel("Synthesis"); !ok || lvl != BloomSynthesis {
		t.Fatalf("ParseBloomLevel: want=%q got=%q ok=%v", BloomSynthesis, lvl, ok)
	}
	if got := HigherLevel(LevelMastery, LevelKnowledge); got != LevelMastery {
		t.Fatalf("HigherLevel: want=%q got=%q", LevelMastery, got)
	}
	if got := HigherLevel(LevelAwareness, LevelExpertise); got != LevelExpertise {
		t.Fatalf("HigherLevel: want=%q got=%q", LevelExpertise, got)
	}
}
