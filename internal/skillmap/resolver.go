package skillmap

import (
	"math"
	"sort"
	"strings"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

const maxScore = 100.0

// Score is one resolved (competency, adjusted score) pair.
type Score struct {
	DNAID    uint
	Adjusted float64
}

type Resolver struct {
	table *Table
	log   *logger.Logger
}

func NewResolver(table *Table, baseLog *logger.Logger) *Resolver {
	return &Resolver{table: table, log: baseLog.With("component", "SkillResolver")}
}

// Resolve maps one skill onto competencies. Exact table entries win and are weighted
// and clamped at 100. Entries pointing at competencies missing from the taxonomy are
// skipped; if none survive, it falls back to a case-insensitive substring match in
// either direction with the raw score. Blank skills resolve to nothing.
func (r *Resolver) Resolve(skill string, raw float64, taxonomy []*types.Competency) []Score {
	if strings.TrimSpace(skill) == "" || math.IsNaN(raw) {
		return nil
	}
	idx := indexTaxonomy(taxonomy)
	if out := r.resolveExact(skill, raw, idx); len(out) > 0 {
		return out
	}
	return resolveSubstring(skill, raw, taxonomy)
}

// ResolveAll resolves a whole submission and keeps the best adjusted score per competency.
func (r *Resolver) ResolveAll(skills map[string]float64, taxonomy []*types.Competency) map[uint]float64 {
	best := make(map[uint]float64)
	if len(skills) == 0 {
		return best
	}
	idx := indexTaxonomy(taxonomy)
	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := skills[name]
		if strings.TrimSpace(name) == "" || math.IsNaN(raw) {
			continue
		}
		scores := r.resolveExact(name, raw, idx)
		if len(scores) == 0 {
			scores = resolveSubstring(name, raw, taxonomy)
		}
		for _, s := range scores {
			if cur, ok := best[s.DNAID]; !ok || s.Adjusted > cur {
				best[s.DNAID] = s.Adjusted
			}
		}
	}
	return best
}

type taxonomyIndex struct {
	byID   map[uint]*types.Competency
	byName map[string]uint
}

func indexTaxonomy(taxonomy []*types.Competency) taxonomyIndex {
	idx := taxonomyIndex{
		byID:   make(map[uint]*types.Competency, len(taxonomy)),
		byName: make(map[string]uint, len(taxonomy)),
	}
	for _, c := range taxonomy {
		if c == nil {
			continue
		}
		idx.byID[c.ID] = c
		// first id wins for duplicate names
		if _, ok := idx.byName[c.Name]; !ok {
			idx.byName[c.Name] = c.ID
		}
	}
	return idx
}

func (r *Resolver) resolveExact(skill string, raw float64, idx taxonomyIndex) []Score {
	entries := r.table.Lookup(skill)
	if len(entries) == 0 {
		return nil
	}
	out := make([]Score, 0, len(entries))
	for _, e := range entries {
		id := e.DNAID
		if id == 0 {
			id = idx.byName[e.Competency]
		}
		if _, ok := idx.byID[id]; !ok || id == 0 {
			r.log.Warn("skill mapping points at unknown competency",
				"skill", skill,
				"dna_id", e.DNAID,
				"competency", e.Competency,
			)
			continue
		}
		out = append(out, Score{DNAID: id, Adjusted: math.Min(maxScore, raw*e.Weight)})
	}
	return out
}

func resolveSubstring(skill string, raw float64, taxonomy []*types.Competency) []Score {
	needle := strings.ToLower(strings.TrimSpace(skill))
	if needle == "" {
		return nil
	}
	var out []Score
	for _, c := range taxonomy {
		if c == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			continue
		}
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			out = append(out, Score{DNAID: c.ID, Adjusted: raw})
		}
	}
	return out
}
