package graph

import (
	"context"
	"testing"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

func TestCompetencyNodes(t *testing.T) {
	parent := uint(1)
	nodes, parents := competencyNodes([]*types.Competency{
		{ID: 1, Name: "Анализ данных", Category: "analytical"},
		{ID: 4, Name: "Машинное обучение", Category: "technical", ParentID: &parent},
		nil,
		{ID: 0, Name: "unsaved"},
	}, "2026-01-01T00:00:00Z")

	if len(nodes) != 2 {
		t.Fatalf("nodes: want=2 got=%d", len(nodes))
	}
	if nodes[1]["id"] != int64(4) || nodes[1]["name"] != "Машинное обучение" {
		t.Fatalf("node[1]: %v", nodes[1])
	}
	if len(parents) != 1 || parents[0]["parent_id"] != int64(1) {
		t.Fatalf("parents: %v", parents)
	}
}

func TestDisabledGraphIsNoop(t *testing.T) {
	log, _ := logger.New("test")
	g := NewCompetencyGraph(nil, log)
	if g.Enabled() {
		t.Fatalf("Enabled: want=false")
	}
	if err := g.UpsertCompetencies(context.Background(), []*types.Competency{{ID: 1}}); err != nil {
		t.Fatalf("UpsertCompetencies: %v", err)
	}
	if err := g.UpsertModuleLinks(context.Background(), []*types.ModuleCompetencyLink{{ModuleID: 1, DNAID: 1}}); err != nil {
		t.Fatalf("UpsertModuleLinks: %v", err)
	}
}
