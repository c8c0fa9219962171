package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/apierr"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type MapModule struct {
	*types.CourseModule
	Links []*types.ModuleCompetencyLink `json:"links"`
}

type MapCompetency struct {
	*types.Competency
	Children []*types.Competency `json:"children"`
}

type CompetencyMap struct {
	Course       *types.Course    `json:"course"`
	Modules      []*MapModule     `json:"modules"`
	Competencies []*MapCompetency `json:"competencies"`
}

type CompetencyMapService interface {
	CourseCompetencyMap(ctx context.Context, courseID uint) (*CompetencyMap, error)
}

type competencyMapService struct {
	log   *logger.Logger
	repos repos.Set
}

func NewCompetencyMapService(baseLog *logger.Logger, rs repos.Set) CompetencyMapService {
	return &competencyMapService{
		log:   baseLog.With("service", "CompetencyMapService"),
		repos: rs,
	}
}

func (s *competencyMapService) CourseCompetencyMap(ctx context.Context, courseID uint) (*CompetencyMap, error) {
	dbc := dbctx.Context{Ctx: ctx}
	course, err := s.repos.Courses.GetByID(dbc, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course %d: %w", courseID, err)
	}
	if course == nil {
		return nil, apierr.NotFound("course_not_found", "course %d not found", courseID)
	}
	modules, err := s.repos.Modules.ListByCourseID(dbc, courseID)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	moduleIDs := make([]uint, 0, len(modules))
	for _, m := range modules {
		moduleIDs = append(moduleIDs, m.ID)
	}
	links, err := s.repos.ModuleLinks.ListByModuleIDs(dbc, moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("load module links: %w", err)
	}
	comps, err := s.repos.Competency.GetByIDs(dbc, distinctDNAIDs(links))
	if err != nil {
		return nil, fmt.Errorf("load competencies: %w", err)
	}

	out, err := AssembleCompetencyMap(course, modules, links, comps)
	if err != nil {
		s.log.Error("competency map assembly failed", "course_id", courseID, "error", err)
		return nil, err
	}
	return out, nil
}

// AssembleCompetencyMap denormalizes one course. Children are limited to competencies in
// comps, so parents outside the course footprint never appear. A parent cycle inside
// comps is an error.
func AssembleCompetencyMap(course *types.Course, modules []*types.CourseModule, links []*types.ModuleCompetencyLink, comps []*types.Competency) (*CompetencyMap, error) {
	byID := make(map[uint]*types.Competency, len(comps))
	for _, c := range comps {
		byID[c.ID] = c
	}
	if err := checkParentCycles(comps, byID); err != nil {
		return nil, err
	}

	linksByModule := make(map[uint][]*types.ModuleCompetencyLink, len(modules))
	for _, l := range links {
		linksByModule[l.ModuleID] = append(linksByModule[l.ModuleID], l)
	}

	out := &CompetencyMap{
		Course:       course,
		Modules:      make([]*MapModule, 0, len(modules)),
		Competencies: make([]*MapCompetency, 0, len(comps)),
	}
	for _, m := range modules {
		ml := linksByModule[m.ID]
		if ml == nil {
			ml = []*types.ModuleCompetencyLink{}
		}
		out.Modules = append(out.Modules, &MapModule{CourseModule: m, Links: ml})
	}

	children := make(map[uint][]*types.Competency, len(comps))
	for _, c := range comps {
		if c.ParentID != nil && *c.ParentID != c.ID {
			if _, ok := byID[*c.ParentID]; ok {
				children[*c.ParentID] = append(children[*c.ParentID], c)
			}
		}
	}
	for _, c := range comps {
		kids := children[c.ID]
		if kids == nil {
			kids = []*types.Competency{}
		}
		out.Competencies = append(out.Competencies, &MapCompetency{Competency: c, Children: kids})
	}
	return out, nil
}

func checkParentCycles(comps []*types.Competency, byID map[uint]*types.Competency) error {
	done := make(map[uint]bool, len(comps))
	for _, start := range comps {
		if done[start.ID] {
			continue
		}
		onPath := map[uint]bool{}
		for cur := start; cur != nil; {
			if onPath[cur.ID] {
				return apierr.New(http.StatusInternalServerError, "competency_cycle",
					fmt.Errorf("competency %d is part of a parent cycle", cur.ID))
			}
			if done[cur.ID] {
				break
			}
			onPath[cur.ID] = true
			if cur.ParentID == nil {
				break
			}
			cur = byID[*cur.ParentID]
		}
		for id := range onPath {
			done[id] = true
		}
	}
	return nil
}
