package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/skillsdna-backend/internal/data/dberr"
	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
	"github.com/yungbote/skillsdna-backend/internal/platform/apierr"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

const defaultCompetencyLevel = "basic"

// TaxonomyProjector mirrors taxonomy writes into a secondary store. Satisfied by *graph.CompetencyGraph.
type TaxonomyProjector interface {
	UpsertCompetencies(ctx context.Context, comps []*types.Competency) error
	UpsertModuleLinks(ctx context.Context, links []*types.ModuleCompetencyLink) error
}

type CompetencyDetail struct {
	*types.Competency
	Children []*types.Competency `json:"children"`
}

type CompetencyInput struct {
	Name                 string
	Description          string
	Category             string
	Level                string
	ParentID             *uint
	BehavioralIndicators []string
}

// CompetencyPatch carries only the fields to change. ParentSet with a nil ParentID clears the parent.
type CompetencyPatch struct {
	Name                 *string
	Description          *string
	Category             *string
	Level                *string
	ParentSet            bool
	ParentID             *uint
	BehavioralIndicators *[]string
}

type LinkedCompetency struct {
	*types.Competency
	Importance      int               `json:"importance"`
	BloomLevel      skills.BloomLevel `json:"bloomLevel"`
	LinkDescription string            `json:"linkDescription"`
}

type ModuleBreakdown struct {
	*types.CourseModule
	Competencies []*LinkedCompetency `json:"competencies"`
}

type CourseBreakdown struct {
	Course  *types.Course      `json:"course"`
	Modules []*ModuleBreakdown `json:"modules"`
}

type LinkInput struct {
	DNAID       uint
	Importance  int
	BloomLevel  string
	Description string
}

type CompetencyService interface {
	List(ctx context.Context) ([]*types.Competency, error)
	Get(ctx context.Context, id uint) (*CompetencyDetail, error)
	Create(ctx context.Context, in CompetencyInput) (*types.Competency, error)
	Update(ctx context.Context, id uint, patch CompetencyPatch) (*types.Competency, error)
	CourseBreakdown(ctx context.Context, courseID uint) (*CourseBreakdown, error)
	ModuleCompetencies(ctx context.Context, moduleID uint) ([]*LinkedCompetency, error)
	LinkToModule(ctx context.Context, moduleID uint, in LinkInput) (*types.ModuleCompetencyLink, error)
}

type competencyService struct {
	log       *logger.Logger
	repos     repos.Set
	projector TaxonomyProjector
}

func NewCompetencyService(baseLog *logger.Logger, rs repos.Set, projector TaxonomyProjector) CompetencyService {
	return &competencyService{
		log:       baseLog.With("service", "CompetencyService"),
		repos:     rs,
		projector: projector,
	}
}

func (s *competencyService) List(ctx context.Context) ([]*types.Competency, error) {
	return s.repos.Competency.List(dbctx.Context{Ctx: ctx})
}

func (s *competencyService) Get(ctx context.Context, id uint) (*CompetencyDetail, error) {
	var (
		comp     *types.Competency
		children []*types.Competency
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		comp, err = s.repos.Competency.GetByID(dbctx.Context{Ctx: gctx}, id)
		return err
	})
	g.Go(func() error {
		var err error
		children, err = s.repos.Competency.ListChildren(dbctx.Context{Ctx: gctx}, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load competency %d: %w", id, err)
	}
	if comp == nil {
		return nil, apierr.NotFound("competency_not_found", "competency %d not found", id)
	}
	return &CompetencyDetail{Competency: comp, Children: children}, nil
}

func (s *competencyService) Create(ctx context.Context, in CompetencyInput) (*types.Competency, error) {
	dbc := dbctx.Context{Ctx: ctx}
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if name == "" || category == "" {
		return nil, apierr.BadRequest("validation_error", "name and category are required")
	}
	if in.ParentID != nil {
		if err := s.requireCompetency(dbc, *in.ParentID, "parent_not_found"); err != nil {
			return nil, err
		}
	}
	level := strings.TrimSpace(in.Level)
	if level == "" {
		level = defaultCompetencyLevel
	}
	comp := &types.Competency{
		Name:                 name,
		Description:          strings.TrimSpace(in.Description),
		Category:             category,
		Level:                level,
		ParentID:             in.ParentID,
		BehavioralIndicators: indicators(in.BehavioralIndicators),
	}
	if err := s.repos.Competency.Create(dbc, comp); err != nil {
		return nil, fmt.Errorf("create competency: %w", err)
	}
	s.project(ctx, comp)
	return comp, nil
}

func (s *competencyService) Update(ctx context.Context, id uint, patch CompetencyPatch) (*types.Competency, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.requireCompetency(dbc, id, "competency_not_found"); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apierr.BadRequest("validation_error", "name must not be empty")
		}
		fields["name"] = name
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if category == "" {
			return nil, apierr.BadRequest("validation_error", "category must not be empty")
		}
		fields["category"] = category
	}
	if patch.Description != nil {
		fields["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.Level != nil {
		level := strings.TrimSpace(*patch.Level)
		if level == "" {
			level = defaultCompetencyLevel
		}
		fields["level"] = level
	}
	if patch.BehavioralIndicators != nil {
		fields["behavioral_indicators"] = indicators(*patch.BehavioralIndicators)
	}
	if patch.ParentSet {
		if patch.ParentID != nil {
			if err := s.requireCompetency(dbc, *patch.ParentID, "parent_not_found"); err != nil {
				return nil, err
			}
			if err := s.rejectCycle(dbc, id, *patch.ParentID); err != nil {
				return nil, err
			}
			fields["parent_id"] = *patch.ParentID
		} else {
			fields["parent_id"] = nil
		}
	}

	if err := s.repos.Competency.Update(dbc, id, fields); err != nil {
		return nil, fmt.Errorf("update competency %d: %w", id, err)
	}
	comp, err := s.repos.Competency.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("reload competency %d: %w", id, err)
	}
	s.project(ctx, comp)
	return comp, nil
}

func (s *competencyService) requireCompetency(dbc dbctx.Context, id uint, code string) error {
	comp, err := s.repos.Competency.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load competency %d: %w", id, err)
	}
	if comp == nil {
		return apierr.NotFound(code, "competency %d not found", id)
	}
	return nil
}

// rejectCycle fails when making parentID the parent of id would put id on its own ancestor chain.
func (s *competencyService) rejectCycle(dbc dbctx.Context, id, parentID uint) error {
	seen := map[uint]bool{}
	for cur := parentID; cur != 0; {
		if cur == id {
			return apierr.BadRequest("competency_cycle", "competency %d cannot be its own ancestor", id)
		}
		if seen[cur] {
			// pre-existing cycle above the new parent; it does not pass through id
			return nil
		}
		seen[cur] = true
		comp, err := s.repos.Competency.GetByID(dbc, cur)
		if err != nil {
			return fmt.Errorf("walk ancestors of %d: %w", parentID, err)
		}
		if comp == nil || comp.ParentID == nil {
			return nil
		}
		cur = *comp.ParentID
	}
	return nil
}

func (s *competencyService) project(ctx context.Context, comps ...*types.Competency) {
	if s.projector == nil {
		return
	}
	if err := s.projector.UpsertCompetencies(ctx, comps); err != nil {
		s.log.Warn("taxonomy projection failed", "error", err)
	}
}

func (s *competencyService) CourseBreakdown(ctx context.Context, courseID uint) (*CourseBreakdown, error) {
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
	linked, err := s.linkedCompetencies(dbc, moduleIDs)
	if err != nil {
		return nil, err
	}

	out := &CourseBreakdown{Course: course, Modules: make([]*ModuleBreakdown, 0, len(modules))}
	for _, m := range modules {
		comps := linked[m.ID]
		if comps == nil {
			comps = []*LinkedCompetency{}
		}
		out.Modules = append(out.Modules, &ModuleBreakdown{CourseModule: m, Competencies: comps})
	}
	return out, nil
}

func (s *competencyService) ModuleCompetencies(ctx context.Context, moduleID uint) ([]*LinkedCompetency, error) {
	dbc := dbctx.Context{Ctx: ctx}
	module, err := s.repos.Modules.GetByID(dbc, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load module %d: %w", moduleID, err)
	}
	if module == nil {
		return nil, apierr.NotFound("module_not_found", "module %d not found", moduleID)
	}
	linked, err := s.linkedCompetencies(dbc, []uint{moduleID})
	if err != nil {
		return nil, err
	}
	if out := linked[moduleID]; out != nil {
		return out, nil
	}
	return []*LinkedCompetency{}, nil
}

// linkedCompetencies loads links for moduleIDs in one query and joins their competencies.
func (s *competencyService) linkedCompetencies(dbc dbctx.Context, moduleIDs []uint) (map[uint][]*LinkedCompetency, error) {
	links, err := s.repos.ModuleLinks.ListByModuleIDs(dbc, moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("load module links: %w", err)
	}
	comps, err := s.repos.Competency.GetByIDs(dbc, distinctDNAIDs(links))
	if err != nil {
		return nil, fmt.Errorf("load linked competencies: %w", err)
	}
	byID := make(map[uint]*types.Competency, len(comps))
	for _, c := range comps {
		byID[c.ID] = c
	}
	out := make(map[uint][]*LinkedCompetency, len(moduleIDs))
	for _, l := range links {
		c := byID[l.DNAID]
		if c == nil {
			continue
		}
		out[l.ModuleID] = append(out[l.ModuleID], &LinkedCompetency{
			Competency:      c,
			Importance:      l.Importance,
			BloomLevel:      l.BloomLevel,
			LinkDescription: l.Description,
		})
	}
	return out, nil
}

func (s *competencyService) LinkToModule(ctx context.Context, moduleID uint, in LinkInput) (*types.ModuleCompetencyLink, error) {
	dbc := dbctx.Context{Ctx: ctx}

	bloom := skills.BloomKnowledge
	if strings.TrimSpace(in.BloomLevel) != "" {
		parsed, ok := skills.ParseBloomLevel(in.BloomLevel)
		if !ok {
			return nil, apierr.BadRequest("validation_error", "unknown bloomLevel %q", in.BloomLevel)
		}
		bloom = parsed
	}
	importance := in.Importance
	if importance < 0 {
		return nil, apierr.BadRequest("validation_error", "importance must not be negative")
	}
	if importance == 0 {
		importance = 1
	}

	module, err := s.repos.Modules.GetByID(dbc, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load module %d: %w", moduleID, err)
	}
	if module == nil {
		return nil, apierr.NotFound("module_not_found", "module %d not found", moduleID)
	}
	if err := s.requireCompetency(dbc, in.DNAID, "competency_not_found"); err != nil {
		return nil, err
	}

	exists, err := s.repos.ModuleLinks.Exists(dbc, moduleID, in.DNAID)
	if err != nil {
		return nil, fmt.Errorf("check module link: %w", err)
	}
	if exists {
		return nil, apierr.Conflict("link_exists", "competency %d is already linked to module %d", in.DNAID, moduleID)
	}

	link := &types.ModuleCompetencyLink{
		ModuleID:    moduleID,
		DNAID:       in.DNAID,
		Importance:  importance,
		BloomLevel:  bloom,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.repos.ModuleLinks.Create(dbc, link); err != nil {
		if errors.Is(err, dberr.ErrConflict) {
			return nil, apierr.Conflict("link_exists", "competency %d is already linked to module %d", in.DNAID, moduleID)
		}
		return nil, fmt.Errorf("create module link: %w", err)
	}
	if s.projector != nil {
		if err := s.projector.UpsertModuleLinks(ctx, []*types.ModuleCompetencyLink{link}); err != nil {
			s.log.Warn("module link projection failed", "module_id", moduleID, "dna_id", in.DNAID, "error", err)
		}
	}
	return link, nil
}

func indicators(in []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func distinctDNAIDs(links []*types.ModuleCompetencyLink) []uint {
	seen := make(map[uint]bool, len(links))
	out := make([]uint, 0, len(links))
	for _, l := range links {
		if !seen[l.DNAID] {
			seen[l.DNAID] = true
			out = append(out, l.DNAID)
		}
	}
	return out
}
