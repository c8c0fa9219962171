package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/skillsdna-backend/internal/data/aggregates"
	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

//go:embed demo.yaml
var demoYAML []byte

type Fixture struct {
	Competencies []CompetencyFixture `yaml:"competencies"`
	Course       CourseFixture       `yaml:"course"`
	User         UserFixture         `yaml:"user"`
	Diagnostic   DiagnosticFixture   `yaml:"diagnostic"`
}

type CompetencyFixture struct {
	Name        string   `yaml:"name"`
	Parent      string   `yaml:"parent"`
	Category    string   `yaml:"category"`
	Level       string   `yaml:"level"`
	Description string   `yaml:"description"`
	Indicators  []string `yaml:"indicators"`
}

type CourseFixture struct {
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Modules     []ModuleFixture `yaml:"modules"`
}

type ModuleFixture struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Order       int           `yaml:"order"`
	Links       []LinkFixture `yaml:"links"`
}

type LinkFixture struct {
	Competency  string `yaml:"competency"`
	Importance  int    `yaml:"importance"`
	Bloom       string `yaml:"bloom"`
	Description string `yaml:"description"`
}

type UserFixture struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
}

type DiagnosticFixture struct {
	Type   string             `yaml:"type"`
	Skills map[string]float64 `yaml:"skills"`
}

// Load returns the embedded demo fixture, or the file at path when non-empty.
func Load(path string) (*Fixture, error) {
	data := demoYAML
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", path, err)
		}
		data = b
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixture) validate() error {
	names := make(map[string]bool, len(fx.Competencies))
	for i, c := range fx.Competencies {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Category) == "" {
			return fmt.Errorf("competency %d: name and category are required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("competency %q listed twice", c.Name)
		}
		names[c.Name] = true
	}
	for _, c := range fx.Competencies {
		if c.Parent != "" && !names[c.Parent] {
			return fmt.Errorf("competency %q: unknown parent %q", c.Name, c.Parent)
		}
	}
	if strings.TrimSpace(fx.Course.Title) == "" {
		return fmt.Errorf("course title is required")
	}
	for _, m := range fx.Course.Modules {
		for _, l := range m.Links {
			if !names[l.Competency] {
				return fmt.Errorf("module %q links unknown competency %q", m.Title, l.Competency)
			}
			if l.Bloom != "" {
				if _, ok := skills.ParseBloomLevel(l.Bloom); !ok {
					return fmt.Errorf("module %q: unknown bloom level %q", m.Title, l.Bloom)
				}
			}
		}
	}
	if strings.TrimSpace(fx.User.Username) == "" {
		return fmt.Errorf("user username is required")
	}
	return nil
}

type Options struct {
	// UserID pins the demo user's id; zero means look up or create by username.
	UserID       uint
	WithProgress bool
}

type Result struct {
	UserID       uint
	CourseID     uint
	Competencies int
	Modules      int
	LinksCreated int
	Saved        int
}

type Seeder struct {
	db     *gorm.DB
	log    *logger.Logger
	repos  repos.Set
	runner aggregates.TxRunner
	agg    *aggregates.ProgressAggregate
}

func NewSeeder(db *gorm.DB, baseLog *logger.Logger, rs repos.Set, agg *aggregates.ProgressAggregate) *Seeder {
	return &Seeder{
		db:     db,
		log:    baseLog.With("service", "Seeder"),
		repos:  rs,
		runner: aggregates.NewGormTxRunner(db),
		agg:    agg,
	}
}

// Run upserts the fixture by natural keys (competency name, course title, module title,
// username) so repeated runs converge on the same rows.
func (s *Seeder) Run(ctx context.Context, fx *Fixture, opts Options) (*Result, error) {
	res := &Result{}
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		ids, err := s.upsertCompetencies(dbc, fx.Competencies)
		if err != nil {
			return err
		}
		res.Competencies = len(ids)

		course, err := s.repos.Courses.UpsertByTitle(dbc, &types.Course{
			Title:       strings.TrimSpace(fx.Course.Title),
			Description: fx.Course.Description,
		})
		if err != nil {
			return fmt.Errorf("upsert course: %w", err)
		}
		res.CourseID = course.ID

		for _, mf := range fx.Course.Modules {
			created, err := s.upsertModule(dbc, course.ID, mf, ids)
			if err != nil {
				return err
			}
			res.Modules++
			res.LinksCreated += created
		}

		user, err := s.ensureUser(dbc, fx.User, opts.UserID)
		if err != nil {
			return err
		}
		res.UserID = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("demo data seeded",
		"course_id", res.CourseID,
		"user_id", res.UserID,
		"competencies", res.Competencies,
		"modules", res.Modules,
		"links_created", res.LinksCreated,
	)

	if opts.WithProgress && len(fx.Diagnostic.Skills) > 0 {
		if s.agg == nil {
			return nil, fmt.Errorf("seed progress: no progress aggregate configured")
		}
		diagType := fx.Diagnostic.Type
		if diagType == "" {
			diagType = "quick"
		}
		out, err := s.agg.ApplyDiagnostic(ctx, aggregates.DiagnosticInput{
			UserID:         res.UserID,
			Skills:         fx.Diagnostic.Skills,
			DiagnosticType: diagType,
			Metadata:       map[string]interface{}{"seeded": true},
		})
		if err != nil {
			return nil, fmt.Errorf("seed progress: %w", err)
		}
		res.Saved = len(out.Saved)
	}
	return res, nil
}

// upsertCompetencies writes nodes first and parents second, so fixture order does not matter.
func (s *Seeder) upsertCompetencies(dbc dbctx.Context, in []CompetencyFixture) (map[string]uint, error) {
	ids := make(map[string]uint, len(in))
	for _, cf := range in {
		name := strings.TrimSpace(cf.Name)
		level := cf.Level
		if level == "" {
			level = "basic"
		}
		indicators := datatypes.JSONSlice[string](cf.Indicators)
		if indicators == nil {
			indicators = datatypes.JSONSlice[string]{}
		}

		existing, err := s.repos.Competency.GetByName(dbc, name)
		if err != nil {
			return nil, fmt.Errorf("load competency %q: %w", name, err)
		}
		if existing == nil {
			comp := &types.Competency{
				Name:                 name,
				Description:          cf.Description,
				Category:             cf.Category,
				Level:                level,
				BehavioralIndicators: indicators,
			}
			if err := s.repos.Competency.Create(dbc, comp); err != nil {
				return nil, fmt.Errorf("create competency %q: %w", name, err)
			}
			ids[name] = comp.ID
			continue
		}
		if err := s.repos.Competency.Update(dbc, existing.ID, map[string]interface{}{
			"description":           cf.Description,
			"category":              cf.Category,
			"level":                 level,
			"behavioral_indicators": indicators,
		}); err != nil {
			return nil, fmt.Errorf("update competency %q: %w", name, err)
		}
		ids[name] = existing.ID
	}

	for _, cf := range in {
		var parent interface{}
		if cf.Parent != "" {
			parent = ids[strings.TrimSpace(cf.Parent)]
		}
		if err := s.repos.Competency.Update(dbc, ids[strings.TrimSpace(cf.Name)], map[string]interface{}{"parent_id": parent}); err != nil {
			return nil, fmt.Errorf("set parent of %q: %w", cf.Name, err)
		}
	}
	return ids, nil
}

func (s *Seeder) upsertModule(dbc dbctx.Context, courseID uint, mf ModuleFixture, ids map[string]uint) (int, error) {
	title := strings.TrimSpace(mf.Title)
	module, err := s.repos.Modules.GetByCourseAndTitle(dbc, courseID, title)
	if err != nil {
		return 0, fmt.Errorf("load module %q: %w", title, err)
	}
	if module == nil {
		module = &types.CourseModule{CourseID: courseID, Title: title, Description: mf.Description, OrderIndex: mf.Order}
		if err := s.repos.Modules.Create(dbc, module); err != nil {
			return 0, fmt.Errorf("create module %q: %w", title, err)
		}
	} else if err := s.repos.Modules.Update(dbc, module.ID, map[string]interface{}{
		"description": mf.Description,
		"order_index": mf.Order,
	}); err != nil {
		return 0, fmt.Errorf("update module %q: %w", title, err)
	}

	created := 0
	for _, lf := range mf.Links {
		dnaID := ids[lf.Competency]
		exists, err := s.repos.ModuleLinks.Exists(dbc, module.ID, dnaID)
		if err != nil {
			return 0, fmt.Errorf("check link %q/%q: %w", title, lf.Competency, err)
		}
		if exists {
			continue
		}
		bloom := skills.BloomKnowledge
		if lf.Bloom != "" {
			bloom, _ = skills.ParseBloomLevel(lf.Bloom)
		}
		importance := lf.Importance
		if importance <= 0 {
			importance = 1
		}
		if err := s.repos.ModuleLinks.Create(dbc, &types.ModuleCompetencyLink{
			ModuleID:    module.ID,
			DNAID:       dnaID,
			Importance:  importance,
			BloomLevel:  bloom,
			Description: lf.Description,
		}); err != nil {
			return 0, fmt.Errorf("create link %q/%q: %w", title, lf.Competency, err)
		}
		created++
	}
	return created, nil
}

func (s *Seeder) ensureUser(dbc dbctx.Context, uf UserFixture, pinnedID uint) (*types.User, error) {
	if pinnedID != 0 {
		u, err := s.repos.Users.GetByID(dbc, pinnedID)
		if err != nil {
			return nil, fmt.Errorf("load user %d: %w", pinnedID, err)
		}
		if u != nil {
			return u, nil
		}
	} else {
		u, err := s.repos.Users.GetByUsername(dbc, uf.Username)
		if err != nil {
			return nil, fmt.Errorf("load user %q: %w", uf.Username, err)
		}
		if u != nil {
			return u, nil
		}
	}

	username := uf.Username
	if pinnedID != 0 {
		// a pinned id may coexist with an earlier unpinned demo user
		username = fmt.Sprintf("%s-%d", uf.Username, pinnedID)
	}
	u := &types.User{ID: pinnedID, Username: username, Email: uf.Email, Metadata: datatypes.JSONMap{}}
	if err := s.repos.Users.Create(dbc, u); err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	if pinnedID != 0 {
		if err := syncUserSequence(dbc); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// syncUserSequence moves the Postgres id sequence past an explicitly inserted id.
func syncUserSequence(dbc dbctx.Context) error {
	tx := dbc.Tx
	if tx == nil || tx.Dialector.Name() != "postgres" {
		return nil
	}
	err := tx.WithContext(dbc.Ctx).Exec(
		`SELECT setval(pg_get_serial_sequence('app_user', 'id'), GREATEST((SELECT MAX(id) FROM app_user), 1))`,
	).Error
	if err != nil {
		return fmt.Errorf("sync app_user sequence: %w", err)
	}
	return nil
}
