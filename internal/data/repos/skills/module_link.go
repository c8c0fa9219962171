package skills

import (
	"gorm.io/gorm"

	"github.com/yungbote/skillsdna-backend/internal/data/dberr"
	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type ModuleLinkRepo interface {
	Exists(dbc dbctx.Context, moduleID, dnaID uint) (bool, error)
	Create(dbc dbctx.Context, link *types.ModuleCompetencyLink) error
	ListByModuleIDs(dbc dbctx.Context, moduleIDs []uint) ([]*types.ModuleCompetencyLink, error)
	CountByPair(dbc dbctx.Context, moduleID, dnaID uint) (int64, error)
}

type moduleLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleLinkRepo(db *gorm.DB, baseLog *logger.Logger) ModuleLinkRepo {
	return &moduleLinkRepo{db: db, log: baseLog.With("repo", "ModuleLinkRepo")}
}

func (r *moduleLinkRepo) Exists(dbc dbctx.Context, moduleID, dnaID uint) (bool, error) {
	n, err := r.CountByPair(dbc, moduleID, dnaID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *moduleLinkRepo) CountByPair(dbc dbctx.Context, moduleID, dnaID uint) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.ModuleCompetencyLink{}).
		Where("module_id = ? AND dna_id = ?", moduleID, dnaID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Create inserts a link. A unique-index violation comes back tagged with dberr.ErrConflict.
func (r *moduleLinkRepo) Create(dbc dbctx.Context, link *types.ModuleCompetencyLink) error {
	if link == nil {
		return nil
	}
	if err := dbc.DB(r.db).Create(link).Error; err != nil {
		return dberr.Classify(err)
	}
	return nil
}

// ListByModuleIDs loads links for many modules in one query. An empty id list
// becomes an always-false predicate rather than an empty IN list.
func (r *moduleLinkRepo) ListByModuleIDs(dbc dbctx.Context, moduleIDs []uint) ([]*types.ModuleCompetencyLink, error) {
	out := []*types.ModuleCompetencyLink{}
	q := dbc.DB(r.db)
	if len(moduleIDs) == 0 {
		q = q.Where("1 = 0")
	} else {
		q = q.Where("module_id IN ?", moduleIDs)
	}
	if err := q.Order("module_id ASC, importance DESC, dna_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
