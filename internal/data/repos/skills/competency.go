package skills

import (
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type CompetencyRepo interface {
	List(dbc dbctx.Context) ([]*types.Competency, error)
	GetByID(dbc dbctx.Context, id uint) (*types.Competency, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Competency, error)
	GetByName(dbc dbctx.Context, name string) (*types.Competency, error)
	ListChildren(dbc dbctx.Context, parentID uint) ([]*types.Competency, error)
	Create(dbc dbctx.Context, c *types.Competency) error
	Update(dbc dbctx.Context, id uint, fields map[string]interface{}) error
}

type competencyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompetencyRepo(db *gorm.DB, baseLog *logger.Logger) CompetencyRepo {
	return &competencyRepo{db: db, log: baseLog.With("repo", "CompetencyRepo")}
}

func (r *competencyRepo) List(dbc dbctx.Context) ([]*types.Competency, error) {
	out := []*types.Competency{}
	if err := dbc.DB(r.db).
		Order("category ASC, name ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *competencyRepo) GetByID(dbc dbctx.Context, id uint) (*types.Competency, error) {
	if id == 0 {
		return nil, nil
	}
	var row types.Competency
	if err := dbc.DB(r.db).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *competencyRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Competency, error) {
	out := []*types.Competency{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *competencyRepo) GetByName(dbc dbctx.Context, name string) (*types.Competency, error) {
	if name == "" {
		return nil, nil
	}
	var row types.Competency
	if err := dbc.DB(r.db).
		Where("name = ?", name).
		Order("id ASC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *competencyRepo) ListChildren(dbc dbctx.Context, parentID uint) ([]*types.Competency, error) {
	out := []*types.Competency{}
	if parentID == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("parent_id = ?", parentID).
		Order("name ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *competencyRepo) Create(dbc dbctx.Context, c *types.Competency) error {
	if c == nil {
		return nil
	}
	return dbc.DB(r.db).Create(c).Error
}

// Update applies a partial update and always stamps updated_at.
func (r *competencyRepo) Update(dbc dbctx.Context, id uint, fields map[string]interface{}) error {
	if id == 0 {
		return nil
	}
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).
		Model(&types.Competency{}).
		Where("id = ?", id).
		Updates(updates).Error
}
