package skills

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type ProgressRepo interface {
	Get(dbc dbctx.Context, userID, dnaID uint) (*types.UserCompetencyProgress, error)
	ListByUser(dbc dbctx.Context, userID uint) ([]*types.UserCompetencyProgress, error)
	ListWithCompetencyByUser(dbc dbctx.Context, userID uint) ([]*types.ProgressWithCompetency, error)
	InsertIfAbsent(dbc dbctx.Context, row *types.UserCompetencyProgress) (bool, error)
	UpdateIfVersion(dbc dbctx.Context, id uint, expectedVersion int, fields map[string]interface{}) (bool, error)
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) Get(dbc dbctx.Context, userID, dnaID uint) (*types.UserCompetencyProgress, error) {
	if userID == 0 || dnaID == 0 {
		return nil, nil
	}
	var row types.UserCompetencyProgress
	if err := dbc.DB(r.db).
		Where("user_id = ? AND dna_id = ?", userID, dnaID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *progressRepo) ListByUser(dbc dbctx.Context, userID uint) ([]*types.UserCompetencyProgress, error) {
	out := []*types.UserCompetencyProgress{}
	if userID == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("dna_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListWithCompetencyByUser joins each progress row with its competency, ordered by category then name.
func (r *progressRepo) ListWithCompetencyByUser(dbc dbctx.Context, userID uint) ([]*types.ProgressWithCompetency, error) {
	out := []*types.ProgressWithCompetency{}
	if userID == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Table("user_skills_dna_progress AS p").
		Select(`p.*,
			s.name AS competency_name,
			s.category AS competency_category,
			s.description AS competency_description`).
		Joins("JOIN skills_dna AS s ON s.id = p.dna_id").
		Where("p.user_id = ?", userID).
		Order("s.category ASC, s.name ASC, p.id ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// InsertIfAbsent inserts row unless (user_id, dna_id) already exists. It reports whether
// this call created the row; on false the caller should re-read and update instead.
func (r *progressRepo) InsertIfAbsent(dbc dbctx.Context, row *types.UserCompetencyProgress) (bool, error) {
	if row == nil || row.UserID == 0 || row.DNAID == 0 {
		return false, nil
	}
	if row.Version == 0 {
		row.Version = 1
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "dna_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateIfVersion applies fields and bumps version only if the stored version still equals
// expectedVersion.
func (r *progressRepo) UpdateIfVersion(dbc dbctx.Context, id uint, expectedVersion int, fields map[string]interface{}) (bool, error) {
	if id == 0 {
		return false, nil
	}
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = expectedVersion + 1
	res := dbc.DB(r.db).
		Model(&types.UserCompetencyProgress{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
