package learning

import (
	"gorm.io/gorm"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type CourseModuleRepo interface {
	GetByID(dbc dbctx.Context, id uint) (*types.CourseModule, error)
	ListByCourseID(dbc dbctx.Context, courseID uint) ([]*types.CourseModule, error)
	GetByCourseAndTitle(dbc dbctx.Context, courseID uint, title string) (*types.CourseModule, error)
	Create(dbc dbctx.Context, module *types.CourseModule) error
	Update(dbc dbctx.Context, id uint, fields map[string]interface{}) error
}

type courseModuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseModuleRepo(db *gorm.DB, baseLog *logger.Logger) CourseModuleRepo {
	repoLog := baseLog.With("repo", "CourseModuleRepo")
	return &courseModuleRepo{db: db, log: repoLog}
}

func (r *courseModuleRepo) GetByID(dbc dbctx.Context, id uint) (*types.CourseModule, error) {
	if id == 0 {
		return nil, nil
	}
	var row types.CourseModule
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *courseModuleRepo) ListByCourseID(dbc dbctx.Context, courseID uint) ([]*types.CourseModule, error) {
	results := []*types.CourseModule{}
	if courseID == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Order("order_index ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseModuleRepo) GetByCourseAndTitle(dbc dbctx.Context, courseID uint, title string) (*types.CourseModule, error) {
	if courseID == 0 || title == "" {
		return nil, nil
	}
	var row types.CourseModule
	if err := dbc.DB(r.db).
		Where("course_id = ? AND title = ?", courseID, title).
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

func (r *courseModuleRepo) Create(dbc dbctx.Context, module *types.CourseModule) error {
	if module == nil {
		return nil
	}
	return dbc.DB(r.db).Create(module).Error
}

func (r *courseModuleRepo) Update(dbc dbctx.Context, id uint, fields map[string]interface{}) error {
	if id == 0 || len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.CourseModule{}).
		Where("id = ?", id).
		Updates(fields).Error
}
