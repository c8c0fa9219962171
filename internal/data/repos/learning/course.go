package learning

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type CourseRepo interface {
	GetByID(dbc dbctx.Context, id uint) (*types.Course, error)
	GetByTitle(dbc dbctx.Context, title string) (*types.Course, error)
	UpsertByTitle(dbc dbctx.Context, course *types.Course) (*types.Course, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uint) (*types.Course, error) {
	if id == 0 {
		return nil, nil
	}
	var row types.Course
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *courseRepo) GetByTitle(dbc dbctx.Context, title string) (*types.Course, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	var row types.Course
	if err := dbc.DB(r.db).Where("title = ?", title).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

// UpsertByTitle inserts the course or refreshes the description of the existing one,
// returning the stored row.
func (r *courseRepo) UpsertByTitle(dbc dbctx.Context, course *types.Course) (*types.Course, error) {
	if course == nil || strings.TrimSpace(course.Title) == "" {
		return nil, nil
	}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "title"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
		}).
		Create(course).Error; err != nil {
		return nil, err
	}
	return r.GetByTitle(dbc, course.Title)
}
