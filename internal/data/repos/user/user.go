package user

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type UserRepo interface {
	GetByID(dbc dbctx.Context, id uint) (*types.User, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.User, error)
	Exists(dbc dbctx.Context, id uint) (bool, error)
	Create(dbc dbctx.Context, u *types.User) error
	MarkOnboarded(dbc dbctx.Context, id uint, completedAt time.Time, metadata datatypes.JSONMap) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) GetByID(dbc dbctx.Context, id uint) (*types.User, error) {
	if id == 0 {
		return nil, nil
	}
	var row types.User
	if err := dbc.DB(ur.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (ur *userRepo) GetByUsername(dbc dbctx.Context, username string) (*types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	var row types.User
	if err := dbc.DB(ur.db).Where("username = ?", username).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (ur *userRepo) Exists(dbc dbctx.Context, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var n int64
	if err := dbc.DB(ur.db).Model(&types.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (ur *userRepo) Create(dbc dbctx.Context, u *types.User) error {
	if u == nil {
		return nil
	}
	return dbc.DB(ur.db).Create(u).Error
}

// MarkOnboarded sets the onboarding flag and timestamp and replaces metadata wholesale.
// Callers merge metadata before calling.
func (ur *userRepo) MarkOnboarded(dbc dbctx.Context, id uint, completedAt time.Time, metadata datatypes.JSONMap) error {
	if id == 0 {
		return nil
	}
	if metadata == nil {
		metadata = datatypes.JSONMap{}
	}
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"completed_onboarding":    true,
			"onboarding_completed_at": completedAt,
			"metadata":                metadata,
			"updated_at":              time.Now().UTC(),
		}).Error
}
