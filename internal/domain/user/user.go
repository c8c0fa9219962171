package user

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"column:username;not null;uniqueIndex" json:"username"`
	Email    string `gorm:"column:email" json:"email"`

	CompletedOnboarding   bool              `gorm:"column:completed_onboarding;not null;default:false" json:"completedOnboarding"`
	OnboardingCompletedAt *time.Time        `gorm:"column:onboarding_completed_at" json:"onboardingCompletedAt"`
	Metadata              datatypes.JSONMap `gorm:"column:metadata" json:"metadata"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "app_user" }

func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Metadata == nil {
		u.Metadata = datatypes.JSONMap{}
	}
	return nil
}
