package learning

import "time"

type CourseModule struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID    uint      `gorm:"column:course_id;not null;index:idx_course_module_order,priority:1" json:"courseId"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	OrderIndex  int       `gorm:"column:order_index;not null;default:0;index:idx_course_module_order,priority:2" json:"orderIndex"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`
}

func (CourseModule) TableName() string { return "course_module" }
