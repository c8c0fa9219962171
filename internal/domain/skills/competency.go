package skills

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Competency is one Skills DNA node. ParentID forms a tree by convention only.
type Competency struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"column:name;not null;index" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`
	Category    string `gorm:"column:category;not null;index" json:"category"`
	// Level is the taxonomy rank of the node itself (e.g. "basic", "advanced"),
	// independent of any user's progress.
	Level    string `gorm:"column:level;not null;default:'basic'" json:"level"`
	ParentID *uint  `gorm:"column:parent_id;index" json:"parentId"`

	BehavioralIndicators datatypes.JSONSlice[string] `gorm:"column:behavioral_indicators" json:"behavioralIndicators"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Competency) TableName() string { return "skills_dna" }

func (c *Competency) BeforeSave(tx *gorm.DB) error {
	if c.BehavioralIndicators == nil {
		c.BehavioralIndicators = datatypes.JSONSlice[string]{}
	}
	return nil
}
