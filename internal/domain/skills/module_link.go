package skills

import "time"

// ModuleCompetencyLink says a course module develops a competency.
// (module_id, dna_id) is unique.
type ModuleCompetencyLink struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ModuleID    uint       `gorm:"column:module_id;not null;uniqueIndex:idx_module_skills_dna_pair,priority:1" json:"moduleId"`
	DNAID       uint       `gorm:"column:dna_id;not null;uniqueIndex:idx_module_skills_dna_pair,priority:2;index" json:"dnaId"`
	Importance  int        `gorm:"column:importance;not null;default:1" json:"importance"`
	BloomLevel  BloomLevel `gorm:"column:bloom_level;not null;default:'knowledge'" json:"bloomLevel"`
	Description string     `gorm:"column:description;type:text" json:"description"`
	CreatedAt   time.Time  `gorm:"not null" json:"createdAt"`
}

func (ModuleCompetencyLink) TableName() string { return "module_skills_dna" }
