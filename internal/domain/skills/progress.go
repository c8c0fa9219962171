package skills

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SourceManual           = "manual"
	sourceDiagnosticPrefix = "diagnostic-"
)

// DiagnosticSource is the history source label for a diagnostic of the given type.
func DiagnosticSource(diagnosticType string) string {
	return sourceDiagnosticPrefix + diagnosticType
}

// AssessmentSnapshot is one entry of a progress row's append-only history.
type AssessmentSnapshot struct {
	Date     time.Time    `json:"date"`
	Level    MasteryLevel `json:"level"`
	Progress float64      `json:"progress"`
	Source   string       `json:"source"`
}

// UserCompetencyProgress is the per-user, per-competency mastery record.
// Version is bumped on every write and guards concurrent updates.
type UserCompetencyProgress struct {
	ID                 uint                                    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             uint                                    `gorm:"column:user_id;not null;uniqueIndex:idx_user_skills_dna_progress_pair,priority:1" json:"userId"`
	DNAID              uint                                    `gorm:"column:dna_id;not null;uniqueIndex:idx_user_skills_dna_progress_pair,priority:2;index" json:"dnaId"`
	CurrentLevel       MasteryLevel                            `gorm:"column:current_level;not null;default:'awareness'" json:"currentLevel"`
	TargetLevel        *MasteryLevel                           `gorm:"column:target_level" json:"targetLevel"`
	Progress           float64                                 `gorm:"column:progress;not null;default:0" json:"progress"`
	LastAssessmentDate *time.Time                              `gorm:"column:last_assessment_date" json:"lastAssessmentDate"`
	AssessmentHistory  datatypes.JSONSlice[AssessmentSnapshot] `gorm:"column:assessment_history" json:"assessmentHistory"`
	Version            int                                     `gorm:"column:version;not null;default:1" json:"-"`
	CreatedAt          time.Time                               `gorm:"not null" json:"createdAt"`
	UpdatedAt          time.Time                               `gorm:"not null" json:"updatedAt"`
}

func (UserCompetencyProgress) TableName() string { return "user_skills_dna_progress" }

func (p *UserCompetencyProgress) BeforeSave(tx *gorm.DB) error {
	if p.AssessmentHistory == nil {
		p.AssessmentHistory = datatypes.JSONSlice[AssessmentSnapshot]{}
	}
	return nil
}

// ProgressWithCompetency is a progress row joined with its competency's metadata.
type ProgressWithCompetency struct {
	UserCompetencyProgress
	CompetencyName        string `gorm:"column:competency_name" json:"competencyName"`
	CompetencyCategory    string `gorm:"column:competency_category" json:"competencyCategory"`
	CompetencyDescription string `gorm:"column:competency_description" json:"competencyDescription"`
}
