package domain

import (
	"github.com/yungbote/skillsdna-backend/internal/domain/learning"
	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
	"github.com/yungbote/skillsdna-backend/internal/domain/user"
)

type User = user.User

type Course = learning.Course
type CourseModule = learning.CourseModule

type Competency = skills.Competency
type ModuleCompetencyLink = skills.ModuleCompetencyLink
type UserCompetencyProgress = skills.UserCompetencyProgress
type ProgressWithCompetency = skills.ProgressWithCompetency
type AssessmentSnapshot = skills.AssessmentSnapshot
type MasteryLevel = skills.MasteryLevel
type BloomLevel = skills.BloomLevel

// All returns every persisted model, in migration order.
func All() []any {
	return []any{
		&User{},
		&Course{},
		&CourseModule{},
		&Competency{},
		&ModuleCompetencyLink{},
		&UserCompetencyProgress{},
	}
}
