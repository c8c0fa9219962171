package repos

import (
	"github.com/yungbote/skillsdna-backend/internal/data/repos/learning"
	"github.com/yungbote/skillsdna-backend/internal/data/repos/skills"
	"github.com/yungbote/skillsdna-backend/internal/data/repos/user"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type CourseRepo = learning.CourseRepo
type CourseModuleRepo = learning.CourseModuleRepo

type CompetencyRepo = skills.CompetencyRepo
type ModuleLinkRepo = skills.ModuleLinkRepo
type ProgressRepo = skills.ProgressRepo

// Set bundles every table-level repo so wiring code can pass them around as one value.
type Set struct {
	Users       UserRepo
	Courses     CourseRepo
	Modules     CourseModuleRepo
	Competency  CompetencyRepo
	ModuleLinks ModuleLinkRepo
	Progress    ProgressRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Users:       user.NewUserRepo(db, log),
		Courses:     learning.NewCourseRepo(db, log),
		Modules:     learning.NewCourseModuleRepo(db, log),
		Competency:  skills.NewCompetencyRepo(db, log),
		ModuleLinks: skills.NewModuleLinkRepo(db, log),
		Progress:    skills.NewProgressRepo(db, log),
	}
}
