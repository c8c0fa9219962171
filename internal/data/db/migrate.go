package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureProgressIndexes(db)
}

// EnsureProgressIndexes adds the read-path indexes AutoMigrate cannot express.
func EnsureProgressIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_user_skills_dna_progress_user_updated",
			sql:  `CREATE INDEX IF NOT EXISTS idx_user_skills_dna_progress_user_updated ON user_skills_dna_progress (user_id, updated_at);`,
		},
		{
			name: "idx_skills_dna_category_name",
			sql:  `CREATE INDEX IF NOT EXISTS idx_skills_dna_category_name ON skills_dna (category, name);`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
