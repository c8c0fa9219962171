package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.User {
	tb.Helper()
	u := &types.User{
		Username: username,
		Email:    username + "@example.com",
		Metadata: datatypes.JSONMap{},
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCompetency(tb testing.TB, ctx context.Context, tx *gorm.DB, name, category string, parentID *uint) *types.Competency {
	tb.Helper()
	c := &types.Competency{
		Name:                 name,
		Category:             category,
		Level:                "basic",
		ParentID:             parentID,
		BehavioralIndicators: datatypes.JSONSlice[string]{},
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed competency: %v", err)
	}
	return c
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Course {
	tb.Helper()
	c := &types.Course{Title: title}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uint, title string, orderIndex int) *types.CourseModule {
	tb.Helper()
	m := &types.CourseModule{CourseID: courseID, Title: title, OrderIndex: orderIndex}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedLink(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID, dnaID uint) *types.ModuleCompetencyLink {
	tb.Helper()
	l := &types.ModuleCompetencyLink{
		ModuleID:   moduleID,
		DNAID:      dnaID,
		Importance: 1,
		BloomLevel: skills.BloomKnowledge,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed link: %v", err)
	}
	return l
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, dnaID uint, progress float64) *types.UserCompetencyProgress {
	tb.Helper()
	now := time.Now().UTC()
	level := skills.LevelFor(progress)
	p := &types.UserCompetencyProgress{
		UserID:             userID,
		DNAID:              dnaID,
		CurrentLevel:       level,
		Progress:           progress,
		LastAssessmentDate: &now,
		AssessmentHistory: datatypes.JSONSlice[types.AssessmentSnapshot]{
			{Date: now, Level: level, Progress: progress, Source: "fixture"},
		},
		Version: 1,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}
