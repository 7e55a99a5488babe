package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/grader"
	"github.com/evalhub/gradehub-api/internal/models"
)

func setupGradingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Homework{},
		&models.CheckSpec{},
		&models.GradedSubmission{},
		&models.LedgerEntry{},
	))
	return db
}

func seedHomework(t *testing.T, db *gorm.DB, name string) models.Homework {
	t.Helper()
	homework := models.Homework{
		Name:     name,
		Title:    "Test Homework",
		Settings: models.DefaultSettings(),
		Checks: []models.CheckSpec{
			{Name: "q1", Kind: "equals", Points: 10, Position: 0},
			{Name: "q2", Kind: "numeric", Points: 15, Position: 1},
		},
	}
	homework.RecomputeMaxScore()
	require.NoError(t, db.Create(&homework).Error)
	return homework
}

func TestHomeworkRepositoryGetByNamePreloadsOrderedChecks(t *testing.T) {
	db := setupGradingTestDB(t)
	repo := NewHomeworkRepository(db)
	seedHomework(t, db, "hw-1")

	homework, err := repo.GetByName(context.Background(), "hw-1")
	require.NoError(t, err)
	require.Equal(t, 25.0, homework.MaxScore)
	require.Len(t, homework.Checks, 2)
	require.Equal(t, "q1", homework.Checks[0].Name)
	require.Equal(t, "q2", homework.Checks[1].Name)

	_, err = repo.GetByName(context.Background(), "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestHomeworkRepositoryDeleteUnknownName(t *testing.T) {
	db := setupGradingTestDB(t)
	repo := NewHomeworkRepository(db)

	err := repo.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCheckRepositoryPositionsAndDelete(t *testing.T) {
	db := setupGradingTestDB(t)
	repo := NewCheckRepository(db)
	homework := seedHomework(t, db, "hw-checks")

	next, err := repo.NextPosition(context.Background(), homework.ID)
	require.NoError(t, err)
	require.Equal(t, 2, next)

	require.NoError(t, repo.Create(context.Background(), &models.CheckSpec{
		HomeworkID: homework.ID,
		Name:       "q3",
		Kind:       "regex",
		Points:     5,
		Position:   next,
	}))

	checks, err := repo.ListByHomework(context.Background(), homework.ID)
	require.NoError(t, err)
	require.Len(t, checks, 3)
	require.Equal(t, "q3", checks[2].Name)

	require.NoError(t, repo.Delete(context.Background(), homework.ID, "q2"))
	require.ErrorIs(t, repo.Delete(context.Background(), homework.ID, "q2"), gorm.ErrRecordNotFound)

	require.NoError(t, repo.DeleteByHomework(context.Background(), homework.ID))
	next, err = repo.NextPosition(context.Background(), homework.ID)
	require.NoError(t, err)
	require.Equal(t, 0, next)
}

func TestGradedSubmissionRepositoryChronologicalHistory(t *testing.T) {
	db := setupGradingTestDB(t)
	repo := NewGradedSubmissionRepository(db)
	homework := seedHomework(t, db, "hw-subs")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, score := range []float64{15, 25, 20} {
		record := grader.SubmissionRecord{
			ID:             uuid.NewString(),
			HomeworkName:   homework.Name,
			LearnerID:      "alice",
			SubmissionTime: base.Add(time.Duration(i) * time.Hour),
			TotalScore:     score,
			MaxScore:       25,
			Percentage:     score / 25 * 100,
			Results: []grader.CheckResult{
				{CheckName: "q1", PointsPossible: 10, PointsEarned: score - 15, Status: grader.StatusPartial},
			},
		}
		row := models.NewGradedSubmission(homework.ID, record, nil)
		require.NoError(t, repo.Create(context.Background(), &row))
	}

	history, err := repo.ListByLearner(context.Background(), homework.ID, "alice")
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, 15.0, history[0].TotalScore)
	require.Equal(t, 25.0, history[1].TotalScore)
	require.Equal(t, 20.0, history[2].TotalScore)

	results := history[1].ResultList()
	require.Len(t, results, 1)
	require.Equal(t, "q1", results[0].CheckName)
	require.Equal(t, 10.0, results[0].PointsEarned)

	total, err := repo.CountByHomework(context.Background(), homework.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	require.NoError(t, repo.DeleteByHomework(context.Background(), homework.ID))
	total, err = repo.CountByHomework(context.Background(), homework.ID)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestLedgerRepositoryUpsertsPerLearner(t *testing.T) {
	db := setupGradingTestDB(t)
	repo := NewLedgerRepository(db)
	homework := seedHomework(t, db, "hw-ledger")

	_, err := repo.Get(context.Background(), homework.ID, "alice")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	entry := models.LedgerEntry{
		HomeworkID:       homework.ID,
		LearnerID:        "alice",
		BestScore:        15,
		BestSubmissionID: uuid.NewString(),
		SubmissionCount:  1,
	}
	require.NoError(t, repo.Save(context.Background(), &entry))

	entry.BestScore = 22
	entry.SubmissionCount = 2
	require.NoError(t, repo.Save(context.Background(), &entry))

	stored, err := repo.Get(context.Background(), homework.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, 22.0, stored.BestScore)
	require.Equal(t, 2, stored.SubmissionCount)

	require.NoError(t, repo.Save(context.Background(), &models.LedgerEntry{
		HomeworkID:       homework.ID,
		LearnerID:        "bob",
		BestScore:        10,
		BestSubmissionID: uuid.NewString(),
		SubmissionCount:  1,
	}))

	entries, err := repo.ListByHomework(context.Background(), homework.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "alice", entries[0].LearnerID)
	require.Equal(t, "bob", entries[1].LearnerID)
}
