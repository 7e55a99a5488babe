package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evalhub/gradehub-api/internal/grader"
	"github.com/evalhub/gradehub-api/internal/models"
)

func seedLedgerFixture(t *testing.T) (LedgerService, models.Homework) {
	t.Helper()
	homeworks := newFakeHomeworkRepo()
	submissions := &fakeSubmissionRepo{}
	ledger := newFakeLedgerRepo()

	homework := models.Homework{Name: "ledger-hw", MaxScore: 20, Settings: models.DefaultSettings()}
	require.NoError(t, homeworks.Create(context.Background(), &homework))

	best := models.NewGradedSubmission(homework.ID, grader.SubmissionRecord{
		ID:             "sub-best",
		HomeworkName:   homework.Name,
		LearnerID:      "alice",
		SubmissionTime: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		TotalScore:     18,
		MaxScore:       20,
		Percentage:     90,
		Results: []grader.CheckResult{
			{CheckName: "q1", PointsPossible: 20, PointsEarned: 18, Status: grader.StatusPartial},
		},
	}, nil)
	require.NoError(t, submissions.Create(context.Background(), &best))

	require.NoError(t, ledger.Save(context.Background(), &models.LedgerEntry{
		HomeworkID:       homework.ID,
		LearnerID:        "alice",
		BestScore:        18,
		BestSubmissionID: "sub-best",
		SubmissionCount:  3,
	}))
	require.NoError(t, ledger.Save(context.Background(), &models.LedgerEntry{
		HomeworkID:       homework.ID,
		LearnerID:        "bob",
		BestScore:        5,
		BestSubmissionID: "sub-gone",
		SubmissionCount:  1,
	}))

	return NewLedgerService(homeworks, submissions, ledger, testLogger()), homework
}

func TestLedgerServiceGetLedger(t *testing.T) {
	svc, _ := seedLedgerFixture(t)

	ledger, err := svc.GetLedger(context.Background(), "ledger-hw")
	require.NoError(t, err)
	require.Equal(t, "ledger-hw", ledger.HomeworkName)
	require.Equal(t, 20.0, ledger.MaxScore)
	require.Len(t, ledger.Learners, 2)

	alice := ledger.Learners[0]
	require.Equal(t, "alice", alice.LearnerID)
	require.Equal(t, 18.0, alice.BestScore)
	require.Equal(t, 3, alice.SubmissionCount)
	require.NotNil(t, alice.BestSubmission)
	require.Equal(t, "sub-best", alice.BestSubmission.ID)
	require.Len(t, alice.BestSubmission.Results, 1)

	// A dangling best-submission reference degrades to a summary-only entry.
	bob := ledger.Learners[1]
	require.Equal(t, "bob", bob.LearnerID)
	require.Nil(t, bob.BestSubmission)
}

func TestLedgerServiceGetLearner(t *testing.T) {
	svc, _ := seedLedgerFixture(t)

	alice, err := svc.GetLearner(context.Background(), "ledger-hw", "alice")
	require.NoError(t, err)
	require.Equal(t, 18.0, alice.BestScore)
	require.NotNil(t, alice.BestSubmission)

	_, err = svc.GetLearner(context.Background(), "ledger-hw", "zoe")
	require.ErrorIs(t, err, ErrLearnerNotFound)

	_, err = svc.GetLearner(context.Background(), "missing", "alice")
	require.ErrorIs(t, err, ErrHomeworkNotFound)
}
