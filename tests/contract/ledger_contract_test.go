package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/evalhub/gradehub-api/internal/dto"
	"github.com/evalhub/gradehub-api/internal/handler"
)

type stubGradingService struct{}

func (stubGradingService) GradeAndRecord(context.Context, string, dto.GradeSubmissionRequest) (dto.GradedSubmissionResponse, error) {
	return dto.GradedSubmissionResponse{}, nil
}

func (stubGradingService) GetSubmission(context.Context, string) (dto.GradedSubmissionResponse, error) {
	return dto.GradedSubmissionResponse{}, nil
}

func (stubGradingService) History(context.Context, string, string) ([]dto.GradedSubmissionResponse, error) {
	return nil, nil
}

type stubLedgerService struct {
	ledger dto.LedgerResponse
}

func (s stubLedgerService) GetLedger(context.Context, string) (dto.LedgerResponse, error) {
	return s.ledger, nil
}

func (s stubLedgerService) GetLearner(context.Context, string, string) (dto.LearnerGradeResponse, error) {
	return dto.LearnerGradeResponse{}, nil
}

type stubStatsService struct{}

func (stubStatsService) GetStats(context.Context, string) (dto.StatsResponse, error) {
	return dto.StatsResponse{}, nil
}

type stubExportService struct{}

func (stubExportService) ExportCSV(context.Context, string) ([]byte, error)  { return nil, nil }
func (stubExportService) ExportJSON(context.Context, string) ([]byte, error) { return nil, nil }

func TestLedgerContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "ledger.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	ledger := dto.LedgerResponse{
		HomeworkName: "physics-1",
		MaxScore:     25,
		Learners: []dto.LearnerGradeResponse{
			{
				LearnerID:       "alice",
				SubmissionCount: 3,
				BestScore:       22.5,
				BestSubmission: &dto.GradedSubmissionResponse{
					ID:           "3f6a1c2e-9f0b-4d7a-8a21-5d2c4e9b7f10",
					HomeworkName: "physics-1",
					LearnerID:    "alice",
					SubmittedAt:  now,
					TotalScore:   22.5,
					MaxScore:     25,
					Percentage:   90,
					Results: []dto.CheckResultResponse{
						{
							CheckName:       "free_fall",
							PointsPossible:  10,
							PointsEarned:    10,
							Status:          "PASS",
							Feedback:        "",
							ExecutionTimeMS: 0.4,
						},
						{
							CheckName:       "unit_label",
							PointsPossible:  15,
							PointsEarned:    12.5,
							Status:          "PARTIAL",
							Feedback:        "close but not exact",
							ExecutionTimeMS: 0.2,
						},
					},
				},
			},
			{
				LearnerID:       "bob",
				SubmissionCount: 1,
				BestScore:       5,
			},
		},
	}

	gradingHandler := handler.NewGradingHandler(
		stubGradingService{},
		stubLedgerService{ledger: ledger},
		stubStatsService{},
		stubExportService{},
		zerolog.Nop(),
	)

	app := fiber.New()
	group := app.Group("/api/v2/homeworks", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "instructor")
		return c.Next()
	})
	gradingHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/homeworks/physics-1/ledger", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
