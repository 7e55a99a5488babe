package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/checks"
	"github.com/evalhub/gradehub-api/internal/dto"
	"github.com/evalhub/gradehub-api/internal/grader"
	"github.com/evalhub/gradehub-api/internal/models"
	"github.com/evalhub/gradehub-api/internal/observability"
	"github.com/evalhub/gradehub-api/internal/repository"
)

// ErrSubmissionNotFound indicates the graded submission was not located.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrNoChecks indicates the homework has no checks to grade against.
var ErrNoChecks = errors.New("homework has no checks defined")

// ErrLateSubmission indicates the homework deadline has passed and late
// submissions are disabled.
var ErrLateSubmission = errors.New("late submissions are not accepted")

// gradedSubject is the NATS subject graded-submission events publish on.
const gradedSubject = "gradehub.submissions.graded"

// GradingService runs the full grade-and-record pipeline: compile the
// homework's checks, execute them against the submission, persist the
// immutable record, and fold it into the grade ledger.
type GradingService interface {
	GradeAndRecord(ctx context.Context, homeworkName string, payload dto.GradeSubmissionRequest) (dto.GradedSubmissionResponse, error)
	GetSubmission(ctx context.Context, id string) (dto.GradedSubmissionResponse, error)
	History(ctx context.Context, homeworkName, learnerID string) ([]dto.GradedSubmissionResponse, error)
}

type gradingService struct {
	homeworks   repository.HomeworkRepository
	submissions repository.GradedSubmissionRepository
	ledger      repository.LedgerRepository
	registry    *checks.Registry
	engine      *grader.Engine
	cache       *redis.Client
	nats        *nats.Conn
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

type gradedEvent struct {
	Submission dto.GradedSubmissionResponse `json:"submission"`
	SentAt     time.Time                    `json:"sent_at"`
}

// NewGradingService constructs the grading pipeline service. The NATS
// connection and Redis client are optional; events and cache invalidation are
// skipped when absent.
func NewGradingService(
	homeworks repository.HomeworkRepository,
	submissions repository.GradedSubmissionRepository,
	ledger repository.LedgerRepository,
	registry *checks.Registry,
	engine *grader.Engine,
	cache *redis.Client,
	natsConn *nats.Conn,
	validate *validator.Validate,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		homeworks:   homeworks,
		submissions: submissions,
		ledger:      ledger,
		registry:    registry,
		engine:      engine,
		cache:       cache,
		nats:        natsConn,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/evalhub/gradehub-api/internal/service/grading"),
		now:         time.Now,
	}
}

func (s *gradingService) GradeAndRecord(ctx context.Context, homeworkName string, payload dto.GradeSubmissionRequest) (dto.GradedSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.grade_and_record", trace.WithAttributes(
		attribute.String("homework.name", homeworkName),
		attribute.String("learner.id", payload.LearnerID),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.GradedSubmissionResponse{}, err
	}

	homework, err := s.homeworks.GetByName(ctx, homeworkName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "homework_not_found")
			return dto.GradedSubmissionResponse{}, ErrHomeworkNotFound
		}
		span.RecordError(err)
		return dto.GradedSubmissionResponse{}, err
	}
	if len(homework.Checks) == 0 {
		span.SetStatus(codes.Error, "no_checks")
		return dto.GradedSubmissionResponse{}, ErrNoChecks
	}
	if due, hasDeadline := homework.DueAt(); hasDeadline && !homework.AllowsLate() && s.now().After(due) {
		span.SetStatus(codes.Error, "late_submission")
		return dto.GradedSubmissionResponse{}, ErrLateSubmission
	}

	compiled := s.compileChecks(homework)
	submission := grader.NewSubmission(payload.Artifacts)
	span.SetAttributes(attribute.Int("submission.artifacts", submission.Len()))

	start := s.now()
	record := s.engine.Grade(ctx, homework.Name, payload.LearnerID, compiled, submission)
	observability.GradingDuration().WithLabelValues(homework.Name).Observe(time.Since(start).Seconds())
	observability.SubmissionsGraded().WithLabelValues(homework.Name).Inc()

	for i, result := range record.Results {
		observability.CheckResults().WithLabelValues(result.Status).Inc()
		record.Results[i].Feedback = s.sanitizeFeedback(result.Feedback)
	}

	row := models.NewGradedSubmission(homework.ID, record, artifactSnapshot(payload.Artifacts))
	if err := s.submissions.Create(ctx, &row); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_persist_failed")
		return dto.GradedSubmissionResponse{}, err
	}

	if err := s.mergeLedger(ctx, homework, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger_merge_failed")
		return dto.GradedSubmissionResponse{}, err
	}

	s.invalidateStats(ctx, homework.Name)

	response := dto.NewGradedSubmissionResponse(record)
	s.publishGraded(response)

	s.logger.Info().
		Str("homework", homework.Name).
		Str("learner_id", payload.LearnerID).
		Str("submission_id", record.ID).
		Strs("artifacts", submission.Names()).
		Float64("total_score", record.TotalScore).
		Float64("max_score", record.MaxScore).
		Msg("submission graded")

	span.SetAttributes(
		attribute.Float64("grading.total_score", record.TotalScore),
		attribute.Float64("grading.max_score", record.MaxScore),
	)

	return response, nil
}

func (s *gradingService) GetSubmission(ctx context.Context, id string) (dto.GradedSubmissionResponse, error) {
	row, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradedSubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.GradedSubmissionResponse{}, err
	}

	return dto.NewGradedSubmissionResponseFromModel(row), nil
}

func (s *gradingService) History(ctx context.Context, homeworkName, learnerID string) ([]dto.GradedSubmissionResponse, error) {
	homework, err := s.homeworks.GetByName(ctx, homeworkName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHomeworkNotFound
		}
		return nil, err
	}

	rows, err := s.submissions.ListByLearner(ctx, homework.ID, learnerID)
	if err != nil {
		return nil, err
	}

	history := make([]dto.GradedSubmissionResponse, 0, len(rows))
	for _, row := range rows {
		history = append(history, dto.NewGradedSubmissionResponseFromModel(row))
	}
	return history, nil
}

// compileChecks resolves every check spec into a runnable. A spec that fails
// to compile keeps its slot with a runner that reports the compile error, so
// one broken definition never blocks the rest of the homework.
func (s *gradingService) compileChecks(homework models.Homework) []grader.Check {
	defaultTimeout := homework.TimeLimit()

	compiled := make([]grader.Check, 0, len(homework.Checks))
	for _, spec := range homework.Checks {
		timeout := spec.Timeout()
		if timeout <= 0 {
			timeout = defaultTimeout
		}

		check := grader.Check{
			Name:        spec.Name,
			Points:      spec.Points,
			Description: spec.Description,
			Timeout:     timeout,
		}

		runner, err := s.registry.Compile(spec.Kind, spec.Params)
		if err != nil {
			compileErr := fmt.Errorf("check %q does not compile: %w", spec.Name, err)
			s.logger.Warn().Err(err).Str("check", spec.Name).Str("kind", spec.Kind).Msg("stored check failed to compile")
			check.Run = func(ctx context.Context, submission grader.Submission) (any, error) {
				return nil, compileErr
			}
		} else {
			check.Run = runner
		}

		compiled = append(compiled, check)
	}
	return compiled
}

func (s *gradingService) mergeLedger(ctx context.Context, homework models.Homework, record grader.SubmissionRecord) error {
	entry, err := s.ledger.Get(ctx, homework.ID, record.LearnerID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry = models.LedgerEntry{HomeworkID: homework.ID, LearnerID: record.LearnerID}
	case err != nil:
		return err
	}

	if entry.Fold(record) {
		observability.BestScorePromotions().WithLabelValues(homework.Name).Inc()
	}

	return s.ledger.Save(ctx, &entry)
}

func (s *gradingService) sanitizeFeedback(feedback string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(feedback))
}

func (s *gradingService) invalidateStats(ctx context.Context, homeworkName string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey(homeworkName)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("homework", homeworkName).Msg("failed to invalidate stats cache")
	}
}

func (s *gradingService) publishGraded(response dto.GradedSubmissionResponse) {
	if s.nats == nil {
		return
	}

	payload, err := json.Marshal(gradedEvent{Submission: response, SentAt: s.now().UTC()})
	if err != nil {
		return
	}
	if err := s.nats.Publish(gradedSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish graded-submission event")
	}
}

// artifactSnapshot records what was submitted without storing the payloads
// themselves: content type plus size for text and binary artifacts, the Go
// type name for everything else.
func artifactSnapshot(artifacts map[string]any) datatypes.JSONMap {
	snapshot := datatypes.JSONMap{}
	for name, value := range artifacts {
		switch v := value.(type) {
		case string:
			snapshot[name] = fmt.Sprintf("%s, %d bytes", mimetype.Detect([]byte(v)).String(), len(v))
		case []byte:
			snapshot[name] = fmt.Sprintf("%s, %d bytes", mimetype.Detect(v).String(), len(v))
		default:
			snapshot[name] = fmt.Sprintf("%T", v)
		}
	}
	return snapshot
}
