package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/checks"
	"github.com/evalhub/gradehub-api/internal/dto"
	"github.com/evalhub/gradehub-api/internal/models"
	"github.com/evalhub/gradehub-api/internal/repository"
)

// ErrHomeworkNotFound indicates the homework was not located.
var ErrHomeworkNotFound = errors.New("homework not found")

// ErrHomeworkExists indicates the homework name is already registered.
var ErrHomeworkExists = errors.New("homework already exists")

// ErrCheckNotFound indicates the named check does not exist on the homework.
var ErrCheckNotFound = errors.New("check not found")

// ErrInvalidCheck indicates a check definition that cannot compile into a
// runnable, an unknown kind or bad parameters.
var ErrInvalidCheck = errors.New("invalid check definition")

// HomeworkService manages homework definitions and their checks. MaxScore is
// recomputed on every check mutation so it always equals the sum of points.
type HomeworkService interface {
	List(ctx context.Context) ([]dto.HomeworkResponse, error)
	Get(ctx context.Context, name string) (dto.HomeworkResponse, error)
	Create(ctx context.Context, payload dto.HomeworkCreateRequest) (dto.HomeworkResponse, error)
	Update(ctx context.Context, name string, payload dto.HomeworkUpdateRequest) (dto.HomeworkResponse, error)
	Delete(ctx context.Context, name string) error
	UpsertCheck(ctx context.Context, homeworkName string, payload dto.CheckUpsertRequest) (dto.HomeworkResponse, error)
	RemoveCheck(ctx context.Context, homeworkName, checkName string) (dto.HomeworkResponse, error)
	Reset(ctx context.Context, homeworkName string) error
}

type homeworkService struct {
	homeworks   repository.HomeworkRepository
	checks      repository.CheckRepository
	submissions repository.GradedSubmissionRepository
	ledger      repository.LedgerRepository
	registry    *checks.Registry
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewHomeworkService constructs the homework management service.
func NewHomeworkService(
	homeworks repository.HomeworkRepository,
	checkRepo repository.CheckRepository,
	submissions repository.GradedSubmissionRepository,
	ledger repository.LedgerRepository,
	registry *checks.Registry,
	validate *validator.Validate,
	logger zerolog.Logger,
) HomeworkService {
	return &homeworkService{
		homeworks:   homeworks,
		checks:      checkRepo,
		submissions: submissions,
		ledger:      ledger,
		registry:    registry,
		validator:   validate,
		logger:      logger.With().Str("component", "homework_service").Logger(),
		tracer:      otel.Tracer("github.com/evalhub/gradehub-api/internal/service/homework"),
		now:         time.Now,
	}
}

func (s *homeworkService) List(ctx context.Context) ([]dto.HomeworkResponse, error) {
	homeworks, err := s.homeworks.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewHomeworkResponseSlice(homeworks), nil
}

func (s *homeworkService) Get(ctx context.Context, name string) (dto.HomeworkResponse, error) {
	homework, err := s.load(ctx, name)
	if err != nil {
		return dto.HomeworkResponse{}, err
	}

	return dto.NewHomeworkResponse(homework), nil
}

func (s *homeworkService) Create(ctx context.Context, payload dto.HomeworkCreateRequest) (dto.HomeworkResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HomeworkResponse{}, err
	}

	if _, err := s.homeworks.GetByName(ctx, payload.Name); err == nil {
		return dto.HomeworkResponse{}, ErrHomeworkExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.HomeworkResponse{}, err
	}

	settings := models.DefaultSettings()
	for key, value := range payload.Settings {
		settings[key] = value
	}

	homework := models.Homework{
		Name:        payload.Name,
		Title:       payload.Title,
		Description: payload.Description,
		Settings:    settings,
	}
	if err := s.homeworks.Create(ctx, &homework); err != nil {
		return dto.HomeworkResponse{}, err
	}

	s.logger.Info().Str("homework", homework.Name).Msg("homework registered")

	return dto.NewHomeworkResponse(homework), nil
}

func (s *homeworkService) Update(ctx context.Context, name string, payload dto.HomeworkUpdateRequest) (dto.HomeworkResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HomeworkResponse{}, err
	}

	homework, err := s.load(ctx, name)
	if err != nil {
		return dto.HomeworkResponse{}, err
	}

	if payload.Title != nil {
		homework.Title = *payload.Title
	}
	if payload.Description != nil {
		homework.Description = *payload.Description
	}
	if payload.Settings != nil {
		if homework.Settings == nil {
			homework.Settings = datatypes.JSONMap{}
		}
		for key, value := range payload.Settings {
			homework.Settings[key] = value
		}
	}

	if err := s.homeworks.Update(ctx, &homework); err != nil {
		return dto.HomeworkResponse{}, err
	}

	return dto.NewHomeworkResponse(homework), nil
}

func (s *homeworkService) Delete(ctx context.Context, name string) error {
	homework, err := s.load(ctx, name)
	if err != nil {
		return err
	}

	if err := s.submissions.DeleteByHomework(ctx, homework.ID); err != nil {
		return err
	}
	if err := s.ledger.DeleteByHomework(ctx, homework.ID); err != nil {
		return err
	}
	if err := s.homeworks.Delete(ctx, name); err != nil {
		return err
	}

	s.logger.Info().Str("homework", name).Msg("homework deleted")
	return nil
}

func (s *homeworkService) UpsertCheck(ctx context.Context, homeworkName string, payload dto.CheckUpsertRequest) (dto.HomeworkResponse, error) {
	ctx, span := s.tracer.Start(ctx, "homework.upsert_check", trace.WithAttributes(
		attribute.String("homework.name", homeworkName),
		attribute.String("check.name", payload.Name),
		attribute.String("check.kind", payload.Kind),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.HomeworkResponse{}, err
	}

	// Compiling at definition time surfaces unknown kinds and malformed
	// parameters before any learner submits.
	if _, err := s.registry.Compile(payload.Kind, payload.Params); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "check_compile_failed")
		return dto.HomeworkResponse{}, fmt.Errorf("%w: %v", ErrInvalidCheck, err)
	}

	homework, err := s.load(ctx, homeworkName)
	if err != nil {
		span.RecordError(err)
		return dto.HomeworkResponse{}, err
	}

	params := datatypes.JSONMap(payload.Params)
	existing, err := s.checks.GetByName(ctx, homework.ID, payload.Name)
	switch {
	case err == nil:
		existing.Description = payload.Description
		existing.Kind = payload.Kind
		existing.Params = params
		existing.Points = payload.Points
		existing.TimeoutSeconds = payload.TimeoutSeconds
		if err := s.checks.Update(ctx, &existing); err != nil {
			span.RecordError(err)
			return dto.HomeworkResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		position, err := s.checks.NextPosition(ctx, homework.ID)
		if err != nil {
			span.RecordError(err)
			return dto.HomeworkResponse{}, err
		}
		check := models.CheckSpec{
			HomeworkID:     homework.ID,
			Name:           payload.Name,
			Description:    payload.Description,
			Kind:           payload.Kind,
			Params:         params,
			Points:         payload.Points,
			TimeoutSeconds: payload.TimeoutSeconds,
			Position:       position,
		}
		if err := s.checks.Create(ctx, &check); err != nil {
			span.RecordError(err)
			return dto.HomeworkResponse{}, err
		}
	default:
		span.RecordError(err)
		return dto.HomeworkResponse{}, err
	}

	return s.refreshMaxScore(ctx, homework.Name)
}

func (s *homeworkService) RemoveCheck(ctx context.Context, homeworkName, checkName string) (dto.HomeworkResponse, error) {
	homework, err := s.load(ctx, homeworkName)
	if err != nil {
		return dto.HomeworkResponse{}, err
	}

	if err := s.checks.Delete(ctx, homework.ID, checkName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HomeworkResponse{}, ErrCheckNotFound
		}
		return dto.HomeworkResponse{}, err
	}

	return s.refreshMaxScore(ctx, homework.Name)
}

func (s *homeworkService) Reset(ctx context.Context, homeworkName string) error {
	homework, err := s.load(ctx, homeworkName)
	if err != nil {
		return err
	}

	if err := s.submissions.DeleteByHomework(ctx, homework.ID); err != nil {
		return err
	}
	if err := s.ledger.DeleteByHomework(ctx, homework.ID); err != nil {
		return err
	}

	s.logger.Info().Str("homework", homeworkName).Msg("homework grades reset")
	return nil
}

// refreshMaxScore reloads the homework and persists the recomputed point sum.
func (s *homeworkService) refreshMaxScore(ctx context.Context, name string) (dto.HomeworkResponse, error) {
	homework, err := s.load(ctx, name)
	if err != nil {
		return dto.HomeworkResponse{}, err
	}

	homework.RecomputeMaxScore()
	if err := s.homeworks.Update(ctx, &homework); err != nil {
		return dto.HomeworkResponse{}, err
	}

	return dto.NewHomeworkResponse(homework), nil
}

func (s *homeworkService) load(ctx context.Context, name string) (models.Homework, error) {
	homework, err := s.homeworks.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Homework{}, ErrHomeworkNotFound
		}
		return models.Homework{}, err
	}
	return homework, nil
}
