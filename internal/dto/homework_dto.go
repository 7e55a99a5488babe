package dto

import (
	"time"

	"github.com/evalhub/gradehub-api/internal/models"
)

// HomeworkCreateRequest describes the payload for registering a homework.
type HomeworkCreateRequest struct {
	Name        string         `json:"name" validate:"required,min=1,max=255"`
	Title       string         `json:"title" validate:"omitempty,max=255"`
	Description string         `json:"description"`
	Settings    map[string]any `json:"settings"`
}

// HomeworkUpdateRequest updates homework metadata and settings.
type HomeworkUpdateRequest struct {
	Title       *string        `json:"title" validate:"omitempty,max=255"`
	Description *string        `json:"description"`
	Settings    map[string]any `json:"settings"`
}

// CheckUpsertRequest adds or replaces one check on a homework.
type CheckUpsertRequest struct {
	Name           string         `json:"name" validate:"required,min=1,max=255"`
	Description    string         `json:"description"`
	Kind           string         `json:"kind" validate:"required,min=1,max=32"`
	Params         map[string]any `json:"params"`
	Points         float64        `json:"points" validate:"required,gt=0"`
	TimeoutSeconds int            `json:"timeout_seconds" validate:"omitempty,gte=0,lte=3600"`
}

// CheckSpecResponse serializes a stored check definition.
type CheckSpecResponse struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Kind           string         `json:"kind"`
	Params         map[string]any `json:"params"`
	Points         float64        `json:"points"`
	TimeoutSeconds int            `json:"timeout_seconds"`
	Position       int            `json:"position"`
}

// HomeworkResponse serializes a homework with its ordered checks.
type HomeworkResponse struct {
	Name        string              `json:"name"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	MaxScore    float64             `json:"max_score"`
	Settings    map[string]any      `json:"settings"`
	Checks      []CheckSpecResponse `json:"checks"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewHomeworkResponse converts a Homework model into a DTO.
func NewHomeworkResponse(model models.Homework) HomeworkResponse {
	checks := make([]CheckSpecResponse, 0, len(model.Checks))
	for _, check := range model.Checks {
		checks = append(checks, CheckSpecResponse{
			Name:           check.Name,
			Description:    check.Description,
			Kind:           check.Kind,
			Params:         check.Params,
			Points:         check.Points,
			TimeoutSeconds: check.TimeoutSeconds,
			Position:       check.Position,
		})
	}

	return HomeworkResponse{
		Name:        model.Name,
		Title:       model.Title,
		Description: model.Description,
		MaxScore:    model.MaxScore,
		Settings:    model.EffectiveSettings(),
		Checks:      checks,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewHomeworkResponseSlice converts homework models into DTOs.
func NewHomeworkResponseSlice(homeworks []models.Homework) []HomeworkResponse {
	responses := make([]HomeworkResponse, 0, len(homeworks))
	for _, homework := range homeworks {
		responses = append(responses, NewHomeworkResponse(homework))
	}

	return responses
}
