package models

import (
	"time"

	"gorm.io/datatypes"
)

// CheckSpec is the persisted definition of one scored check. The Kind plus
// Params document compiles into a runnable through the check registry.
type CheckSpec struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	HomeworkID     uint              `gorm:"not null;index" json:"homework_id"`
	Name           string            `gorm:"size:255;not null" json:"name"`
	Description    string            `gorm:"type:text" json:"description"`
	Kind           string            `gorm:"size:32;not null" json:"kind"`
	Params         datatypes.JSONMap `gorm:"type:json" json:"params"`
	Points         float64           `gorm:"not null" json:"points"`
	TimeoutSeconds int               `gorm:"not null;default:0" json:"timeout_seconds"`
	Position       int               `gorm:"not null;default:0" json:"position"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Timeout converts the stored limit, zero meaning "use the homework default".
func (c CheckSpec) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
