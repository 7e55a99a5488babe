package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Homework represents a gradeable homework definition with its ordered checks.
type Homework struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Title       string            `gorm:"size:255" json:"title"`
	Description string            `gorm:"type:text" json:"description"`
	MaxScore    float64           `gorm:"not null;default:0" json:"max_score"`
	Settings    datatypes.JSONMap `gorm:"type:json" json:"settings"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Checks      []CheckSpec       `gorm:"foreignKey:HomeworkID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"checks"`
}

// Homework setting keys.
const (
	SettingAllowLate     = "allow_late"
	SettingTimeLimit     = "time_limit"
	SettingPartialCredit = "partial_credit"
	SettingDueAt         = "due_at"
)

// DefaultSettings returns the settings applied to a homework that has not
// overridden any of them.
func DefaultSettings() datatypes.JSONMap {
	return datatypes.JSONMap{
		SettingAllowLate:     true,
		SettingTimeLimit:     float64(30),
		SettingPartialCredit: true,
	}
}

// EffectiveSettings merges the stored overrides over the defaults.
func (h Homework) EffectiveSettings() datatypes.JSONMap {
	merged := DefaultSettings()
	for key, value := range h.Settings {
		merged[key] = value
	}
	return merged
}

// RecomputeMaxScore keeps MaxScore equal to the sum of the check points.
func (h *Homework) RecomputeMaxScore() {
	total := 0.0
	for _, check := range h.Checks {
		total += check.Points
	}
	h.MaxScore = total
}

// TimeLimit returns the per-check time limit from the settings.
func (h Homework) TimeLimit() time.Duration {
	if seconds, ok := numericSetting(h.EffectiveSettings()[SettingTimeLimit]); ok && seconds > 0 {
		return time.Duration(seconds * float64(time.Second))
	}
	return 30 * time.Second
}

// AllowsLate reports whether late submissions are accepted.
func (h Homework) AllowsLate() bool {
	settings := h.EffectiveSettings()
	if allow, ok := settings[SettingAllowLate].(bool); ok {
		return allow
	}
	return true
}

// DueAt returns the submission deadline when one is configured. The setting is
// stored as an RFC 3339 string.
func (h Homework) DueAt() (time.Time, bool) {
	raw, ok := h.EffectiveSettings()[SettingDueAt].(string)
	if !ok {
		return time.Time{}, false
	}
	due, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return due, true
}

// numericSetting accepts float64 from fresh payloads and json.Number from
// settings rescanned out of the JSON column.
func numericSetting(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
