package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestHomeworkDueAt(t *testing.T) {
	deadline := time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)

	homework := Homework{Settings: datatypes.JSONMap{SettingDueAt: deadline.Format(time.RFC3339)}}
	due, ok := homework.DueAt()
	require.True(t, ok)
	assert.True(t, due.Equal(deadline))

	_, ok = Homework{}.DueAt()
	assert.False(t, ok, "no deadline configured")

	_, ok = Homework{Settings: datatypes.JSONMap{SettingDueAt: "next tuesday"}}.DueAt()
	assert.False(t, ok, "malformed deadline is treated as absent")
}

func TestHomeworkAllowsLateDefaultsTrue(t *testing.T) {
	assert.True(t, Homework{}.AllowsLate())
	assert.False(t, Homework{Settings: datatypes.JSONMap{SettingAllowLate: false}}.AllowsLate())
}

func TestHomeworkTimeLimitAcceptsRescannedNumbers(t *testing.T) {
	fresh := Homework{Settings: datatypes.JSONMap{SettingTimeLimit: float64(5)}}
	assert.Equal(t, 5*time.Second, fresh.TimeLimit())

	rescanned := Homework{Settings: datatypes.JSONMap{SettingTimeLimit: json.Number("5")}}
	assert.Equal(t, 5*time.Second, rescanned.TimeLimit())

	assert.Equal(t, 30*time.Second, Homework{}.TimeLimit())
}
