package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCronSchedule(t *testing.T) {
	valid := []string{
		"0 0 * * *",
		"30 4 * * *",
		"0 */6 * * *",
		"30 9 * * 1-5",
		"*/5 * * * *",
		"15,45 */2 * * 1,3,5",
	}
	for _, s := range valid {
		assert.NoError(t, ValidateCronSchedule(s), s)
	}

	invalid := []string{
		"",
		"not a schedule",
		"60 0 * * *",
		"0 24 * * *",
		"0 0 * *",
		"@reboot something",
	}
	for _, s := range invalid {
		assert.Error(t, ValidateCronSchedule(s), s)
	}
}

func TestValidateTimezone(t *testing.T) {
	for _, tz := range []string{"UTC", "America/New_York", "Europe/London", "Asia/Tokyo"} {
		assert.NoError(t, ValidateTimezone(tz), tz)
	}
	for _, tz := range []string{"", "Mars/Olympus_Mons", "+09:00", "utc "} {
		assert.Error(t, ValidateTimezone(tz), tz)
	}
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, ValidateDuration(30*time.Second, time.Second, time.Minute))
	assert.NoError(t, ValidateDuration(time.Second, time.Second, time.Minute), "min is inclusive")
	assert.NoError(t, ValidateDuration(time.Minute, time.Second, time.Minute), "max is inclusive")
	assert.Error(t, ValidateDuration(500*time.Millisecond, time.Second, time.Minute))
	assert.Error(t, ValidateDuration(2*time.Minute, time.Second, time.Minute))
	assert.Error(t, ValidateDuration(time.Second, time.Minute, time.Second), "inverted range")
}

func TestValidateIntRange(t *testing.T) {
	assert.NoError(t, ValidateIntRange(50, 1, 100))
	assert.NoError(t, ValidateIntRange(1, 1, 100), "min is inclusive")
	assert.NoError(t, ValidateIntRange(100, 1, 100), "max is inclusive")
	assert.Error(t, ValidateIntRange(0, 1, 100))
	assert.Error(t, ValidateIntRange(101, 1, 100))
	assert.Error(t, ValidateIntRange(5, 100, 1), "inverted range")
}

func TestValidatePositiveDuration(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.NoError(t, ValidatePositiveDuration(time.Hour))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.Error(t, ValidatePositiveDuration(-time.Second))
}
