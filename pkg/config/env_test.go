package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	assert.Equal(t, "value", GetEnvString("TEST_STR", "fallback"))
	assert.Equal(t, "fallback", GetEnvString("TEST_STR_UNSET", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "8080")
	assert.Equal(t, 8080, GetEnvInt("TEST_INT", 9090))
	assert.Equal(t, 9090, GetEnvInt("TEST_INT_UNSET", 9090))

	t.Setenv("TEST_INT", "not a number")
	assert.Equal(t, 9090, GetEnvInt("TEST_INT", 9090))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "45s")
	assert.Equal(t, 45*time.Second, GetEnvDuration("TEST_DUR", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDuration("TEST_DUR_UNSET", time.Minute))

	t.Setenv("TEST_DUR", "soon")
	assert.Equal(t, time.Minute, GetEnvDuration("TEST_DUR", time.Minute))

	t.Setenv("TEST_DUR", "-5s")
	assert.Equal(t, time.Minute, GetEnvDuration("TEST_DUR", time.Minute))
}

func TestValidatePositiveDuration(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Second))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.Error(t, ValidatePositiveDuration(-time.Second))
}

func TestValidateDurationRange(t *testing.T) {
	assert.NoError(t, ValidateDurationRange(30*time.Minute, time.Minute, time.Hour))
	assert.NoError(t, ValidateDurationRange(time.Minute, time.Minute, time.Hour))
	assert.Error(t, ValidateDurationRange(time.Second, time.Minute, time.Hour))
	assert.Error(t, ValidateDurationRange(2*time.Hour, time.Minute, time.Hour))
	assert.Error(t, ValidateDurationRange(time.Minute, time.Hour, time.Minute))
}
