package logging

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewLogger tests the creation of a new JSON logger
func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{
			name:     "default log level (info)",
			logLevel: "",
		},
		{
			name:     "debug log level",
			logLevel: "debug",
		},
		{
			name:     "invalid log level defaults to info",
			logLevel: "invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.logLevel != "" {
				os.Setenv("LOG_LEVEL", tt.logLevel)
				defer os.Unsetenv("LOG_LEVEL")
			}

			logger := NewLogger()

			assert.NotNil(t, logger, "logger should not be nil")
		})
	}
}

// TestNewTextLogger tests the creation of a text logger
func TestNewTextLogger(t *testing.T) {
	logger := NewTextLogger()
	assert.NotNil(t, logger, "text logger should not be nil")
}

// TestWithFields tests attaching structured fields to a logger
func TestWithFields(t *testing.T) {
	base := slog.New(slog.NewTextHandler(os.Stderr, nil))

	logger := WithFields(base, map[string]interface{}{
		"component": "aggregator",
		"category":  "news",
	})

	require.NotNil(t, logger)
	assert.NotEqual(t, base, logger, "WithFields should return a derived logger")
}

// TestWithFields_Empty tests that an empty field map still yields a usable logger
func TestWithFields_Empty(t *testing.T) {
	base := slog.Default()
	logger := WithFields(base, map[string]interface{}{})
	require.NotNil(t, logger)
}

// TestLoggerContext tests storing and retrieving a logger via context
func TestLoggerContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		base := slog.New(slog.NewTextHandler(os.Stderr, nil))
		ctx := WithLogger(context.Background(), base)

		got := FromContext(ctx)
		assert.Equal(t, base, got, "FromContext should return the stored logger")
	})

	t.Run("missing logger falls back to default", func(t *testing.T) {
		got := FromContext(context.Background())
		assert.Equal(t, slog.Default(), got)
	})
}
