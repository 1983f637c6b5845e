package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  Format
		wantErr bool
	}{
		{"console info", "info", FormatConsole, false},
		{"json debug", "DEBUG", FormatJSON, false},
		{"default format", "warn", "", false},
		{"bad level", "loud", FormatConsole, true},
		{"bad format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	logger, err := New("info", FormatJSON)
	require.NoError(t, err)
	assert.Same(t, logger, OrNop(logger))
}
