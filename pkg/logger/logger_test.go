package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/pkg/logger"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestNew_JSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Service: "crm-api", Output: &buf})

	log.Component("scheduler").Info().Str("job", "stalled_digest").Msg("job programado")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "crm-api", entry["service"])
	assert.Equal(t, "scheduler", entry["component"])
	assert.Equal(t, "stalled_digest", entry["job"])
	assert.Equal(t, "info", entry["level"])
}

func TestWithRequest(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Output: &buf})

	log.WithRequest("req-1", 7, "Sales Rep").Warn().Msg("acceso denegado")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.EqualValues(t, 7, entry["user_id"])
	assert.Equal(t, "Sales Rep", entry["role"])
}

func TestNivel(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
	}{
		{"debug", true},
		{"WARN", false},
		{"", false},
		{"desconocido", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(logger.Config{Env: "production", Level: tt.level, Output: &buf})
			log.Debug().Msg("detalle")
			assert.Equal(t, tt.debugSeen, buf.Len() > 0)
		})
	}
}

func TestNop_NoEscribe(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Nop().Component("x").WithRequest("r", 1, "Super Admin").Error().Msg("nada")
	})
}
