package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/analytics"
	"github.com/jhoicas/crm-api/internal/domain"
)

func TestParseWindow_PorDefectoUltimos30Dias(t *testing.T) {
	w, err := analytics.ParseWindow("", "", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -30), w.From)
	assert.Equal(t, now, w.To)
}

func TestParseWindow_DateToSinHoraIncluyeElDia(t *testing.T) {
	w, err := analytics.ParseWindow("2026-01-01", "2026-01-31", now)
	require.NoError(t, err)
	assert.True(t, w.Contains(time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseWindow_RFC3339(t *testing.T) {
	w, err := analytics.ParseWindow("2026-01-01T10:00:00Z", "2026-01-02T10:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC), w.To.UTC())
}

func TestParseWindow_Invalida(t *testing.T) {
	_, err := analytics.ParseWindow("ayer", "", now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = analytics.ParseWindow("2026-02-01", "2026-01-01", now)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "dateFrom", ve.Field)
}
