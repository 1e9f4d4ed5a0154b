package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/crm-api/internal/domain"
)

const dateLayout = "2006-01-02"

// ParseWindow interpreta dateFrom/dateTo (YYYY-MM-DD o RFC3339).
// Por defecto: últimos DefaultWindowDays días hasta now. Un dateTo sin hora incluye el día completo.
func ParseWindow(fromStr, toStr string, now time.Time) (Window, error) {
	w := Window{From: now.AddDate(0, 0, -DefaultWindowDays), To: now}

	if s := strings.TrimSpace(fromStr); s != "" {
		t, _, err := parseDate(s, now.Location())
		if err != nil {
			return Window{}, domain.NewValidationError("dateFrom", fmt.Sprintf("dateFrom inválido: %q", s))
		}
		w.From = t
	}
	if s := strings.TrimSpace(toStr); s != "" {
		t, dateOnly, err := parseDate(s, now.Location())
		if err != nil {
			return Window{}, domain.NewValidationError("dateTo", fmt.Sprintf("dateTo inválido: %q", s))
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		w.To = t
	}
	if w.From.After(w.To) {
		return Window{}, domain.NewValidationError("dateFrom", "dateFrom no puede ser posterior a dateTo")
	}
	return w, nil
}

func parseDate(s string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}
