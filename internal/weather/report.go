package weather

import (
	"time"

	"github.com/i474232898/parade-weather/internal/suitability"
)

const dateLayout = "2006-01-02"

// sameCalendarDay returns the observations that fall on month/day in any year.
// Rows with unparseable dates are skipped.
func sameCalendarDay(history []suitability.DailyObservation, month time.Month, day int) []suitability.DailyObservation {
	out := make([]suitability.DailyObservation, 0, 16)
	for _, o := range history {
		t, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			continue
		}
		if t.Month() == month && t.Day() == day {
			out = append(out, o)
		}
	}
	return out
}

// latestDate returns the greatest date among days. ISO dates sort lexically.
func latestDate(days []suitability.DailyObservation) (string, bool) {
	var latest string
	for _, d := range days {
		if d.Date > latest {
			latest = d.Date
		}
	}
	return latest, latest != ""
}
