package weather

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/i474232898/parade-weather/internal/suitability"
)

var csvHeader = []string{"date", "T2M", "T2M_MAX", "T2M_MIN", "PRECTOTCORR", "WS2M", "RH2M", "PS"}

// ExportCSV writes history as CSV with one row per day, using the NASA POWER
// parameter names as headers. Missing readings are left empty. Nothing is
// written for an empty history.
func ExportCSV(w io.Writer, history []suitability.DailyObservation) error {
	if len(history) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range history {
		row := []string{
			o.Date,
			formatMeasurement(o.Temperature),
			formatMeasurement(o.TempMax),
			formatMeasurement(o.TempMin),
			formatMeasurement(o.Precipitation),
			formatMeasurement(o.Wind),
			formatMeasurement(o.Humidity),
			formatMeasurement(o.Pressure),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", o.Date, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatMeasurement(m suitability.Measurement) string {
	v, ok := m.Value()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
