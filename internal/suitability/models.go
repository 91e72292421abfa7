package suitability

import (
	"bytes"
	"encoding/json"
	"math"
)

// Measurement is an optional climate reading. The zero value is missing.
type Measurement struct {
	value   float64
	present bool
}

// Present returns a measurement holding v.
func Present(v float64) Measurement {
	return Measurement{value: v, present: true}
}

// Missing returns a measurement with no value.
func Missing() Measurement {
	return Measurement{}
}

// Value returns the reading and whether it is usable. Non-finite readings
// report ok=false, the same as a missing one.
func (m Measurement) Value() (float64, bool) {
	if !m.present || math.IsNaN(m.value) || math.IsInf(m.value, 0) {
		return 0, false
	}
	return m.value, true
}

// MarshalJSON encodes a missing measurement as null.
func (m Measurement) MarshalJSON() ([]byte, error) {
	v, ok := m.Value()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON accepts a number or null.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Missing()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Present(v)
	return nil
}

// DailyObservation is one calendar day of climate readings at a fixed location.
type DailyObservation struct {
	Date          string      `json:"date"`          // YYYY-MM-DD
	Temperature   Measurement `json:"temperature"`   // mean 2m air temperature, °C
	Precipitation Measurement `json:"precipitation"` // corrected precipitation, mm/day
	Wind          Measurement `json:"wind"`          // 2m wind speed, m/s

	TempMax  Measurement `json:"tempMax"`
	TempMin  Measurement `json:"tempMin"`
	Humidity Measurement `json:"humidity"` // relative humidity, %
	Pressure Measurement `json:"pressure"` // surface pressure, kPa
}

// ScoreBreakdown holds the per-criterion scores for one observation. All
// values are within [0, 1].
type ScoreBreakdown struct {
	Date      string  `json:"date"`
	RainScore float64 `json:"rainScore"`
	WindScore float64 `json:"windScore"`
	TempScore float64 `json:"tempScore"`
	Combined  float64 `json:"combined"`
}

// ScoredDay is a breakdown with its 0-100 suitability score attached.
type ScoredDay struct {
	ScoreBreakdown
	Score int `json:"score"`
}

// SummaryStats summarizes the same calendar date across several years.
type SummaryStats struct {
	AvgScore      int     `json:"avgScore"`
	MaxScore      int     `json:"maxScore"`
	MinScore      int     `json:"minScore"`
	GoodYears     int     `json:"goodYears"`
	TotalYears    int     `json:"totalYears"`
	PercentGood   int     `json:"percentGood"`
	YearsWithRain int     `json:"yearsWithRain"`
	AvgTemp       float64 `json:"avgTemp"`
	AvgRain       float64 `json:"avgRain"`
	AvgWind       float64 `json:"avgWind"`
}

// TrendPoint is one year's score for a fixed calendar date. AvgTemp is that
// day's own temperature reading, nil when missing.
type TrendPoint struct {
	Year    int      `json:"year"`
	Score   int      `json:"score"`
	AvgTemp *float64 `json:"avgTemp"`
}

// AlternativeDate is a same-month day that scored better than the target.
// ImprovementPercent is nil when the target scored 0 and the relative
// improvement is unbounded.
type AlternativeDate struct {
	Date               string `json:"date"`
	Score              int    `json:"score"`
	ImprovementPercent *int   `json:"improvementPercent"`
}
