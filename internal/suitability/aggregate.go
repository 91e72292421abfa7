package suitability

import (
	"math"
	"sort"
	"time"
)

const (
	// GoodScore is the suitability score at or above which a year counts as good.
	GoodScore = 70
	// RainyDayMm is the precipitation above which a day counts as rainy.
	RainyDayMm = 1.0
	// DefaultMaxAlternatives bounds FindBetterDates when no limit is given.
	DefaultMaxAlternatives = 3

	dateLayout = "2006-01-02"
)

// Summarize computes summary statistics over obs, typically one calendar
// date across several years. Empty input yields the zero SummaryStats.
func Summarize(obs []DailyObservation, prefs PreferenceConfig) SummaryStats {
	if len(obs) == 0 {
		return SummaryStats{}
	}

	days := ScoreMany(obs, prefs)

	stats := SummaryStats{
		MaxScore:   days[0].Score,
		MinScore:   days[0].Score,
		TotalYears: len(days),
	}
	sum := 0
	for _, d := range days {
		sum += d.Score
		stats.MaxScore = max(stats.MaxScore, d.Score)
		stats.MinScore = min(stats.MinScore, d.Score)
		if d.Score >= GoodScore {
			stats.GoodYears++
		}
	}
	stats.AvgScore = int(math.Round(float64(sum) / float64(len(days))))
	stats.PercentGood = int(math.Round(100 * float64(stats.GoodYears) / float64(stats.TotalYears)))

	var temp, rain, wind mean
	for _, o := range obs {
		temp.add(o.Temperature)
		wind.add(o.Wind)
		if rain.add(o.Precipitation) > RainyDayMm {
			stats.YearsWithRain++
		}
	}
	stats.AvgTemp = round1(temp.value())
	stats.AvgRain = round1(rain.value())
	stats.AvgWind = round1(wind.value())

	return stats
}

// mean accumulates the finite values of a measurement.
type mean struct {
	sum float64
	n   int
}

// add records m if usable and returns its value, or NaN when it is missing.
func (a *mean) add(m Measurement) float64 {
	v, ok := m.Value()
	if !ok {
		return math.NaN()
	}
	a.sum += v
	a.n++
	return v
}

func (a mean) value() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

// Trend scores one observation per year, ascending by year. When several
// observations share a year the last one wins. Observations whose date does
// not parse are skipped.
func Trend(obs []DailyObservation, prefs PreferenceConfig) []TrendPoint {
	byYear := make(map[int]DailyObservation)
	for _, o := range obs {
		d, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			continue
		}
		byYear[d.Year()] = o
	}

	r := Resolve(prefs)
	points := make([]TrendPoint, 0, len(byYear))
	for year, o := range byYear {
		p := TrendPoint{
			Year:  year,
			Score: scoreDay(o, r).Score,
		}
		if t, ok := o.Temperature.Value(); ok {
			t = round1(t)
			p.AvgTemp = &t
		}
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })
	return points
}

// FindBetterDates looks for days in the same year and month as targetDate
// that score strictly higher than it. Results are ordered by score, highest
// first, with ties kept in input order, and capped at maxResults; a
// maxResults of zero or less means DefaultMaxAlternatives, not an empty
// result. An unknown target date yields no results.
func FindBetterDates(all []DailyObservation, targetDate string, prefs PreferenceConfig, maxResults int) []AlternativeDate {
	target, err := time.Parse(dateLayout, targetDate)
	if err != nil {
		return []AlternativeDate{}
	}

	r := Resolve(prefs)
	var (
		baseline  ScoredDay
		found     bool
		sameMonth []ScoredDay
	)
	for _, o := range all {
		if o.Date == targetDate {
			if !found {
				baseline, found = scoreDay(o, r), true
			}
			continue
		}
		d, err := time.Parse(dateLayout, o.Date)
		if err != nil || d.Year() != target.Year() || d.Month() != target.Month() {
			continue
		}
		sameMonth = append(sameMonth, scoreDay(o, r))
	}
	if !found {
		return []AlternativeDate{}
	}
	return betterThan(baseline.Score, sameMonth, maxResults)
}

// betterThan keeps candidates scoring above baseline, sorted descending and
// stable, truncated to maxResults.
func betterThan(baseline int, candidates []ScoredDay, maxResults int) []AlternativeDate {
	if maxResults <= 0 {
		maxResults = DefaultMaxAlternatives
	}

	out := make([]AlternativeDate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score <= baseline {
			continue
		}
		alt := AlternativeDate{Date: c.Date, Score: c.Score}
		if baseline > 0 {
			pct := int(math.Round(100 * float64(c.Score-baseline) / float64(baseline)))
			alt.ImprovementPercent = &pct
		}
		out = append(out, alt)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// round1 rounds half up to one decimal place.
func round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
