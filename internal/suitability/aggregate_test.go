package suitability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Observations with known default-preference scores.
func ideal(date string) DailyObservation { // 100
	return DailyObservation{Date: date, Temperature: Present(22), Precipitation: Present(0), Wind: Present(2)}
}

func rainy(date string) DailyObservation { // 54
	return DailyObservation{Date: date, Temperature: Present(22), Precipitation: Present(15), Wind: Present(2)}
}

func noTemp(date string) DailyObservation { // 86
	return DailyObservation{Date: date, Temperature: Missing(), Precipitation: Present(0), Wind: Present(2)}
}

func breezy(date string) DailyObservation { // 91
	return DailyObservation{Date: date, Temperature: Present(22), Precipitation: Present(0), Wind: Present(4)}
}

func intp(v int) *int { return &v }

func TestSummarize(t *testing.T) {
	obs := []DailyObservation{ideal("2020-07-04"), rainy("2021-07-04"), noTemp("2022-07-04")}

	stats := Summarize(obs, PreferenceConfig{})

	assert.Equal(t, SummaryStats{
		AvgScore:      80,
		MaxScore:      100,
		MinScore:      54,
		GoodYears:     2,
		TotalYears:    3,
		PercentGood:   67,
		YearsWithRain: 1,
		AvgTemp:       22,
		AvgRain:       5,
		AvgWind:       2,
	}, stats)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, SummaryStats{}, Summarize(nil, PreferenceConfig{}))
	assert.Equal(t, SummaryStats{}, Summarize([]DailyObservation{}, PreferenceConfig{}))
}

func TestSummarize_AllMissingMeasurements(t *testing.T) {
	obs := []DailyObservation{{Date: "2020-07-04"}, {Date: "2021-07-04"}}

	stats := Summarize(obs, PreferenceConfig{})

	assert.Equal(t, 2, stats.TotalYears)
	assert.Equal(t, 0.0, stats.AvgTemp)
	assert.Equal(t, 0.0, stats.AvgRain)
	assert.Equal(t, 0.0, stats.AvgWind)
	assert.Equal(t, 0, stats.YearsWithRain)
	// 0.5 on every criterion.
	assert.Equal(t, ToSuitabilityScore(0.5), stats.AvgScore)
}

func TestSummarize_RoundsMeansToOneDecimal(t *testing.T) {
	obs := []DailyObservation{
		{Date: "2020-01-01", Temperature: Present(1.04), Precipitation: Present(1.01), Wind: Present(3.33)},
		{Date: "2021-01-01", Temperature: Present(2.0), Precipitation: Missing(), Wind: Present(3.33)},
	}

	stats := Summarize(obs, PreferenceConfig{})

	assert.InDelta(t, 1.5, stats.AvgTemp, 1e-9)
	assert.InDelta(t, 1.0, stats.AvgRain, 1e-9)
	assert.InDelta(t, 3.3, stats.AvgWind, 1e-9)
	assert.Equal(t, 1, stats.YearsWithRain)
}

func TestTrend(t *testing.T) {
	obs := []DailyObservation{
		ideal("2019-07-04"),
		rainy("2018-07-04"),
		noTemp("2019-07-04"), // same year, replaces the ideal day
		{Date: "not-a-date", Temperature: Present(22)},
	}

	points := Trend(obs, PreferenceConfig{})

	require.Len(t, points, 2)
	assert.Equal(t, 2018, points[0].Year)
	assert.Equal(t, 54, points[0].Score)
	require.NotNil(t, points[0].AvgTemp)
	assert.Equal(t, 22.0, *points[0].AvgTemp)

	assert.Equal(t, 2019, points[1].Year)
	assert.Equal(t, 86, points[1].Score)
	assert.Nil(t, points[1].AvgTemp)
}

func TestTrend_Empty(t *testing.T) {
	points := Trend(nil, PreferenceConfig{})
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestFindBetterDates(t *testing.T) {
	all := []DailyObservation{
		ideal("2024-06-30"), // other month
		ideal("2023-07-01"), // other year
		ideal("2024-07-01"),
		noTemp("2024-07-02"),
		breezy("2024-07-03"),
		rainy("2024-07-04"), // target
		rainy("2024-07-05"), // ties the target, not better
	}

	got := FindBetterDates(all, "2024-07-04", PreferenceConfig{}, 3)

	assert.Equal(t, []AlternativeDate{
		{Date: "2024-07-01", Score: 100, ImprovementPercent: intp(85)},
		{Date: "2024-07-03", Score: 91, ImprovementPercent: intp(69)},
		{Date: "2024-07-02", Score: 86, ImprovementPercent: intp(59)},
	}, got)
}

func TestFindBetterDates_Truncates(t *testing.T) {
	all := []DailyObservation{ideal("2024-07-01"), noTemp("2024-07-02"), breezy("2024-07-03"), rainy("2024-07-04")}

	got := FindBetterDates(all, "2024-07-04", PreferenceConfig{}, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "2024-07-01", got[0].Date)
	assert.Equal(t, "2024-07-03", got[1].Date)
}

func TestFindBetterDates_DefaultLimit(t *testing.T) {
	all := []DailyObservation{
		ideal("2024-07-01"), ideal("2024-07-02"), ideal("2024-07-03"),
		ideal("2024-07-05"), rainy("2024-07-04"),
	}

	for _, limit := range []int{0, -1} {
		got := FindBetterDates(all, "2024-07-04", PreferenceConfig{}, limit)
		assert.Len(t, got, DefaultMaxAlternatives, "limit %d", limit)
	}
}

func TestFindBetterDates_StableOnTies(t *testing.T) {
	all := []DailyObservation{
		ideal("2024-07-09"), breezy("2024-07-02"), ideal("2024-07-01"), rainy("2024-07-04"),
	}

	got := FindBetterDates(all, "2024-07-04", PreferenceConfig{}, 3)

	require.Len(t, got, 3)
	assert.Equal(t, "2024-07-09", got[0].Date)
	assert.Equal(t, "2024-07-01", got[1].Date)
	assert.Equal(t, "2024-07-02", got[2].Date)
}

func TestFindBetterDates_NoTarget(t *testing.T) {
	all := []DailyObservation{ideal("2024-07-01"), rainy("2024-07-04")}

	assert.Empty(t, FindBetterDates(all, "2024-07-10", PreferenceConfig{}, 3))
	assert.Empty(t, FindBetterDates(all, "07/04/2024", PreferenceConfig{}, 3))
	assert.Empty(t, FindBetterDates(nil, "2024-07-04", PreferenceConfig{}, 3))
}

func TestFindBetterDates_NothingBetter(t *testing.T) {
	all := []DailyObservation{rainy("2024-07-01"), ideal("2024-07-04")}

	got := FindBetterDates(all, "2024-07-04", PreferenceConfig{}, 3)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBetterThan_ImprovementPercent(t *testing.T) {
	candidates := []ScoredDay{
		{ScoreBreakdown: ScoreBreakdown{Date: "2024-07-01"}, Score: 50},
		{ScoreBreakdown: ScoreBreakdown{Date: "2024-07-02"}, Score: 60},
		{ScoreBreakdown: ScoreBreakdown{Date: "2024-07-03"}, Score: 30},
	}

	got := betterThan(40, candidates, 3)

	assert.Equal(t, []AlternativeDate{
		{Date: "2024-07-02", Score: 60, ImprovementPercent: intp(50)},
		{Date: "2024-07-01", Score: 50, ImprovementPercent: intp(25)},
	}, got)
}

func TestBetterThan_ZeroBaselineIsUnbounded(t *testing.T) {
	candidates := []ScoredDay{{ScoreBreakdown: ScoreBreakdown{Date: "2024-07-01"}, Score: 12}}

	got := betterThan(0, candidates, 3)

	require.Len(t, got, 1)
	assert.Equal(t, 12, got[0].Score)
	assert.Nil(t, got[0].ImprovementPercent)
}
