// Package suitability scores historical daily climate observations against a
// user's preferred conditions and summarizes the results across years.
//
// Everything here is pure and deterministic. Callers own data acquisition and
// hand in fully materialized observations; missing readings are modeled with
// Measurement rather than provider sentinels.
package suitability

import "math"

// neutralScore is assigned to a criterion whose reading is missing.
const neutralScore = 0.5

// scoreCurve bends combined scores upward so mid-range days read less harshly.
const scoreCurve = 0.9

// ScoreOne scores a single observation against prefs.
func ScoreOne(obs DailyObservation, prefs PreferenceConfig) ScoreBreakdown {
	return scoreResolved(obs, Resolve(prefs))
}

func scoreResolved(obs DailyObservation, r Resolved) ScoreBreakdown {
	rain := pointScore(obs.Precipitation, r.RainTarget, r.HasRainTarget, r.RainTolerance, defaultRainTarget, defaultRainSpread)
	wind := pointScore(obs.Wind, r.WindTarget, r.HasWindTarget, r.WindTolerance, defaultWindTarget, defaultWindSpread)
	temp := rangeScore(obs.Temperature, r.TempMin, r.TempMax, r.TempTolerance)

	return ScoreBreakdown{
		Date:      obs.Date,
		RainScore: rain,
		WindScore: wind,
		TempScore: temp,
		Combined:  clamp01(rain*r.WeightRain + wind*r.WeightWind + temp*r.WeightTemp),
	}
}

// pointScore decays linearly with the distance from a target value. Without
// an explicit target the implicit target and spread are used instead of tol.
func pointScore(m Measurement, target float64, hasTarget bool, tol, implicitTarget, implicitSpread float64) float64 {
	v, ok := m.Value()
	if !ok {
		return neutralScore
	}
	if !hasTarget {
		return clamp01(1 - math.Abs(v-implicitTarget)/implicitSpread)
	}
	return clamp01(1 - math.Abs(v-target)/tol)
}

// rangeScore is 1 inside [lo, hi] and decays with the distance outside it.
func rangeScore(m Measurement, lo, hi, tol float64) float64 {
	v, ok := m.Value()
	if !ok {
		return neutralScore
	}
	switch {
	case v < lo:
		return clamp01(1 - (lo-v)/tol)
	case v > hi:
		return clamp01(1 - (v-hi)/tol)
	default:
		return 1
	}
}

// ToSuitabilityScore curves a combined score in [0, 1] onto the 0-100 scale.
func ToSuitabilityScore(combined float64) int {
	return int(math.Round(math.Pow(clamp01(combined), scoreCurve) * 100))
}

// ScoreMany scores every observation in order.
func ScoreMany(obs []DailyObservation, prefs PreferenceConfig) []ScoredDay {
	r := Resolve(prefs)
	out := make([]ScoredDay, len(obs))
	for i, o := range obs {
		out[i] = scoreDay(o, r)
	}
	return out
}

func scoreDay(o DailyObservation, r Resolved) ScoredDay {
	b := scoreResolved(o, r)
	return ScoredDay{ScoreBreakdown: b, Score: ToSuitabilityScore(b.Combined)}
}

// clamp01 bounds x to [0, 1]. NaN maps to 0.
func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
