package suitability

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPreferences is returned by PreferenceConfig.Validate.
var ErrInvalidPreferences = errors.New("invalid preferences")

// Level is a qualitative precipitation or wind target.
type Level string

const (
	LevelNone     Level = "none"
	LevelLight    Level = "light"
	LevelModerate Level = "moderate"
	LevelHeavy    Level = "heavy"
)

// Implicit targets used when the user gives no explicit value.
const (
	idealTempMin = 18.0
	idealTempMax = 26.0

	defaultRainTarget = 0.0
	defaultRainSpread = 3.0
	defaultWindTarget = 2.0
	defaultWindSpread = 4.0

	defaultWindTolerance = 3.0
	defaultTempTolerance = 5.0

	defaultWeightRain = 0.5
	defaultWeightWind = 0.2
	defaultWeightTemp = 0.3
)

// RainMm maps a level to its precipitation anchor in millimeters.
func (l Level) RainMm() float64 {
	switch l {
	case LevelLight:
		return 5
	case LevelModerate:
		return 20
	case LevelHeavy:
		return 40
	default:
		return 0
	}
}

// WindMs maps a level to its wind anchor in meters per second.
func (l Level) WindMs() float64 {
	switch l {
	case LevelLight:
		return 3.5
	case LevelModerate:
		return 9
	case LevelHeavy:
		return 17
	default:
		return 0
	}
}

// Weights are relative criterion weights. They need not sum to 1.
type Weights struct {
	Rain *float64 `json:"rain,omitempty" yaml:"rain,omitempty" validate:"omitempty,finite,gte=0"`
	Wind *float64 `json:"wind,omitempty" yaml:"wind,omitempty" validate:"omitempty,finite,gte=0"`
	Temp *float64 `json:"temp,omitempty" yaml:"temp,omitempty" validate:"omitempty,finite,gte=0"`
}

// Tolerances are the distances over which a criterion decays from 1 to 0.
type Tolerances struct {
	Rain *float64 `json:"rain,omitempty" yaml:"rain,omitempty" validate:"omitempty,finite,gt=0"`
	Wind *float64 `json:"wind,omitempty" yaml:"wind,omitempty" validate:"omitempty,finite,gt=0"`
	Temp *float64 `json:"temp,omitempty" yaml:"temp,omitempty" validate:"omitempty,finite,gt=0"`
}

// PreferenceConfig describes the conditions a user hopes for. Every field is
// optional; Resolve fills in the defaults.
type PreferenceConfig struct {
	TempMin          *float64    `json:"tempMin,omitempty" yaml:"tempMin,omitempty" validate:"omitempty,finite"`
	TempMax          *float64    `json:"tempMax,omitempty" yaml:"tempMax,omitempty" validate:"omitempty,finite"`
	DesiredRainMm    *float64    `json:"desiredRainMm,omitempty" yaml:"desiredRainMm,omitempty" validate:"omitempty,finite,gte=0"`
	DesiredRainLevel Level       `json:"desiredRainLevel,omitempty" yaml:"desiredRainLevel,omitempty" validate:"omitempty,oneof=none light moderate heavy"`
	DesiredWindMs    *float64    `json:"desiredWindMs,omitempty" yaml:"desiredWindMs,omitempty" validate:"omitempty,finite,gte=0"`
	DesiredWindLevel Level       `json:"desiredWindLevel,omitempty" yaml:"desiredWindLevel,omitempty" validate:"omitempty,oneof=none light moderate heavy"`
	Weights          *Weights    `json:"weights,omitempty" yaml:"weights,omitempty" validate:"omitempty"`
	Tolerances       *Tolerances `json:"tolerances,omitempty" yaml:"tolerances,omitempty" validate:"omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := registerValidators(v); err != nil {
		panic(err)
	}
	return v
}

// registerValidators adds the custom tags used by PreferenceConfig.
func registerValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("finite", validateFinite); err != nil {
		return fmt.Errorf("failed to register finite validator: %w", err)
	}
	return nil
}

func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Validate rejects preferences that would make the scoring arithmetic
// meaningless: negative or non-finite weights, non-positive tolerances,
// unknown levels and an inverted temperature range.
func (p PreferenceConfig) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}
	if p.TempMin != nil && p.TempMax != nil && *p.TempMin > *p.TempMax {
		return fmt.Errorf("%w: tempMin %.1f is above tempMax %.1f", ErrInvalidPreferences, *p.TempMin, *p.TempMax)
	}
	return nil
}

// Resolved is a PreferenceConfig with every default applied and the weights
// normalized.
type Resolved struct {
	RainTarget    float64
	HasRainTarget bool
	WindTarget    float64
	HasWindTarget bool

	TempMin float64
	TempMax float64

	RainTolerance float64
	WindTolerance float64
	TempTolerance float64

	WeightRain float64
	WeightWind float64
	WeightTemp float64
}

// Resolve applies the default rules to p. Non-finite targets and bounds and
// tolerances that are not positive count as unset; weights that are negative
// or not finite count as zero.
func Resolve(p PreferenceConfig) Resolved {
	var r Resolved

	if v, ok := finite(p.DesiredRainMm); ok {
		r.RainTarget, r.HasRainTarget = v, true
	} else if p.DesiredRainLevel != "" {
		r.RainTarget, r.HasRainTarget = p.DesiredRainLevel.RainMm(), true
	}
	if v, ok := finite(p.DesiredWindMs); ok {
		r.WindTarget, r.HasWindTarget = v, true
	} else if p.DesiredWindLevel != "" {
		r.WindTarget, r.HasWindTarget = p.DesiredWindLevel.WindMs(), true
	}

	lo, hasLo := finite(p.TempMin)
	hi, hasHi := finite(p.TempMax)
	r.TempMin, r.TempMax = idealTempMin, idealTempMax
	if hasLo || hasHi {
		r.TempMin, r.TempMax = math.Inf(-1), math.Inf(1)
		if hasLo {
			r.TempMin = lo
		}
		if hasHi {
			r.TempMax = hi
		}
	}

	var tol Tolerances
	if p.Tolerances != nil {
		tol = *p.Tolerances
	}
	if v, ok := positive(tol.Rain); ok {
		r.RainTolerance = v
	} else {
		r.RainTolerance = defaultRainTolerance(r.RainTarget, r.HasRainTarget)
	}
	r.WindTolerance = orDefault(tol.Wind, defaultWindTolerance)
	r.TempTolerance = orDefault(tol.Temp, defaultTempTolerance)

	wr, ww, wt := defaultWeightRain, defaultWeightWind, defaultWeightTemp
	if p.Weights != nil {
		wr, ww, wt = weight(p.Weights.Rain), weight(p.Weights.Wind), weight(p.Weights.Temp)
	}
	sum := wr + ww + wt
	if sum == 0 {
		sum = 1
	}
	r.WeightRain, r.WeightWind, r.WeightTemp = wr/sum, ww/sum, wt/sum

	return r
}

func defaultRainTolerance(target float64, hasTarget bool) float64 {
	switch {
	case !hasTarget:
		return 5.0
	case target == 0:
		return 3.0
	case target <= 10:
		return 6.0
	default:
		return target * 0.6
	}
}

func orDefault(v *float64, def float64) float64 {
	if p, ok := positive(v); ok {
		return p
	}
	return def
}

func finite(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

func positive(v *float64) (float64, bool) {
	f, ok := finite(v)
	if !ok || f <= 0 {
		return 0, false
	}
	return f, true
}

func weight(v *float64) float64 {
	f, ok := finite(v)
	if !ok || f < 0 {
		return 0
	}
	return f
}
