// Package rules encodes the NSCA/CSCCa consensus guidance the assistant
// enforces: biometric risk thresholds, the 50/30/20/10 return-to-training
// volume reductions, and medical red-flag criteria.
//
// The Ruleset is the single source of truth. Prompt assembly renders it into
// the system instructions, the metric evaluation path compares against it,
// and the tests assert directly on it, so the numbers are never duplicated
// as prose.
package rules

import (
	"fmt"
	"strings"
	"time"
)

// Version identifies the rule table revision included in every prompt.
// Bump when a threshold or percentage changes.
const Version = "nsca-2024.1"

// Thresholds holds the biometric risk thresholds from the consensus
// guidelines. Hard-coded domain constants, never changed at runtime.
type Thresholds struct {
	// MinSleepHours is the minimum nightly sleep; less increases injury risk.
	MinSleepHours float64

	// MaxNormalRPE is the highest RPE expected on a normal-load day.
	// Above it, recovery needs review.
	MaxNormalRPE int

	// MinHRV is the HRV floor in milliseconds; sustained readings below it
	// indicate poor autonomic recovery.
	MinHRV int

	// DehydrationWeightLossPct is the post-session body-weight loss
	// percentage that indicates critical dehydration.
	DehydrationWeightLossPct float64
}

// Ruleset is the versioned rule table consumed by prompt assembly and by
// the metric evaluation checks.
type Ruleset struct {
	Version    string
	Thresholds Thresholds

	// ReturnReductions are the weekly volume reductions (percent) applied
	// after a period of inactivity: 50/30/20/10 for weeks 1-4.
	ReturnReductions [4]int

	// InactivityWeeks is the minimum layoff that triggers the
	// return-to-training progression.
	InactivityWeeks int
}

// Default returns the current NSCA/CSCCa rule table.
func Default() Ruleset {
	return Ruleset{
		Version: Version,
		Thresholds: Thresholds{
			MinSleepHours:            7,
			MaxNormalRPE:             6,
			MinHRV:                   50,
			DehydrationWeightLossPct: 2.0,
		},
		ReturnReductions: [4]int{50, 30, 20, 10},
		InactivityWeeks:  2,
	}
}

// WeekCapFraction returns the fraction of the prior maximum volume allowed
// in the given return-to-training week (1-4). Week 1 is 0.5, week 2 is 0.7,
// week 3 is 0.8, week 4 is 0.9. Weeks beyond 4 have no cap (1.0).
func (r Ruleset) WeekCapFraction(week int) (float64, error) {
	if week < 1 {
		return 0, fmt.Errorf("week must be >= 1, got %d", week)
	}
	if week > len(r.ReturnReductions) {
		return 1.0, nil
	}
	return 1.0 - float64(r.ReturnReductions[week-1])/100.0, nil
}

// WeekCap returns the maximum recommended training volume for the given
// return-to-training week, relative to the athlete's prior maximum volume.
func (r Ruleset) WeekCap(week int, maxVolume float64) (float64, error) {
	if maxVolume < 0 {
		return 0, fmt.Errorf("maxVolume must be non-negative, got %g", maxVolume)
	}
	frac, err := r.WeekCapFraction(week)
	if err != nil {
		return 0, err
	}
	return maxVolume * frac, nil
}

// Alert codes produced by Evaluate.
const (
	AlertLowSleep   = "low_sleep"
	AlertHighRPE    = "high_rpe"
	AlertLowHRV     = "low_hrv"
	AlertVolumeWarn = "volume_spike"
)

// Alert is a single threshold violation detected in an athlete's metrics.
type Alert struct {
	Code      string
	AthleteID string
	Date      time.Time
	Message   string // Spanish, ready for prompt inclusion
}

// DayMetrics is the per-day biometric input evaluated against the rule
// table. Defined here so the rules package stays free of storage imports.
type DayMetrics struct {
	AthleteID  string
	Date       time.Time
	Volume     float64
	HRV        int
	SleepHours float64
	RPE        int
}

// Evaluate compares each day against the thresholds and returns the alerts
// found, in input order. A volume spike alert fires when a day exceeds 1.5x
// the mean of the preceding days in the window.
func (r Ruleset) Evaluate(days []DayMetrics) []Alert {
	var alerts []Alert

	var volSum float64
	for i, d := range days {
		if d.SleepHours > 0 && d.SleepHours < r.Thresholds.MinSleepHours {
			alerts = append(alerts, Alert{
				Code:      AlertLowSleep,
				AthleteID: d.AthleteID,
				Date:      d.Date,
				Message: fmt.Sprintf("Sueño insuficiente (%.1fh, mínimo %.0fh): riesgo de lesión elevado.",
					d.SleepHours, r.Thresholds.MinSleepHours),
			})
		}
		if d.RPE > r.Thresholds.MaxNormalRPE {
			alerts = append(alerts, Alert{
				Code:      AlertHighRPE,
				AthleteID: d.AthleteID,
				Date:      d.Date,
				Message: fmt.Sprintf("RPE %d supera el máximo normal (%d): revisar recuperación.",
					d.RPE, r.Thresholds.MaxNormalRPE),
			})
		}
		if d.HRV > 0 && d.HRV < r.Thresholds.MinHRV {
			alerts = append(alerts, Alert{
				Code:      AlertLowHRV,
				AthleteID: d.AthleteID,
				Date:      d.Date,
				Message: fmt.Sprintf("HRV %d ms por debajo del umbral (%d ms): recuperación comprometida.",
					d.HRV, r.Thresholds.MinHRV),
			})
		}
		if i > 0 {
			mean := volSum / float64(i)
			if mean > 0 && d.Volume > mean*1.5 {
				alerts = append(alerts, Alert{
					Code:      AlertVolumeWarn,
					AthleteID: d.AthleteID,
					Date:      d.Date,
					Message: fmt.Sprintf("Volumen %.0f muy por encima de la media previa (%.0f): pico de carga.",
						d.Volume, mean),
				})
			}
		}
		volSum += d.Volume
	}

	return alerts
}

// PromptSection renders the rule table as the Spanish system-prompt block.
// Always included in the model instructions; it is small enough to be
// static context rather than retrieved.
func (r Ruleset) PromptSection() string {
	var b strings.Builder
	fmt.Fprintf(&b, "REGLAS CRÍTICAS DE SEGURIDAD (tabla %s):\n", r.Version)
	fmt.Fprintf(&b, "1. REGLA %d/%d/%d/%d: si el atleta regresa de una inactividad de %d semanas o más, "+
		"reduce el volumen un %d%% la semana 1, %d%% la semana 2, %d%% la semana 3 y %d%% la semana 4 "+
		"respecto a su máximo previo registrado.\n",
		r.ReturnReductions[0], r.ReturnReductions[1], r.ReturnReductions[2], r.ReturnReductions[3],
		r.InactivityWeeks,
		r.ReturnReductions[0], r.ReturnReductions[1], r.ReturnReductions[2], r.ReturnReductions[3])
	fmt.Fprintf(&b, "2. UMBRALES DE RIESGO:\n")
	fmt.Fprintf(&b, "   - Sueño: mínimo %.0f horas; menos aumenta el riesgo de lesión.\n", r.Thresholds.MinSleepHours)
	fmt.Fprintf(&b, "   - Fatiga (RPE): un RPE > %d en días de carga normal requiere revisión de la recuperación.\n", r.Thresholds.MaxNormalRPE)
	fmt.Fprintf(&b, "   - HRV: lecturas sostenidas por debajo de %d ms indican mala recuperación autonómica.\n", r.Thresholds.MinHRV)
	fmt.Fprintf(&b, "3. HIDRATACIÓN: una pérdida de peso del %.0f%% tras el entrenamiento indica deshidratación crítica.\n",
		r.Thresholds.DehydrationWeightLossPct)
	return b.String()
}
