// Package metrics reads and writes daily athlete biometrics: training
// load, heart-rate variability, sleep and perceived exertion. The
// assistant injects these rows into the prompt when a turn asks about a
// concrete athlete.
package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrAthleteNotFound reports a lookup for an athlete with no stored rows.
// The assistant turns this into a clarification, not a failure.
var ErrAthleteNotFound = errors.New("metrics: athlete not found")

// Record is one athlete-day of biometrics.
type Record struct {
	AthleteID    string    // canonical "atleta_NN"
	Date         time.Time // day resolution
	TrainingLoad int       // arbitrary volume units
	HRVMs        int       // heart-rate variability, milliseconds
	SleepHours   float64
	RPE          int // rate of perceived exertion, 1-10
}

// Validate checks a record before it is written.
func (r Record) Validate() error {
	switch {
	case r.AthleteID == "":
		return fmt.Errorf("metrics: record has no athlete ID")
	case r.Date.IsZero():
		return fmt.Errorf("metrics: record for %q has no date", r.AthleteID)
	case r.TrainingLoad < 0:
		return fmt.Errorf("metrics: negative training load for %q", r.AthleteID)
	case r.HRVMs <= 0:
		return fmt.Errorf("metrics: non-positive HRV for %q", r.AthleteID)
	case r.SleepHours < 0:
		return fmt.Errorf("metrics: negative sleep hours for %q", r.AthleteID)
	case r.RPE < 1 || r.RPE > 10:
		return fmt.Errorf("metrics: RPE %d out of range for %q", r.RPE, r.AthleteID)
	}
	return nil
}

// FormatTable renders records as a compact text table for prompt
// injection, oldest row first.
func FormatTable(records []Record) string {
	if len(records) == 0 {
		return "(sin datos)"
	}
	var sb strings.Builder
	sb.WriteString("fecha      | carga | hrv_ms | sueño | rpe\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "%s | %5d | %6d | %5.1f | %3d\n",
			r.Date.Format("2006-01-02"), r.TrainingLoad, r.HRVMs, r.SleepHours, r.RPE)
	}
	return sb.String()
}
