package metrics

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// SeedOptions shapes the demo dataset.
type SeedOptions struct {
	Athletes int       // number of athletes, default 5
	Days     int       // days of history per athlete, default 31
	End      time.Time // last day of the range, default today
	Seed     int64     // RNG seed, fixed so reruns produce the same data
}

func (o *SeedOptions) defaults() {
	if o.Athletes <= 0 {
		o.Athletes = 5
	}
	if o.Days <= 0 {
		o.Days = 31
	}
	if o.End.IsZero() {
		o.End = time.Now().Truncate(24 * time.Hour)
	}
}

// Seed fills daily_metrics with a demo squad. Every athlete gets Days of
// plausible baseline rows; the first athlete's last five days show an
// overload picture (rising load, falling HRV, short sleep, high RPE) so
// the monitoring rules have something to flag.
func (s *Store) Seed(ctx context.Context, opts SeedOptions) (int, error) {
	opts.defaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	var written int
	for a := 1; a <= opts.Athletes; a++ {
		athleteID := fmt.Sprintf("atleta_%02d", a)
		overloaded := a == 1

		for d := opts.Days - 1; d >= 0; d-- {
			date := opts.End.AddDate(0, 0, -d)
			r := baselineDay(rng, athleteID, date)

			if overloaded && d < 5 {
				riskyDay(&r, 5-d)
			}

			if err := s.Upsert(ctx, r); err != nil {
				return written, err
			}
			written++
		}
	}
	s.logger.Info("demo metrics seeded",
		"athletes", opts.Athletes, "days", opts.Days, "rows", written)
	return written, nil
}

// baselineDay produces a healthy training day with mild noise.
func baselineDay(rng *rand.Rand, athleteID string, date time.Time) Record {
	return Record{
		AthleteID:    athleteID,
		Date:         date,
		TrainingLoad: 400 + rng.Intn(200),          // 400-599
		HRVMs:        60 + rng.Intn(25),            // 60-84
		SleepHours:   7.0 + rng.Float64()*1.5,      // 7.0-8.5
		RPE:          3 + rng.Intn(3),              // 3-5
	}
}

// riskyDay rewrites a baseline day into day `step` (1-5) of an overload
// spiral: each day is worse than the one before.
func riskyDay(r *Record, step int) {
	r.TrainingLoad = 700 + step*80 // climbs to 1100
	r.HRVMs = 58 - step*4          // falls to 38
	r.SleepHours = 6.4 - float64(step)*0.3
	r.RPE = 6 + step/2 // 6 up to 8
	if r.RPE > 10 {
		r.RPE = 10
	}
}
