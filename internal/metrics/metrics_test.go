package metrics

import (
	"math/rand"
	"strings"
	"testing"
	"time"
)

func validRecord() Record {
	return Record{
		AthleteID:    "atleta_01",
		Date:         time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		TrainingLoad: 450,
		HRVMs:        68,
		SleepHours:   7.5,
		RPE:          4,
	}
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Record)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Record) {}},
		{name: "missing athlete", mutate: func(r *Record) { r.AthleteID = "" }, wantErr: true},
		{name: "zero date", mutate: func(r *Record) { r.Date = time.Time{} }, wantErr: true},
		{name: "negative load", mutate: func(r *Record) { r.TrainingLoad = -1 }, wantErr: true},
		{name: "zero load ok", mutate: func(r *Record) { r.TrainingLoad = 0 }},
		{name: "zero hrv", mutate: func(r *Record) { r.HRVMs = 0 }, wantErr: true},
		{name: "negative sleep", mutate: func(r *Record) { r.SleepHours = -0.5 }, wantErr: true},
		{name: "rpe too low", mutate: func(r *Record) { r.RPE = 0 }, wantErr: true},
		{name: "rpe too high", mutate: func(r *Record) { r.RPE = 11 }, wantErr: true},
		{name: "rpe boundary", mutate: func(r *Record) { r.RPE = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatTable(t *testing.T) {
	records := []Record{
		validRecord(),
		{
			AthleteID: "atleta_01", Date: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
			TrainingLoad: 1100, HRVMs: 38, SleepHours: 4.9, RPE: 8,
		},
	}
	out := FormatTable(records)

	for _, want := range []string{"fecha", "2026-08-01", "2026-08-02", "1100", "38", "4.9"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatTable() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatTable_Empty(t *testing.T) {
	if got := FormatTable(nil); got != "(sin datos)" {
		t.Errorf("FormatTable(nil) = %q", got)
	}
}

func TestBaselineDay_WithinHealthyRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		r := baselineDay(rng, "atleta_02", date)
		if err := r.Validate(); err != nil {
			t.Fatalf("baseline day invalid: %v", err)
		}
		if r.SleepHours < 7.0 {
			t.Errorf("baseline sleep %.1f below healthy floor", r.SleepHours)
		}
		if r.RPE > 5 {
			t.Errorf("baseline RPE %d too high", r.RPE)
		}
		if r.HRVMs < 60 {
			t.Errorf("baseline HRV %d too low", r.HRVMs)
		}
	}
}

func TestRiskyDay_WorsensWithStep(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	var prev Record
	for step := 1; step <= 5; step++ {
		r := baselineDay(rng, "atleta_01", date)
		riskyDay(&r, step)
		if err := r.Validate(); err != nil {
			t.Fatalf("risky day %d invalid: %v", step, err)
		}
		if step > 1 {
			if r.TrainingLoad <= prev.TrainingLoad {
				t.Errorf("day %d load %d did not rise from %d", step, r.TrainingLoad, prev.TrainingLoad)
			}
			if r.HRVMs >= prev.HRVMs {
				t.Errorf("day %d HRV %d did not fall from %d", step, r.HRVMs, prev.HRVMs)
			}
			if r.SleepHours >= prev.SleepHours {
				t.Errorf("day %d sleep %.1f did not fall from %.1f", step, r.SleepHours, prev.SleepHours)
			}
		}
		prev = r
	}
	if prev.SleepHours >= 7.0 {
		t.Errorf("final overload sleep %.1f should be under the 7h floor", prev.SleepHours)
	}
	if prev.RPE <= 6 {
		t.Errorf("final overload RPE %d should exceed the review threshold", prev.RPE)
	}
}

func TestSeedOptions_Defaults(t *testing.T) {
	var o SeedOptions
	o.defaults()
	if o.Athletes != 5 || o.Days != 31 {
		t.Errorf("defaults = %d athletes, %d days; want 5, 31", o.Athletes, o.Days)
	}
	if o.End.IsZero() {
		t.Error("default End not set")
	}
}
