package rules

import (
	"strings"
	"testing"
	"time"
)

func TestWeekCapFraction(t *testing.T) {
	r := Default()
	tests := []struct {
		week int
		want float64
	}{
		{1, 0.5},
		{2, 0.7},
		{3, 0.8},
		{4, 0.9},
		{5, 1.0}, // beyond the progression, no cap
	}
	for _, tt := range tests {
		got, err := r.WeekCapFraction(tt.week)
		if err != nil {
			t.Fatalf("WeekCapFraction(%d): %v", tt.week, err)
		}
		if got != tt.want {
			t.Errorf("WeekCapFraction(%d) = %g, want %g", tt.week, got, tt.want)
		}
	}
}

func TestWeekCapFraction_InvalidWeek(t *testing.T) {
	r := Default()
	if _, err := r.WeekCapFraction(0); err == nil {
		t.Error("expected error for week 0")
	}
	if _, err := r.WeekCapFraction(-3); err == nil {
		t.Error("expected error for negative week")
	}
}

func TestWeekCap_ReturnToTrainingScenario(t *testing.T) {
	// Athlete resumes after >= 2 weeks off with a prior max volume of 1000.
	// Week caps must be 500 / 700 / 800 / 900 per the documented rule.
	r := Default()
	const maxVolume = 1000.0

	want := []float64{500, 700, 800, 900}
	for week := 1; week <= 4; week++ {
		cap, err := r.WeekCap(week, maxVolume)
		if err != nil {
			t.Fatalf("WeekCap(%d): %v", week, err)
		}
		if cap != want[week-1] {
			t.Errorf("week %d cap = %g, want %g", week, cap, want[week-1])
		}
	}
}

func TestWeekCap_NegativeVolume(t *testing.T) {
	r := Default()
	if _, err := r.WeekCap(1, -10); err == nil {
		t.Error("expected error for negative volume")
	}
}

func TestEvaluate(t *testing.T) {
	r := Default()
	day := func(sleep float64, rpe, hrv int, vol float64) DayMetrics {
		return DayMetrics{
			AthleteID:  "atleta_01",
			Date:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			SleepHours: sleep,
			RPE:        rpe,
			HRV:        hrv,
			Volume:     vol,
		}
	}

	tests := []struct {
		name      string
		days      []DayMetrics
		wantCodes []string
	}{
		{
			name:      "all nominal",
			days:      []DayMetrics{day(8, 5, 60, 500)},
			wantCodes: nil,
		},
		{
			name:      "low sleep",
			days:      []DayMetrics{day(6.5, 5, 60, 500)},
			wantCodes: []string{AlertLowSleep},
		},
		{
			name:      "high rpe",
			days:      []DayMetrics{day(8, 9, 60, 500)},
			wantCodes: []string{AlertHighRPE},
		},
		{
			name:      "low hrv",
			days:      []DayMetrics{day(8, 5, 35, 500)},
			wantCodes: []string{AlertLowHRV},
		},
		{
			name: "volume spike on second day",
			days: []DayMetrics{
				day(8, 5, 60, 500),
				day(8, 5, 60, 900),
			},
			wantCodes: []string{AlertVolumeWarn},
		},
		{
			name:      "zero sleep hours not flagged (missing data)",
			days:      []DayMetrics{day(0, 5, 60, 500)},
			wantCodes: nil,
		},
		{
			name:      "multiple violations same day",
			days:      []DayMetrics{day(5, 10, 30, 500)},
			wantCodes: []string{AlertLowSleep, AlertHighRPE, AlertLowHRV},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := r.Evaluate(tt.days)
			var codes []string
			for _, a := range alerts {
				codes = append(codes, a.Code)
			}
			if len(codes) != len(tt.wantCodes) {
				t.Fatalf("got %v, want %v", codes, tt.wantCodes)
			}
			for i := range codes {
				if codes[i] != tt.wantCodes[i] {
					t.Errorf("alert[%d] = %s, want %s", i, codes[i], tt.wantCodes[i])
				}
			}
		})
	}
}

func TestPromptSection_ContainsRuleNumbers(t *testing.T) {
	section := Default().PromptSection()

	for _, want := range []string{"50", "30", "20", "10", "7 horas", "RPE > 6", Version} {
		if !strings.Contains(section, want) {
			t.Errorf("prompt section missing %q:\n%s", want, section)
		}
	}
}

func TestDetectRedFlags(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		wantCodes []string
	}{
		{
			name:      "dark urine alone",
			utterance: "El atleta dice que tiene la orina oscura después de entrenar",
			wantCodes: []string{RedFlagRhabdomyolysis},
		},
		{
			name:      "extreme pain with high rpe",
			utterance: "Dolor muscular extremo tras una sesión RPE 10",
			wantCodes: []string{RedFlagRhabdomyolysis},
		},
		{
			name:      "extreme pain without rpe is not enough",
			utterance: "Tiene dolor muscular extremo",
			wantCodes: nil,
		},
		{
			name:      "heat with intensity",
			utterance: "Entrenó sprints bajo el sol al mediodía",
			wantCodes: []string{RedFlagHeatStroke},
		},
		{
			name:      "heat with high rpe",
			utterance: "Sesión con mucho calor, terminó con RPE 9",
			wantCodes: []string{RedFlagHeatStroke},
		},
		{
			name:      "heat alone is not enough",
			utterance: "Hoy hace mucho calor",
			wantCodes: nil,
		},
		{
			name:      "case insensitive",
			utterance: "ORINA OSCURA y RPE 10",
			wantCodes: []string{RedFlagRhabdomyolysis},
		},
		{
			name:      "benign question",
			utterance: "¿Cuántas horas hay que dormir?",
			wantCodes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := DetectRedFlags(tt.utterance)
			var codes []string
			for _, f := range flags {
				codes = append(codes, f.Code)
			}
			if len(codes) != len(tt.wantCodes) {
				t.Fatalf("got %v, want %v", codes, tt.wantCodes)
			}
			for i := range codes {
				if codes[i] != tt.wantCodes[i] {
					t.Errorf("flag[%d] = %s, want %s", i, codes[i], tt.wantCodes[i])
				}
			}
		})
	}
}
