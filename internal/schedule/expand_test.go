package schedule

import (
	"testing"
	"time"

	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/pkg/datetime"
)

func date(s string) time.Time {
	return datetime.MustParseTime(datetime.DateLayout, s)
}

func formatDates(occurrences []Occurrence) []string {
	out := make([]string, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, o.Date.Format(datetime.DateLayout))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestExpandDayOfWeek(t *testing.T) {
	anchor := date("2025-06-13")

	tests := []struct {
		name      string
		rule      model.DayOfWeek
		frequency model.Frequency
		start     string
		end       string
		expected  []string
	}{
		{
			name:      "Weekly Fridays",
			rule:      model.DayOfWeek{Day: 5},
			frequency: model.FrequencyWeekly,
			start:     "2025-06-01",
			end:       "2025-06-30",
			expected:  []string{"2025-06-06", "2025-06-13", "2025-06-20", "2025-06-27"},
		},
		{
			name:      "Weekly starting on the matching day",
			rule:      model.DayOfWeek{Day: 1},
			frequency: model.FrequencyWeekly,
			start:     "2025-06-02",
			end:       "2025-06-16",
			expected:  []string{"2025-06-02", "2025-06-09", "2025-06-16"},
		},
		{
			name:      "Weekly Sunday uses ISO 7",
			rule:      model.DayOfWeek{Day: 7},
			frequency: model.FrequencyWeekly,
			start:     "2025-06-01",
			end:       "2025-06-10",
			expected:  []string{"2025-06-01", "2025-06-08"},
		},
		{
			name:      "Biweekly without anchor counts from the epoch week",
			rule:      model.DayOfWeek{Day: 5},
			frequency: model.FrequencyBiweekly,
			start:     "2025-06-01",
			end:       "2025-07-10",
			expected:  []string{"2025-06-06", "2025-06-20", "2025-07-04"},
		},
		{
			name:      "Biweekly honors an anchor on the off week",
			rule:      model.DayOfWeek{Day: 5, AnchorDate: &anchor},
			frequency: model.FrequencyBiweekly,
			start:     "2025-06-01",
			end:       "2025-07-10",
			expected:  []string{"2025-06-13", "2025-06-27"},
		},
		{
			name:      "Biweekly anchor after the window start",
			rule:      model.DayOfWeek{Day: 5, AnchorDate: &anchor},
			frequency: model.FrequencyBiweekly,
			start:     "2025-05-01",
			end:       "2025-05-31",
			expected:  []string{"2025-05-02", "2025-05-16", "2025-05-30"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDates(Expand(tt.rule, tt.frequency, 100, date(tt.start), date(tt.end)))
			if !equalStrings(got, tt.expected) {
				t.Errorf("Expand() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestExpandDayOfMonthClamps(t *testing.T) {
	tests := []struct {
		name     string
		day      int
		start    string
		end      string
		expected []string
	}{
		{
			name:     "31 in a 30 day month",
			day:      31,
			start:    "2025-04-01",
			end:      "2025-05-31",
			expected: []string{"2025-04-30", "2025-05-31"},
		},
		{
			name:     "31 in non-leap February",
			day:      31,
			start:    "2025-02-01",
			end:      "2025-02-28",
			expected: []string{"2025-02-28"},
		},
		{
			name:     "30 in leap February",
			day:      30,
			start:    "2024-02-01",
			end:      "2024-03-31",
			expected: []string{"2024-02-29", "2024-03-30"},
		},
		{
			name:     "Day before the window start is excluded",
			day:      5,
			start:    "2025-06-10",
			end:      "2025-07-09",
			expected: []string{"2025-07-05"},
		},
		{
			name:     "Day after the window end is excluded",
			day:      25,
			start:    "2025-06-01",
			end:      "2025-06-20",
			expected: nil,
		},
		{
			name:     "Window spanning a year boundary",
			day:      15,
			start:    "2025-12-01",
			end:      "2026-01-31",
			expected: []string{"2025-12-15", "2026-01-15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDates(Expand(model.DayOfMonth{Day: tt.day}, model.FrequencyMonthly, 100, date(tt.start), date(tt.end)))
			if !equalStrings(got, tt.expected) {
				t.Errorf("Expand() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestExpandTwiceMonthly(t *testing.T) {
	first, second := int64(300000), int64(200000)

	t.Run("Overrides replace the base amount", func(t *testing.T) {
		rule := model.TwiceMonthly{FirstDay: 20, SecondDay: 5, FirstAmount: &first, SecondAmount: &second}
		got := Expand(rule, model.FrequencyTwiceMonthly, 999, date("2025-06-01"), date("2025-06-30"))

		if len(got) != 2 {
			t.Fatalf("Expand() returned %d occurrences, expected 2", len(got))
		}
		if got[0].Date.Format(datetime.DateLayout) != "2025-06-05" || got[0].Amount != second {
			t.Errorf("first occurrence = %v, expected 2025-06-05 at %d", got[0], second)
		}
		if got[1].Date.Format(datetime.DateLayout) != "2025-06-20" || got[1].Amount != first {
			t.Errorf("second occurrence = %v, expected 2025-06-20 at %d", got[1], first)
		}
	})

	t.Run("Base amount without overrides", func(t *testing.T) {
		rule := model.TwiceMonthly{FirstDay: 15, SecondDay: 31}
		got := Expand(rule, model.FrequencyTwiceMonthly, 5000, date("2025-02-01"), date("2025-03-31"))

		expected := []string{"2025-02-15", "2025-02-28", "2025-03-15", "2025-03-31"}
		if !equalStrings(formatDates(got), expected) {
			t.Errorf("Expand() = %v, expected %v", formatDates(got), expected)
		}
		for _, o := range got {
			if o.Amount != 5000 {
				t.Errorf("occurrence %v amount = %d, expected base 5000", o.Date, o.Amount)
			}
		}
	})
}

func TestExpandProjectAndEmptyWindow(t *testing.T) {
	project := model.RecurringProject{
		ID:        "salary",
		Amount:    50000,
		Frequency: model.FrequencyMonthly,
		Schedule:  model.DayOfMonth{Day: 5},
	}

	got := ExpandProject(project, date("2025-06-01"), date("2025-06-30"))
	if len(got) != 1 || got[0].Amount != 50000 {
		t.Errorf("ExpandProject() = %v, expected one occurrence of 50000", got)
	}

	if got := ExpandProject(project, date("2025-06-30"), date("2025-06-01")); got != nil {
		t.Errorf("ExpandProject() with inverted window = %v, expected nil", got)
	}
}

func TestExpandPanicsOnNilRule(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expand() expected to panic on a nil schedule")
		}
	}()
	Expand(nil, model.FrequencyMonthly, 1, date("2025-06-01"), date("2025-06-30"))
}

func TestBiweeklyAnchor(t *testing.T) {
	anchor := time.Date(2025, time.June, 13, 15, 0, 0, 0, time.UTC)
	if got := BiweeklyAnchor(model.DayOfWeek{Day: 5, AnchorDate: &anchor}); !got.Equal(date("2025-06-13")) {
		t.Errorf("BiweeklyAnchor() = %v, expected the civil anchor", got)
	}
	if got := BiweeklyAnchor(model.DayOfWeek{Day: 3}); !got.Equal(date("2001-01-03")) {
		t.Errorf("BiweeklyAnchor() = %v, expected the first Wednesday of 2001", got)
	}
	if got := BiweeklyAnchor(model.DayOfWeek{Day: 1}); !got.Equal(date("2001-01-01")) {
		t.Errorf("BiweeklyAnchor() = %v, expected 2001-01-01", got)
	}
}

func TestBiweeklyIsStableAcrossWindows(t *testing.T) {
	rule := model.DayOfWeek{Day: 5}

	tests := []struct {
		start    string
		end      string
		expected []string
	}{
		{start: "2025-06-02", end: "2025-06-30", expected: []string{"2025-06-06", "2025-06-20"}},
		{start: "2025-06-09", end: "2025-07-06", expected: []string{"2025-06-20", "2025-07-04"}},
		{start: "2025-06-14", end: "2025-06-19", expected: []string{}},
		{start: "2025-06-20", end: "2025-06-20", expected: []string{"2025-06-20"}},
	}

	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			got := formatDates(Expand(rule, model.FrequencyBiweekly, 100, date(tt.start), date(tt.end)))
			if !equalStrings(got, tt.expected) {
				t.Errorf("Expand() = %v, expected %v", got, tt.expected)
			}
		})
	}
}
