package recurrence

import (
	"testing"
	"time"

	"finguide/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func TestNextOccurrenceDaily(t *testing.T) {
	tests := []struct {
		name      string
		current   time.Time
		frequency int
		want      time.Time
	}{
		{"every day", date(2024, time.March, 15), 1, date(2024, time.March, 16)},
		{"every third day", date(2024, time.March, 15), 3, date(2024, time.March, 18)},
		{"month boundary", date(2024, time.January, 31), 1, date(2024, time.February, 1)},
		{"year boundary", date(2024, time.December, 31), 1, date(2025, time.January, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.RecurrencePattern{Type: models.Daily, Frequency: tt.frequency}
			got := NextOccurrence(tt.current, p)
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%s) = %s, want %s",
					tt.current.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestNextOccurrenceWeekly(t *testing.T) {
	tests := []struct {
		name      string
		current   time.Time
		frequency int
		dayOfWeek *int
		want      time.Time
	}{
		{
			// 2024-03-13 is a Wednesday; next Monday is 03-18, then one more
			// whole week for frequency 2.
			name:      "anchored biweekly from midweek",
			current:   date(2024, time.March, 13),
			frequency: 2,
			dayOfWeek: intPtr(1),
			want:      date(2024, time.March, 25),
		},
		{
			// Already on the target weekday: the result is the NEXT Monday,
			// never the same day.
			name:      "same weekday advances a full week",
			current:   date(2024, time.March, 18),
			frequency: 1,
			dayOfWeek: intPtr(1),
			want:      date(2024, time.March, 25),
		},
		{
			name:      "next such weekday for frequency one",
			current:   date(2024, time.March, 13),
			frequency: 1,
			dayOfWeek: intPtr(5),
			want:      date(2024, time.March, 15),
		},
		{
			name:      "no anchor steps whole weeks",
			current:   date(2024, time.March, 13),
			frequency: 2,
			dayOfWeek: nil,
			want:      date(2024, time.March, 27),
		},
		{
			name:      "sunday anchor",
			current:   date(2024, time.March, 13),
			frequency: 1,
			dayOfWeek: intPtr(0),
			want:      date(2024, time.March, 17),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.RecurrencePattern{Type: models.Weekly, Frequency: tt.frequency, DayOfWeek: tt.dayOfWeek}
			got := NextOccurrence(tt.current, p)
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestNextOccurrenceMonthly(t *testing.T) {
	tests := []struct {
		name       string
		current    time.Time
		frequency  int
		dayOfMonth *int
		want       time.Time
	}{
		{
			name:       "day 31 clamps to february",
			current:    date(2024, time.January, 31),
			frequency:  1,
			dayOfMonth: intPtr(31),
			want:       date(2024, time.February, 29),
		},
		{
			name:       "day 31 clamps to non-leap february",
			current:    date(2023, time.January, 31),
			frequency:  1,
			dayOfMonth: intPtr(31),
			want:       date(2023, time.February, 28),
		},
		{
			name:       "no anchor keeps current day",
			current:    date(2024, time.March, 15),
			frequency:  1,
			dayOfMonth: nil,
			want:       date(2024, time.April, 15),
		},
		{
			name:       "no anchor clamps current day too",
			current:    date(2024, time.January, 30),
			frequency:  1,
			dayOfMonth: nil,
			want:       date(2024, time.February, 29),
		},
		{
			name:       "quarterly",
			current:    date(2024, time.February, 10),
			frequency:  3,
			dayOfMonth: intPtr(10),
			want:       date(2024, time.May, 10),
		},
		{
			name:       "december wraps into next year",
			current:    date(2024, time.December, 5),
			frequency:  1,
			dayOfMonth: intPtr(5),
			want:       date(2025, time.January, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.RecurrencePattern{Type: models.Monthly, Frequency: tt.frequency, DayOfMonth: tt.dayOfMonth}
			got := NextOccurrence(tt.current, p)
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestNextOccurrenceYearly(t *testing.T) {
	tests := []struct {
		name        string
		current     time.Time
		frequency   int
		dayOfMonth  *int
		monthOfYear *int
		want        time.Time
	}{
		{
			name:        "anchored date",
			current:     date(2024, time.March, 20),
			frequency:   1,
			dayOfMonth:  intPtr(15),
			monthOfYear: intPtr(6),
			want:        date(2025, time.June, 15),
		},
		{
			name:        "feb 29 clamps in non-leap year",
			current:     date(2024, time.February, 29),
			frequency:   1,
			dayOfMonth:  intPtr(29),
			monthOfYear: intPtr(2),
			want:        date(2025, time.February, 28),
		},
		{
			name:      "no anchor adds whole years",
			current:   date(2024, time.July, 4),
			frequency: 2,
			want:      date(2026, time.July, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.RecurrencePattern{
				Type:        models.Yearly,
				Frequency:   tt.frequency,
				DayOfMonth:  tt.dayOfMonth,
				MonthOfYear: tt.monthOfYear,
			}
			got := NextOccurrence(tt.current, p)
			if !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestNextOccurrenceIsPure(t *testing.T) {
	p := models.RecurrencePattern{Type: models.Weekly, Frequency: 2, DayOfWeek: intPtr(1)}
	current := date(2024, time.March, 13)

	first := NextOccurrence(current, p)
	for i := 0; i < 5; i++ {
		if got := NextOccurrence(current, p); !got.Equal(first) {
			t.Fatalf("call %d returned %s, first call returned %s", i, got, first)
		}
	}
}

func TestNextOccurrenceStrictlyAdvances(t *testing.T) {
	patterns := []models.RecurrencePattern{
		{Type: models.Daily, Frequency: 1},
		{Type: models.Weekly, Frequency: 1, DayOfWeek: intPtr(3)},
		{Type: models.Weekly, Frequency: 1},
		{Type: models.Monthly, Frequency: 1, DayOfMonth: intPtr(31)},
		{Type: models.Yearly, Frequency: 1, DayOfMonth: intPtr(1), MonthOfYear: intPtr(1)},
	}

	current := date(2024, time.January, 31)
	for _, p := range patterns {
		next := current
		for i := 0; i < 24; i++ {
			advanced := NextOccurrence(next, p)
			if !advanced.After(next) {
				t.Fatalf("%s/%d: %s did not advance past %s",
					p.Type, p.Frequency, advanced.Format("2006-01-02"), next.Format("2006-01-02"))
			}
			next = advanced
		}
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)
	tomorrow := date(2024, time.March, 16)
	yesterday := date(2024, time.March, 14)

	tests := []struct {
		name string
		next time.Time
		end  *time.Time
		want bool
	}{
		{"due today regardless of time", time.Date(2024, time.March, 15, 23, 59, 0, 0, time.UTC), nil, true},
		{"past due", date(2024, time.March, 1), nil, true},
		{"not yet due", tomorrow, nil, false},
		{"end date today still due", date(2024, time.March, 15), &now, true},
		{"end date passed", date(2024, time.March, 15), &yesterday, false},
		{"past due but expired", date(2024, time.March, 1), &yesterday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(tt.next, tt.end, now); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}
