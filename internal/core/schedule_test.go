package core

import (
	"testing"
	"time"
)

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextRun(t *testing.T) {
	tests := []struct {
		name     string
		freq     Frequency
		day      int
		execTime string
		cron     string
		now      string
		want     string
	}{
		{
			name: "hourly before the minute",
			freq: FrequencyHourly, execTime: "00:30",
			now:  "2024-06-10T14:10:00Z",
			want: "2024-06-10T14:30:00Z",
		},
		{
			name: "hourly past the minute rolls to next hour",
			freq: FrequencyHourly, execTime: "00:30",
			now:  "2024-06-10T14:45:00Z",
			want: "2024-06-10T15:30:00Z",
		},
		{
			name: "daily before execution time",
			freq: FrequencyDaily, execTime: "18:00",
			now:  "2024-06-10T09:00:00Z",
			want: "2024-06-10T18:00:00Z",
		},
		{
			name: "daily after execution time rolls to tomorrow",
			freq: FrequencyDaily, execTime: "18:00",
			now:  "2024-06-10T19:00:00Z",
			want: "2024-06-11T18:00:00Z",
		},
		{
			name: "daily exactly at execution time is strictly future",
			freq: FrequencyDaily, execTime: "18:00",
			now:  "2024-06-10T18:00:00Z",
			want: "2024-06-11T18:00:00Z",
		},
		{
			name: "monthly day 31 from the 20th stays in the month",
			freq: FrequencyMonthly, day: 31, execTime: "02:00",
			now:  "2024-01-20T00:00:00Z",
			want: "2024-01-31T02:00:00Z",
		},
		{
			name: "monthly day 31 normalizes in a 30-day month",
			freq: FrequencyMonthly, day: 31, execTime: "02:00",
			now:  "2024-04-01T00:00:00Z",
			want: "2024-05-01T02:00:00Z",
		},
		{
			name: "monthly past the day rolls to next month",
			freq: FrequencyMonthly, day: 5, execTime: "08:00",
			now:  "2024-03-10T00:00:00Z",
			want: "2024-04-05T08:00:00Z",
		},
		{
			name: "yearly before january day",
			freq: FrequencyYearly, day: 15, execTime: "06:00",
			now:  "2024-01-10T00:00:00Z",
			want: "2024-01-15T06:00:00Z",
		},
		{
			name: "yearly after january day rolls to next year",
			freq: FrequencyYearly, day: 15, execTime: "06:00",
			now:  "2024-02-01T00:00:00Z",
			want: "2025-01-15T06:00:00Z",
		},
		{
			name: "custom cron",
			freq: FrequencyCustom, cron: "0 12 * * 1",
			now:  "2024-06-10T13:00:00Z", // a Monday, past noon
			want: "2024-06-17T12:00:00Z",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextRun(tc.freq, tc.day, tc.execTime, tc.cron, at(tc.now))
			if err != nil {
				t.Fatalf("NextRun: %v", err)
			}
			if !got.Equal(at(tc.want)) {
				t.Fatalf("NextRun = %s, want %s", got, tc.want)
			}
			if !got.After(at(tc.now)) {
				t.Fatalf("NextRun = %s is not strictly after now", got)
			}
		})
	}
}

func TestNextRunRejectsBadInput(t *testing.T) {
	if _, err := NextRun(FrequencyDaily, 0, "25:00", "", at("2024-06-10T00:00:00Z")); err == nil {
		t.Errorf("expected error for bad execution time")
	}
	if _, err := NextRun(FrequencyCustom, 0, "00:00", "not a cron", at("2024-06-10T00:00:00Z")); err == nil {
		t.Errorf("expected error for bad cron expression")
	}
	if _, err := NextRun(FrequencyCustom, 0, "00:00", "@hourly", at("2024-06-10T00:00:00Z")); err == nil {
		t.Errorf("expected error for descriptor cron expression")
	}
	if _, err := NextRun(Frequency("weekly"), 0, "00:00", "", at("2024-06-10T00:00:00Z")); err == nil {
		t.Errorf("expected error for unknown frequency")
	}
}

func TestParseExecutionTime(t *testing.T) {
	hour, minute, err := ParseExecutionTime("07:45")
	if err != nil || hour != 7 || minute != 45 {
		t.Fatalf("got %d:%d err=%v", hour, minute, err)
	}
	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd"} {
		if _, _, err := ParseExecutionTime(bad); err == nil {
			t.Errorf("ParseExecutionTime(%q): expected error", bad)
		}
	}
}

func TestPeriodForPreviousCompletePeriod(t *testing.T) {
	now := at("2024-03-15T10:30:00Z")

	start, end := PeriodFor(FrequencyHourly, now)
	if !start.Equal(at("2024-03-15T09:00:00Z")) || !end.Equal(at("2024-03-15T10:00:00Z")) {
		t.Errorf("hourly = [%s, %s)", start, end)
	}

	start, end = PeriodFor(FrequencyDaily, now)
	if !start.Equal(at("2024-03-14T00:00:00Z")) || !end.Equal(at("2024-03-15T00:00:00Z")) {
		t.Errorf("daily = [%s, %s)", start, end)
	}

	start, end = PeriodFor(FrequencyMonthly, now)
	if !start.Equal(at("2024-02-01T00:00:00Z")) || !end.Equal(at("2024-03-01T00:00:00Z")) {
		t.Errorf("monthly = [%s, %s)", start, end)
	}

	start, end = PeriodFor(FrequencyYearly, now)
	if !start.Equal(at("2023-01-01T00:00:00Z")) || !end.Equal(at("2024-01-01T00:00:00Z")) {
		t.Errorf("yearly = [%s, %s)", start, end)
	}

	start, end = PeriodFor(FrequencyCustom, now)
	if !end.Equal(now) || !start.Equal(now.Add(-24*time.Hour)) {
		t.Errorf("custom = [%s, %s)", start, end)
	}
}
