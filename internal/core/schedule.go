package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseCron validates a 5-field cron expression for custom-frequency tasks.
func ParseCron(expr string) (cron.Schedule, error) {
	if strings.HasPrefix(strings.TrimSpace(expr), "@") {
		return nil, fmt.Errorf("only 5-field cron expressions are supported")
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// ParseExecutionTime splits an HH:MM clock time.
func ParseExecutionTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid execution time %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid execution time %q, want HH:MM", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid execution time %q, want HH:MM", s)
	}
	return hour, minute, nil
}

// NextRun computes the next trigger instant after now. Pure: no I/O, no
// clock reads. The result is always strictly after now, even when the naive
// candidate lands exactly on it.
//
//   - hourly:  next occurrence of the executionTime minute
//   - daily:   next occurrence of executionTime today or tomorrow
//   - monthly: executionDay of this month at executionTime, else next month
//   - yearly:  executionDay of January at executionTime, else next year
//   - custom:  next firing of the task's cron expression
//
// Day-of-month overflow (e.g. day 31 in a 30-day month) follows Go calendar
// normalization, then keeps rolling forward until the instant is future.
func NextRun(freq Frequency, executionDay int, executionTime string, cronExpr string, now time.Time) (time.Time, error) {
	if freq == FrequencyCustom {
		schedule, err := ParseCron(cronExpr)
		if err != nil {
			return time.Time{}, err
		}
		return schedule.Next(now), nil
	}

	hour, minute, err := ParseExecutionTime(executionTime)
	if err != nil {
		return time.Time{}, err
	}
	loc := now.Location()

	switch freq {
	case FrequencyHourly:
		candidate := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, loc)
		for !candidate.After(now) {
			candidate = candidate.Add(time.Hour)
		}
		return candidate, nil
	case FrequencyDaily:
		candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
		for !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate, nil
	case FrequencyMonthly:
		for offset := 0; ; offset++ {
			candidate := time.Date(now.Year(), now.Month()+time.Month(offset), executionDay, hour, minute, 0, 0, loc)
			if candidate.After(now) {
				return candidate, nil
			}
		}
	case FrequencyYearly:
		for offset := 0; ; offset++ {
			candidate := time.Date(now.Year()+offset, time.January, executionDay, hour, minute, 0, 0, loc)
			if candidate.After(now) {
				return candidate, nil
			}
		}
	default:
		return time.Time{}, fmt.Errorf("unknown frequency %q", freq)
	}
}

// PeriodFor derives the reporting range a scheduled run covers: the previous
// complete calendar period for the task's frequency. Custom-cron tasks fall
// back to the trailing 24 hours. Scheduled tasks never store a fixed range;
// this is recomputed fresh on every run.
func PeriodFor(freq Frequency, now time.Time) (start, end time.Time) {
	loc := now.Location()
	switch freq {
	case FrequencyHourly:
		end = now.Truncate(time.Hour)
		return end.Add(-time.Hour), end
	case FrequencyDaily:
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		return end.AddDate(0, 0, -1), end
	case FrequencyMonthly:
		end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return end.AddDate(0, -1, 0), end
	case FrequencyYearly:
		end = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return end.AddDate(-1, 0, 0), end
	default:
		return now.Add(-24 * time.Hour), now
	}
}
