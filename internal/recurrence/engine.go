// Package recurrence computes occurrence dates for recurring rules. All
// functions are pure and safe for concurrent use; callers own persistence
// and any notion of "today".
package recurrence

import (
	"time"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/util"
)

const (
	// maxIterations bounds a single enumeration walk. Sized so real
	// rules never hit it (a ten-year daily history is ~3650 steps);
	// it exists to keep a non-advancing rule from hanging the caller.
	maxIterations = 10000

	// weekdayScanDays bounds the day-by-day search for the next
	// allowed weekday. Any non-empty weekday set matches within 7
	// days; the wider window absorbs degenerate inputs.
	weekdayScanDays = 14
)

// NextDate returns the occurrence that follows current under the rule.
//
// Month and year steps anchor the day-of-month on the rule's start date,
// never on a previously clamped date: a rule started Jan 31 lands on
// Feb 28, then Mar 31 again. Weekly rules with a weekday set scan
// forward for the next allowed weekday and, for interval > 1, push the
// found date out by the remaining weeks. An unknown frequency returns
// current unchanged, which Occurrences treats as end of sequence.
func NextDate(current time.Time, rule *domain.RecurringRule) time.Time {
	current = util.DateOnly(current)
	interval := int(rule.Interval)

	switch rule.Frequency {
	case domain.FrequencyDaily:
		return current.AddDate(0, 0, interval)

	case domain.FrequencyWeekly:
		if len(rule.Weekdays) == 0 {
			return current.AddDate(0, 0, 7*interval)
		}
		for i := 1; i <= weekdayScanDays; i++ {
			candidate := current.AddDate(0, 0, i)
			if rule.WeekdayAllowed(candidate) {
				if interval > 1 {
					candidate = candidate.AddDate(0, 0, 7*(interval-1))
				}
				return candidate
			}
		}
		return current.AddDate(0, 0, 7*interval)

	case domain.FrequencyMonthly:
		return advanceMonths(current, interval, rule.StartDate.Day())

	case domain.FrequencyYearly:
		return advanceMonths(current, 12*interval, rule.StartDate.Day())

	default:
		return current
	}
}

// advanceMonths moves n calendar months forward and sets the day to
// min(anchorDay, days in the target month).
func advanceMonths(current time.Time, n int, anchorDay int) time.Time {
	year, month, _ := current.Date()
	total := int(month) + n
	year += (total - 1) / 12
	month = time.Month((total-1)%12 + 1)
	return util.ClampedDate(year, month, anchorDay)
}

// Occurrences enumerates the rule's dates inside [rangeStart, rangeEnd],
// both bounds inclusive. The walk always starts at the rule's start date
// so interval phase and the day-of-month anchor survive a window that
// opens later; dates before rangeStart are walked but not emitted.
//
// The start date itself is the first occurrence when it falls inside the
// range and is not skipped. Skipped dates are excluded from the result
// but still advance the walk. A malformed rule (unknown frequency,
// interval < 1) yields an empty sequence rather than an error: a rule
// that cannot repeat simply has no further occurrences.
func Occurrences(rule *domain.RecurringRule, rangeStart, rangeEnd time.Time) []time.Time {
	if !rule.Frequency.Valid() || rule.Interval < 1 {
		return nil
	}

	rangeStart = util.DateOnly(rangeStart)
	end := util.DateOnly(rangeEnd)
	if rule.EndDate != nil {
		end = util.MinDate(end, util.DateOnly(*rule.EndDate))
	}

	var dates []time.Time
	current := util.DateOnly(rule.StartDate)
	for i := 0; i < maxIterations; i++ {
		if current.After(end) {
			break
		}
		if !current.Before(rangeStart) && !rule.IsSkipped(current) {
			dates = append(dates, current)
		}
		next := NextDate(current, rule)
		if !next.After(current) {
			break
		}
		current = next
	}
	return dates
}
