package billing

import "time"

// ScheduledCharge is one computed (period, amount) pair before insertion
type ScheduledCharge struct {
	Period time.Time
	Amount int64
}

// PeriodOf normalizes a date to the first day of its calendar month in UTC.
// All period arithmetic happens in UTC so client/server clock skew cannot
// shift a charge into the wrong month.
func PeriodOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// daysInMonth returns the number of days in the month containing period
func daysInMonth(period time.Time) int {
	return time.Date(period.Year(), period.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// proRate scales a full monthly amount by the days remaining in the start
// month, rounding half up. Starting on day 1 degenerates to the full amount.
func proRate(monthly int64, startDay, totalDays int) int64 {
	remaining := totalDays - startDay + 1
	if remaining >= totalDays {
		return monthly
	}
	if remaining <= 0 {
		return 0
	}
	num := monthly * int64(remaining)
	den := int64(totalDays)
	return (2*num + den) / (2 * den)
}

// BuildSchedule computes one charge per elapsed billing month from the start
// date through asOf inclusive. The start month is pro-rated by its remaining
// days; every later month is charged in full. An asOf earlier than the start
// still yields the start month, and zero-amount charges are dropped.
func BuildSchedule(monthly int64, start time.Time, asOf time.Time) []ScheduledCharge {
	if monthly <= 0 {
		return nil
	}

	startPeriod := PeriodOf(start)
	currentPeriod := PeriodOf(asOf)
	if currentPeriod.Before(startPeriod) {
		currentPeriod = startPeriod
	}

	var schedule []ScheduledCharge
	for period := startPeriod; !period.After(currentPeriod); period = period.AddDate(0, 1, 0) {
		amount := monthly
		if period.Equal(startPeriod) {
			amount = proRate(monthly, start.UTC().Day(), daysInMonth(period))
		}
		if amount == 0 {
			continue
		}
		schedule = append(schedule, ScheduledCharge{Period: period, Amount: amount})
	}

	return schedule
}
