/*
recurrence.go - Next occurrence dates for repeat policies

PURPOSE:
  NextGrantDate answers "given this repeat policy, when is the next grant
  due after the reference date?". It is a pure function over the policy
  fields; persistence, idempotence and count limits live in the engine.

OCCURRENCE MODEL:
  The first occurrence is always firstGrantDate. Later occurrences fall on
  unit boundaries anchored at firstGrantDate and stepped by repeatInterval:
  daily steps in days, monthly on the 1st of the month, quarterly on
  Jan/Apr/Jul/Oct 1st, half-yearly on Jan/Jul 1st, yearly on the policy's
  specific month/day (or firstGrantDate's month/day) once per interval years.
  The interval applies to every unit.
*/
package vacation

import "time"

// NextGrantDate returns the first occurrence of p strictly after reference,
// or false when no further occurrence exists. Non-recurring policies have a
// single occurrence at firstGrantDate.
func NextGrantDate(p *VacationPolicy, reference Date) (Date, bool) {
	if p.GrantMethod != GrantRepeat || p.FirstGrantDate.IsZero() {
		return Date{}, false
	}
	if reference.Before(p.FirstGrantDate) {
		return p.FirstGrantDate, true
	}
	if !p.Recurring {
		return Date{}, false
	}

	interval := p.RepeatInterval
	if interval < 1 {
		interval = 1
	}

	switch p.RepeatUnit {
	case RepeatDaily:
		return nextDailyDate(p.FirstGrantDate, interval, reference), true
	case RepeatMonthly:
		return nextBoundaryDate(p.FirstGrantDate, 1, interval, reference), true
	case RepeatQuarterly:
		return nextBoundaryDate(p.FirstGrantDate, 3, interval, reference), true
	case RepeatHalfYear:
		return nextBoundaryDate(p.FirstGrantDate, 6, interval, reference), true
	case RepeatYearly:
		return nextYearlyDate(p, reference), true
	}
	return Date{}, false
}

func nextDailyDate(first Date, interval int, reference Date) Date {
	elapsed := reference.DaysSince(first)
	steps := elapsed/interval + 1
	return first.AddDays(steps * interval)
}

// nextBoundaryDate steps over the 1st of calendar periods of unitMonths
// months, anchored at the period containing firstGrantDate. Quarters and
// half-years align to calendar boundaries (Jan/Apr/Jul/Oct and Jan/Jul).
func nextBoundaryDate(first Date, unitMonths, interval int, reference Date) Date {
	anchorMonth := (int(first.Month()) - 1) / unitMonths * unitMonths
	anchor := NewDate(first.Year(), time.Month(anchorMonth+1), 1)

	step := unitMonths * interval
	elapsed := monthsBetween(anchor, reference)
	steps := elapsed/step + 1
	return anchor.AddMonths(steps * step)
}

func nextYearlyDate(p *VacationPolicy, reference Date) Date {
	interval := p.RepeatInterval
	if interval < 1 {
		interval = 1
	}
	elapsed := reference.Year() - p.FirstGrantDate.Year()
	if elapsed < 0 {
		elapsed = 0
	}
	steps := elapsed/interval + 1
	year := p.FirstGrantDate.Year() + steps*interval

	month := int(p.FirstGrantDate.Month())
	day := p.FirstGrantDate.Day()
	if p.SpecificMonth != nil {
		month = *p.SpecificMonth
	}
	if p.SpecificDay != nil {
		day = *p.SpecificDay
	}
	return ClampedDate(year, time.Month(month), day)
}

// monthsBetween counts whole calendar months from a to b's month.
func monthsBetween(a, b Date) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
