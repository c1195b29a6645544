// Package billing derives credit card statement dates.
//
// A card closes its statement on a fixed day of the month (the cut-off day)
// and expects payment on another fixed day (the payment due day). Both dates
// for a purchase are found by anchoring: moving a reference date forward to
// the next occurrence of a day-of-month.
package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cycle day bounds accepted for cut-off and payment due days.
const (
	MinCycleDay = 1
	MaxCycleDay = 30
)

var (
	// ErrInvalidCycleDay indicates a cycle day outside [MinCycleDay, MaxCycleDay].
	ErrInvalidCycleDay = errors.New("cycle day must be between 1 and 30")
	// ErrDayNotInMonth indicates the anchored day does not exist in the target month.
	// Only returned under the Strict policy.
	ErrDayNotInMonth = errors.New("cycle day does not exist in target month")
	// ErrUnknownPolicy indicates an unrecognized policy name.
	ErrUnknownPolicy = errors.New("unknown day policy")
)

// Policy decides what happens when a cycle day is past the end of the target month.
type Policy int

const (
	// Clamp moves the anchored date to the last day of the target month.
	Clamp Policy = iota
	// Strict rejects the anchor with ErrDayNotInMonth.
	Strict
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	default:
		return "clamp"
	}
}

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return Clamp, nil
	case "strict":
		return Strict, nil
	default:
		return Clamp, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// ValidateCycleDay checks that day can be used as a cut-off or payment due day.
func ValidateCycleDay(day int) error {
	if day < MinCycleDay || day > MaxCycleDay {
		return ErrInvalidCycleDay
	}
	return nil
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Schedule holds the dates derived for one purchase.
type Schedule struct {
	CutOff  time.Time
	Payment time.Time
}

// Calculator anchors dates under a fixed day policy. The zero value uses Clamp.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	policy Policy
}

// NewCalculator returns a Calculator using the given policy.
func NewCalculator(policy Policy) Calculator {
	return Calculator{policy: policy}
}

// Policy returns the calculator's day policy.
func (c Calculator) Policy() Policy {
	return c.policy
}

// Anchor returns the nearest date on or after ref whose day of month is cycleDay.
// The current month is used when ref's day is not past cycleDay, otherwise the
// following month. The result is a date at midnight UTC.
func (c Calculator) Anchor(ref time.Time, cycleDay int) (time.Time, error) {
	if err := ValidateCycleDay(cycleDay); err != nil {
		return time.Time{}, err
	}

	year, month, day := ref.Date()
	if day > cycleDay {
		// time.Date normalizes month 13 into January of the next year.
		next := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
		year, month = next.Year(), next.Month()
	}

	target := cycleDay
	if last := DaysIn(year, month); target > last {
		if c.policy == Strict {
			return time.Time{}, fmt.Errorf("%w: day %d in %s %d", ErrDayNotInMonth, cycleDay, month, year)
		}
		target = last
	}

	return time.Date(year, month, target, 0, 0, 0, 0, time.UTC), nil
}

// Schedule derives the statement cut-off date from the purchase date and then
// the payment date from the cut-off date.
func (c Calculator) Schedule(effective time.Time, cutOffDay, paymentDueDay int) (Schedule, error) {
	cutOff, err := c.Anchor(effective, cutOffDay)
	if err != nil {
		return Schedule{}, fmt.Errorf("anchor cut-off date: %w", err)
	}

	payment, err := c.Anchor(cutOff, paymentDueDay)
	if err != nil {
		return Schedule{}, fmt.Errorf("anchor payment date: %w", err)
	}

	return Schedule{CutOff: cutOff, Payment: payment}, nil
}

// Anchor anchors ref to cycleDay using the Clamp policy.
func Anchor(ref time.Time, cycleDay int) (time.Time, error) {
	return Calculator{}.Anchor(ref, cycleDay)
}
