package enums

import "fmt"

// Period partitions snapshots by reporting window.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

var validPeriods = []Period{
	PeriodDaily,
	PeriodWeekly,
	PeriodMonthly,
	PeriodYearly,
}

// String implements fmt.Stringer.
func (p Period) String() string {
	return string(p)
}

// IsValid reports whether the period is recognized.
func (p Period) IsValid() bool {
	for _, candidate := range validPeriods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePeriod converts a raw token into a Period. Matching is exact: tokens
// are not trimmed or lower-cased before comparison.
func ParsePeriod(value string) (Period, error) {
	for _, candidate := range validPeriods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid period %q, must be one of %v", value, validPeriods)
}

// Periods returns the allowed values in declaration order.
func Periods() []Period {
	periods := make([]Period, len(validPeriods))
	copy(periods, validPeriods)
	return periods
}
