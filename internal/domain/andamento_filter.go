package domain

import "time"

// SeenState narrows a listing to seen or unseen entries.
type SeenState string

const (
	SeenStateAll    SeenState = "all"
	SeenStateSeen   SeenState = "seen"
	SeenStateUnseen SeenState = "unseen"
)

// ParseSeenState maps user input to a SeenState, defaulting to all.
func ParseSeenState(raw string) (SeenState, error) {
	switch SeenState(raw) {
	case "", SeenStateAll:
		return SeenStateAll, nil
	case SeenStateSeen:
		return SeenStateSeen, nil
	case SeenStateUnseen:
		return SeenStateUnseen, nil
	default:
		return "", &ValidationError{Field: "seen", Message: "must be all, seen or unseen"}
	}
}

// Period bounds the transition timestamp of listed entries.
type Period string

const (
	PeriodAny     Period = ""
	PeriodToday   Period = "today"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
)

// ParsePeriod maps user input to a Period, defaulting to no bound.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case PeriodAny, PeriodToday, PeriodWeek, PeriodMonth, PeriodQuarter:
		return Period(raw), nil
	default:
		return "", &ValidationError{Field: "period", Message: "must be today, week, month or quarter"}
	}
}

// Start returns the inclusive lower bound of the period relative to now,
// or nil when the period does not bound the listing.
func (p Period) Start(now time.Time) *time.Time {
	var start time.Time
	switch p {
	case PeriodToday:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeek:
		start = now.AddDate(0, 0, -7)
	case PeriodMonth:
		start = now.AddDate(0, -1, 0)
	case PeriodQuarter:
		start = now.AddDate(0, -3, 0)
	default:
		return nil
	}
	return &start
}

// AndamentoFilter selects history entries for listing, bulk seen updates
// and stats. Search matches subject name, subject document or protocol as
// a case-insensitive substring.
type AndamentoFilter struct {
	Search         string
	NewStatus      string
	PreviousStatus string
	SeenState      SeenState
	Period         Period
}

// Page bounds a listing. Limit is clamped by the repository.
type Page struct {
	Limit  int
	Offset int
}
