package domain

import (
	"errors"
	"fmt"
	"time"
)

// Instrument names and physical observables understood by VSO.
const (
	InstrumentAIA = "AIA"
	InstrumentHMI = "HMI"

	PhysobsLOSMagneticField = "LOS_magnetic_field"
)

// TimeRange is a closed interval used as a search filter.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Filter is a conjunction of search attributes. An empty Physobs matches any
// observable.
type Filter struct {
	Time       TimeRange
	Instrument string
	Physobs    string
}

// Validate reports whether the filter can be submitted.
func (f Filter) Validate() error {
	if f.Instrument == "" {
		return errors.New("filter instrument is required")
	}
	if f.Time.Start.IsZero() || f.Time.End.IsZero() {
		return errors.New("filter time range is required")
	}
	if f.Time.End.Before(f.Time.Start) {
		return fmt.Errorf("filter time range ends before it starts: %s < %s",
			f.Time.End.Format(time.RFC3339), f.Time.Start.Format(time.RFC3339))
	}
	return nil
}

// Query is a disjunction of filters; a record matches if any filter does.
type Query []Filter

// Or returns a query matching either q or the given filters.
func (q Query) Or(filters ...Filter) Query {
	out := make(Query, 0, len(q)+len(filters))
	out = append(out, q...)
	return append(out, filters...)
}

// Validate checks every filter of the query.
func (q Query) Validate() error {
	if len(q) == 0 {
		return errors.New("query has no filters")
	}
	for i, f := range q {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("filter %d: %w", i, err)
		}
	}
	return nil
}

// TimeWindow holds the observation start and the per-instrument end instants.
type TimeWindow struct {
	Start  time.Time
	AIAEnd time.Time
	HMIEnd time.Time
}

// NewTimeWindow derives both end instants from a start and two spans.
func NewTimeWindow(start time.Time, aiaSpan, hmiSpan time.Duration) TimeWindow {
	return TimeWindow{
		Start:  start,
		AIAEnd: start.Add(aiaSpan),
		HMIEnd: start.Add(hmiSpan),
	}
}

// Query builds the AIA | HMI(LOS magnetic field) search.
func (w TimeWindow) Query() Query {
	aia := Filter{
		Time:       TimeRange{Start: w.Start, End: w.AIAEnd},
		Instrument: InstrumentAIA,
	}
	hmi := Filter{
		Time:       TimeRange{Start: w.Start, End: w.HMIEnd},
		Instrument: InstrumentHMI,
		Physobs:    PhysobsLOSMagneticField,
	}
	return Query{aia}.Or(hmi)
}
