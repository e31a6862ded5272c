// Package civiltime handles the day-boundary arithmetic for the single
// civil timezone the crew lives in. All instants passed around the rest
// of the codebase are UTC; this package is the only place that knows how
// to translate them into local wall-clock terms.
package civiltime

import (
	"fmt"
	"time"
)

// Zone is a fixed IANA timezone the whole deployment is pinned to.
type Zone struct {
	name string
	loc  *time.Location
}

func LoadZone(name string) (*Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", name, err)
	}
	return &Zone{name: name, loc: loc}, nil
}

func (z *Zone) Name() string { return z.name }

// Parts returns the civil date/time of t as observed in the zone.
func (z *Zone) Parts(t time.Time) (year int, month time.Month, day, hour, min, sec int) {
	lt := t.In(z.loc)
	year, month, day = lt.Date()
	hour, min, sec = lt.Clock()
	return
}

// At builds the UTC instant for a wall-clock time in the zone. The zone's
// UTC offset at that date is applied, so DST transitions come out right.
func (z *Zone) At(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, z.loc).UTC()
}

// SameDay reports whether a and b fall on the same civil day in the zone.
func (z *Zone) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(z.loc).Date()
	by, bm, bd := b.In(z.loc).Date()
	return ay == by && am == bm && ad == bd
}

// DayWindow is the daily posting window: two fixed wall-clock hours on
// whatever civil day an instant falls on.
type DayWindow struct {
	Zone      *Zone
	StartHour int
	EndHour   int
}

// Validate rejects hour configurations that cannot form a window.
func (w DayWindow) Validate() error {
	if w.Zone == nil {
		return fmt.Errorf("day window: zone is nil")
	}
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("day window: invalid hours %d..%d", w.StartHour, w.EndHour)
	}
	return nil
}

// Bounds returns the window's start and end instants for the civil day
// that t falls on.
func (w DayWindow) Bounds(t time.Time) (start, end time.Time) {
	y, m, d, _, _, _ := w.Zone.Parts(t)
	start = w.Zone.At(y, m, d, w.StartHour, 0, 0)
	end = w.Zone.At(y, m, d, w.EndHour, 0, 0)
	return start, end
}

// Contains reports whether t lies inside the window of its own civil day.
func (w DayWindow) Contains(t time.Time) bool {
	start, end := w.Bounds(t)
	return !t.Before(start) && !t.After(end)
}
