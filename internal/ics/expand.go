package ics

import (
	"time"

	"github.com/teambition/rrule-go"
)

// Safety cap so a malformed rule cannot expand without bound.
const maxOccurrencesPerEntry = 1000

// Expand turns entries into concrete occurrences inside [from, to],
// expanding RRULEs and honoring EXDATE, with every occurrence converted to
// loc for display. Non-recurring entries pass through when they intersect
// the window. The result is chronologically ordered.
func Expand(entries []Entry, from, to time.Time, loc *time.Location) []Entry {
	if loc == nil {
		loc = time.Local
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.RawRRule == "" {
			if e.End.After(from) && e.Start.Before(to) {
				out = append(out, inLocation(e, e.Start, e.End, loc))
			}
			continue
		}
		out = append(out, expandRecurring(e, from, to, loc)...)
	}
	sortEntries(out)
	return out
}

func expandRecurring(e Entry, from, to time.Time, loc *time.Location) []Entry {
	r, err := rrule.StrToRRule(e.RawRRule)
	if err != nil {
		// Unparseable rule: fall back to the base occurrence.
		if e.End.After(from) && e.Start.Before(to) {
			return []Entry{inLocation(e, e.Start, e.End, loc)}
		}
		return nil
	}
	r.DTStart(e.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range e.ExDates {
		set.ExDate(ex.In(e.Start.Location()))
	}

	times := set.Between(from.In(e.Start.Location()), to.In(e.Start.Location()), true)
	if len(times) > maxOccurrencesPerEntry {
		times = times[:maxOccurrencesPerEntry]
	}

	dur := e.End.Sub(e.Start)
	out := make([]Entry, 0, len(times))
	for _, start := range times {
		end := start.Add(dur)
		if e.AllDay {
			day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			start, end = day, day.Add(24*time.Hour)
		}
		out = append(out, inLocation(e, start, end, loc))
	}
	return out
}

func inLocation(e Entry, start, end time.Time, loc *time.Location) Entry {
	occ := e
	occ.RawRRule = ""
	occ.ExDates = nil
	occ.Start = start.In(loc)
	occ.End = end.In(loc)
	return occ
}
