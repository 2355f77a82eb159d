package ics

import (
	"strings"
	"testing"
	"time"
)

func TestBuildParseRoundTrip(t *testing.T) {
	in := []Entry{
		{
			UID:      "evt-1",
			Summary:  "Standup",
			Location: "Room 4",
			Notes:    "daily sync",
			Start:    time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
			End:      time.Date(2026, 9, 2, 9, 15, 0, 0, time.UTC),
		},
		{
			UID:     "evt-2",
			Summary: "Lunch with Dana",
			Start:   time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC),
			End:     time.Date(2026, 9, 2, 13, 0, 0, 0, time.UTC),
		},
	}

	payload := Build("Test Calendar", in)
	if !strings.Contains(payload, "BEGIN:VCALENDAR") {
		t.Fatalf("payload missing VCALENDAR envelope")
	}

	out, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("parsed %d entries; want 2", len(out))
	}

	byUID := map[string]Entry{}
	for _, e := range out {
		byUID[e.UID] = e
	}
	got, ok := byUID["evt-1"]
	if !ok {
		t.Fatalf("evt-1 missing: %+v", out)
	}
	if got.Summary != "Standup" || got.Location != "Room 4" || got.Notes != "daily sync" {
		t.Fatalf("evt-1 fields = %+v", got)
	}
	if !got.Start.Equal(in[0].Start) || !got.End.Equal(in[0].End) {
		t.Fatalf("evt-1 times = %v / %v", got.Start, got.End)
	}
	if got.AllDay {
		t.Fatalf("timed event flagged all-day")
	}
}

func TestParseEmptyBody(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatalf("expected error on empty body")
	}
}

func TestParseSkipsMalformedVEvent(t *testing.T) {
	payload := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"SUMMARY:no uid here",
		"DTSTART:20260902T090000Z",
		"DTEND:20260902T100000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:good-1",
		"SUMMARY:Kept",
		"DTSTART:20260902T110000Z",
		"DTEND:20260902T120000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	out, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != 1 || out[0].UID != "good-1" {
		t.Fatalf("entries = %+v", out)
	}
}

func TestParseAllDay(t *testing.T) {
	payload := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:allday-1",
		"SUMMARY:Offsite",
		"DTSTART;VALUE=DATE:20260903",
		"DTEND;VALUE=DATE:20260904",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	out, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("entries = %+v", out)
	}
	if !out[0].AllDay {
		t.Fatalf("expected all-day flag on VALUE=DATE event")
	}
}

func TestExpandWindowFilter(t *testing.T) {
	entries := []Entry{
		{UID: "in", Summary: "Inside", Start: day(2), End: day(2).Add(time.Hour)},
		{UID: "out", Summary: "Outside", Start: day(20), End: day(20).Add(time.Hour)},
	}

	got := Expand(entries, day(1), day(8), time.UTC)
	if len(got) != 1 || got[0].UID != "in" {
		t.Fatalf("expanded = %+v", got)
	}
}

func TestExpandRecurring(t *testing.T) {
	weekly := Entry{
		UID:      "standup",
		Summary:  "Standup",
		Start:    time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC), // a Monday
		End:      time.Date(2026, 8, 3, 9, 15, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY;BYDAY=MO",
	}

	from := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	got := Expand([]Entry{weekly}, from, to, time.UTC)
	if len(got) != 3 {
		t.Fatalf("occurrences = %d; want 3 (%+v)", len(got), got)
	}
	want := []time.Time{
		time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC),
	}
	for i, w := range want {
		if !got[i].Start.Equal(w) {
			t.Fatalf("occurrence %d start = %v; want %v", i, got[i].Start, w)
		}
		if got[i].End.Sub(got[i].Start) != 15*time.Minute {
			t.Fatalf("occurrence %d duration = %v", i, got[i].End.Sub(got[i].Start))
		}
		if got[i].RawRRule != "" {
			t.Fatalf("occurrence %d still carries rule", i)
		}
	}
}

func TestExpandHonorsExDates(t *testing.T) {
	weekly := Entry{
		UID:      "standup",
		Summary:  "Standup",
		Start:    time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 8, 3, 9, 15, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY;BYDAY=MO",
		ExDates:  []time.Time{time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)},
	}

	from := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	got := Expand([]Entry{weekly}, from, to, time.UTC)
	if len(got) != 2 {
		t.Fatalf("occurrences = %d; want 2 (%+v)", len(got), got)
	}
	for _, occ := range got {
		if occ.Start.Day() == 7 {
			t.Fatalf("excluded date still present: %+v", occ)
		}
	}
}

func TestExpandBadRuleFallsBack(t *testing.T) {
	e := Entry{
		UID:      "broken",
		Summary:  "Broken",
		Start:    day(2),
		End:      day(2).Add(time.Hour),
		RawRRule: "FREQ=NOPE",
	}

	got := Expand([]Entry{e}, day(1), day(8), time.UTC)
	if len(got) != 1 || got[0].Summary != "Broken" {
		t.Fatalf("expanded = %+v", got)
	}
}

func TestExpandSortsChronologically(t *testing.T) {
	entries := []Entry{
		{UID: "b", Summary: "Later", Start: day(3), End: day(3).Add(time.Hour)},
		{UID: "a", Summary: "Earlier", Start: day(2), End: day(2).Add(time.Hour)},
	}

	got := Expand(entries, day(1), day(8), time.UTC)
	if len(got) != 2 || got[0].Summary != "Earlier" {
		t.Fatalf("order = %+v", got)
	}
}

func day(d int) time.Time {
	return time.Date(2026, 9, d, 10, 0, 0, 0, time.UTC)
}
