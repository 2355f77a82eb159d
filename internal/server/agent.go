package server

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/BouchraBenGhazala/PlanIQ/internal/chat"
	"github.com/BouchraBenGhazala/PlanIQ/internal/store"
)

// Agent is the deterministic "brain" behind /chat: it classifies the latest
// user message into a calendar intent and runs it against the event store.
// It follows the same rules the hosted assistant was prompted with: check the
// schedule before booking, ask for a time when none is given, keep replies
// concise. Replies to successful bookings start with "Done" so the client's
// refresh heuristic fires.
type Agent struct {
	store *store.EventStore
	loc   *time.Location
	now   func() time.Time
}

func NewAgent(st *store.EventStore, loc *time.Location) *Agent {
	if loc == nil {
		loc = time.Local
	}
	return &Agent{store: st, loc: loc, now: time.Now}
}

type intent int

const (
	intentUnknown intent = iota
	intentList
	intentCreate
	intentCancel
	intentMove
)

// Reply answers the newest user message in the transcript.
func (a *Agent) Reply(ctx context.Context, transcript []chat.Message) (string, error) {
	text := latestUserText(transcript)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no user message in transcript")
	}

	switch classify(text) {
	case intentList:
		return a.listEvents(ctx)
	case intentCancel:
		return a.cancelEvent(ctx, text)
	case intentMove:
		return a.moveEvent(ctx, text)
	case intentCreate:
		return a.createEvent(ctx, text)
	default:
		return "I can check your schedule, or book, cancel, and move events on the Demo Calendar. " +
			`Try: "Schedule lunch with Dana tomorrow at noon".`, nil
	}
}

func latestUserText(transcript []chat.Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == chat.RoleUser {
			return transcript[i].Content
		}
	}
	return ""
}

// classify maps free text to an intent. Order matters: "reschedule" contains
// "schedule" and "remove" contains "move", so cancel words are checked before
// move words and both before create words.
func classify(text string) intent {
	lower := strings.ToLower(text)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("cancel", "delete", "remove", "drop "):
		return intentCancel
	case has("reschedule", "move", "postpone", "push back"):
		return intentMove
	case has("schedule", "book", "block", "add ", "set up", "plan "):
		return intentCreate
	case has("list", "show", "what", "upcoming", "agenda", "free", "busy"):
		return intentList
	default:
		return intentUnknown
	}
}

func (a *Agent) listEvents(ctx context.Context) (string, error) {
	events, err := a.store.Upcoming(ctx, a.now(), 10)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "No upcoming events found.", nil
	}
	var b strings.Builder
	b.WriteString("Here is your upcoming schedule:\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "- **%s** — %s\n", ev.Title, a.formatWhen(ev.Start))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (a *Agent) createEvent(ctx context.Context, text string) (string, error) {
	start, matched, ok := parseWhen(text, a.now(), a.loc)
	title := extractTitle(text, matched)
	if title == "" {
		title = "New event"
	}
	if !ok {
		return fmt.Sprintf("What time should I schedule %q? For example: tomorrow at 2 PM.", title), nil
	}
	end := start.Add(time.Hour)

	// Check the calendar first to avoid double-booking.
	conflicts, err := a.store.Overlapping(ctx, start, end)
	if err != nil {
		return "", err
	}
	if len(conflicts) > 0 {
		return fmt.Sprintf("That slot conflicts with **%s** (%s). Pick another time and I'll add it.",
			conflicts[0].Title, a.formatWhen(conflicts[0].Start)), nil
	}

	ev, err := a.store.Create(ctx, store.Event{Title: title, Start: start, End: end})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Done, scheduled **%s** for %s.", ev.Title, a.formatWhen(ev.Start)), nil
}

func (a *Agent) cancelEvent(ctx context.Context, text string) (string, error) {
	_, matched, _ := parseWhen(text, a.now(), a.loc)
	title := extractTitle(text, matched)
	if title == "" {
		return "Which event should I cancel?", nil
	}
	ev, err := a.store.DeleteByTitle(ctx, title, a.now())
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("I couldn't find an upcoming event matching %q.", title), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Done, cancelled **%s** (%s).", ev.Title, a.formatWhen(ev.Start)), nil
}

func (a *Agent) moveEvent(ctx context.Context, text string) (string, error) {
	start, matched, ok := parseWhen(text, a.now(), a.loc)
	title := extractTitle(text, matched)
	if title == "" {
		return "Which event should I move, and to when?", nil
	}
	if !ok {
		return fmt.Sprintf("When should I move %q to? For example: Friday at 10 AM.", title), nil
	}

	events, err := a.store.Upcoming(ctx, a.now(), 100)
	if err != nil {
		return "", err
	}
	lower := strings.ToLower(title)
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), lower) {
			dur := ev.End.Sub(ev.Start)
			ev.Start = start
			ev.End = start.Add(dur)
			if err := a.store.Update(ctx, ev); err != nil {
				return "", err
			}
			return fmt.Sprintf("Done, moved **%s** to %s.", ev.Title, a.formatWhen(ev.Start)), nil
		}
	}
	return fmt.Sprintf("I couldn't find an upcoming event matching %q.", title), nil
}

func (a *Agent) formatWhen(t time.Time) string {
	return t.In(a.loc).Format("Mon, Jan 2 at 3:04 PM")
}

// ---- natural-language time parsing ----

var (
	dayRe  = regexp.MustCompile(`(?i)\b(today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	timeRe = regexp.MustCompile(`(?i)\b(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?\b`)
	nounRe = regexp.MustCompile(`(?i)\b(?:at\s+)?(noon|midnight)\b`)
)

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

// parseWhen finds a day/time expression in text. It returns the resolved
// start time, the matched substrings (for removal from the title), and
// whether a usable clock time was found. A bare day without a clock time is
// not enough to book.
func parseWhen(text string, now time.Time, loc *time.Location) (time.Time, []string, bool) {
	now = now.In(loc)
	var matched []string

	day := now
	dayExplicit := false
	if m := dayRe.FindString(text); m != "" {
		matched = append(matched, m)
		dayExplicit = true
		switch strings.ToLower(m) {
		case "today":
			// day = now
		case "tomorrow":
			day = now.AddDate(0, 0, 1)
		default:
			target := weekdays[strings.ToLower(m)]
			days := (int(target) - int(now.Weekday()) + 7) % 7
			if days == 0 {
				days = 7
			}
			day = now.AddDate(0, 0, days)
		}
	}

	hour, minute := -1, 0
	if m := nounRe.FindStringSubmatch(text); m != nil {
		matched = append(matched, m[0])
		if strings.EqualFold(m[1], "noon") {
			hour = 12
		} else {
			hour = 0
		}
	} else if m := timeRe.FindStringSubmatch(text); m != nil {
		h := atoi(m[1])
		mer := strings.ToLower(strings.ReplaceAll(m[3], ".", ""))
		// A bare number with no meridiem and no minutes ("with 2 people")
		// is too ambiguous to treat as a time.
		if mer == "" && m[2] == "" && h < 8 {
			// skip
		} else if h >= 0 && h <= 23 {
			matched = append(matched, m[0])
			hour = h
			minute = atoi(m[2])
			if mer == "pm" && h < 12 {
				hour = h + 12
			}
			if mer == "am" && h == 12 {
				hour = 0
			}
		}
	}

	if hour < 0 {
		return time.Time{}, matched, false
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	if !dayExplicit && start.Before(now) {
		start = start.AddDate(0, 0, 1)
	}
	return start, matched, true
}

var leadVerbRe = regexp.MustCompile(`(?i)^(please\s+|can you\s+|could you\s+)*(schedule|book|block(\s+time(\s+for)?)?|add|set up|plan|cancel|delete|remove|drop|reschedule|move|postpone)\s+`)

// extractTitle strips the verb phrase and any matched time expressions from
// the user's text, leaving the event title.
func extractTitle(text string, matchedWhen []string) string {
	t := strings.TrimSpace(text)
	t = leadVerbRe.ReplaceAllString(t, "")
	for _, m := range matchedWhen {
		t = strings.Replace(t, m, "", 1)
	}
	t = strings.Trim(t, " .,!?")
	for _, prefix := range []string{"a ", "an ", "the ", "my ", "for "} {
		if strings.HasPrefix(strings.ToLower(t), prefix) {
			t = t[len(prefix):]
		}
	}
	t = strings.Join(strings.Fields(t), " ")
	t = strings.TrimSuffix(t, " at")
	t = strings.TrimSuffix(t, " on")
	t = strings.TrimSuffix(t, " to")
	if t == "" {
		return ""
	}
	return strings.ToUpper(t[:1]) + t[1:]
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}
