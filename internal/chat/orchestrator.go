package chat

import (
	"strings"
	"time"

	"github.com/BouchraBenGhazala/PlanIQ/internal/calendar"
)

// RequestState tracks the single-flight request cycle. Making the state an
// explicit enum (rather than a bare bool) keeps illegal concurrent
// submissions unrepresentable: Submit only arms while idle, and completions
// only land while in flight.
type RequestState int

const (
	StateIdle RequestState = iota
	StateInFlight
)

// DefaultRefreshDelay is how long after a calendar-affecting reply the embed
// is reloaded, giving the calendar provider time to reflect the change.
const DefaultRefreshDelay = time.Second

// Completion describes what a finished round-trip did: the appended reply and
// whether it armed a calendar refresh.
type Completion struct {
	Reply            Message
	RefreshScheduled bool
	RefreshSeq       uint64
	RefreshDelay     time.Duration
}

// Orchestrator converts one user submission into exactly one outbound
// payload, exactly one transcript append of the result (reply or the fixed
// error message), and an optional calendar-panel side effect.
//
// The orchestrator owns state transitions only; the caller owns the actual
// transport call. This keeps the cycle testable without a network and lets
// the TUI drive the call as a bubbletea command:
//
//	payload, ok := o.Submit(input)   // idle -> in flight, optimistic append
//	... POST payload ...
//	o.CompleteSuccess(reply)         // or o.CompleteFailure()
type Orchestrator struct {
	conv  *Conversation
	panel *calendar.Panel
	state RequestState

	refreshDelay time.Duration
}

func NewOrchestrator(conv *Conversation, panel *calendar.Panel) *Orchestrator {
	return &Orchestrator{
		conv:         conv,
		panel:        panel,
		refreshDelay: DefaultRefreshDelay,
	}
}

// State reports the current request state.
func (o *Orchestrator) State() RequestState { return o.state }

// Pending reports whether a request is in flight.
func (o *Orchestrator) Pending() bool { return o.state == StateInFlight }

// Submit starts one request cycle. It returns the outbound payload (the full
// transcript up to and including the new user message, in chronological
// order) and whether the submission was accepted.
//
// A submission is silently ignored while a request is in flight or when the
// trimmed text is empty. That is intentional backpressure, not an error. The
// trim applies only to the guard; the stored content is the text as typed.
func (o *Orchestrator) Submit(userText string) ([]Message, bool) {
	if o.state != StateIdle || strings.TrimSpace(userText) == "" {
		return nil, false
	}
	o.state = StateInFlight
	o.conv.Append(Message{Role: RoleUser, Content: userText})
	return o.conv.Snapshot(), true
}

// CompleteSuccess finishes the in-flight cycle with the assistant's reply.
// The reply is appended and, when it reads like a schedule change, the
// calendar panel is opened and a deferred refresh is armed.
func (o *Orchestrator) CompleteSuccess(reply string) Completion {
	if o.state != StateInFlight {
		return Completion{}
	}
	o.state = StateIdle

	msg := Message{Role: RoleAssistant, Content: reply}
	o.conv.Append(msg)

	done := Completion{Reply: msg}
	if calendar.TriggersRefresh(reply) {
		done.RefreshScheduled = true
		done.RefreshSeq = o.panel.OpenAndScheduleRefresh()
		done.RefreshDelay = o.refreshDelay
	}
	return done
}

// CompleteFailure finishes the in-flight cycle after a transport failure. The
// user message stays in the transcript; the fixed backend-unreachable reply
// is appended after it. Calendar state is left untouched and the conversation
// remains submittable.
func (o *Orchestrator) CompleteFailure() Completion {
	if o.state != StateInFlight {
		return Completion{}
	}
	o.state = StateIdle

	msg := Message{Role: RoleAssistant, Content: ErrBackendUnreachable}
	o.conv.Append(msg)
	return Completion{Reply: msg}
}
