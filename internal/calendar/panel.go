package calendar

import (
	"strconv"
	"strings"
	"time"
)

// Panel owns the embedded-calendar side panel: its visibility and the
// cache-busting scheme for the embed URL.
//
// The embed provider caches aggressively, so every refresh appends a fresh
// nocache token to force a reload. The token is strictly monotonic, which
// guarantees two consecutive refreshes always produce distinct URLs even
// within the same wall-clock millisecond.
//
// Deferred refreshes are sequence-numbered rather than timer-owned: arming a
// refresh returns a sequence, and the due refresh applies only if that
// sequence is still the outstanding one. Teardown (Cancel) and supersession
// by a newer armed refresh both invalidate stale timers without any shared
// timer state.
type Panel struct {
	baseURL    string
	displayURL string
	isOpen     bool

	lastToken  int64
	refreshSeq uint64 // outstanding scheduled refresh; 0 = none
	seqCounter uint64

	now func() time.Time
}

// NewPanel returns a closed panel whose display URL is the bare base URL
// (no token until the first refresh).
func NewPanel(baseURL string) *Panel {
	return &Panel{
		baseURL:    baseURL,
		displayURL: baseURL,
		now:        time.Now,
	}
}

// BaseURL returns the configured embed address.
func (p *Panel) BaseURL() string { return p.baseURL }

// DisplayURL returns the current embed address including any cache-busting
// token. It always starts with the base URL.
func (p *Panel) DisplayURL() string { return p.displayURL }

// IsOpen reports panel visibility.
func (p *Panel) IsOpen() bool { return p.isOpen }

// Toggle flips panel visibility. No other side effect.
func (p *Panel) Toggle() { p.isOpen = !p.isOpen }

// Refresh recomputes the display URL with a fresh cache-busting token. It
// does not touch visibility; a refresh while closed simply takes effect the
// next time the panel is opened.
func (p *Panel) Refresh() {
	token := p.now().UnixMilli()
	if token <= p.lastToken {
		token = p.lastToken + 1
	}
	p.lastToken = token

	sep := "?"
	if strings.Contains(p.baseURL, "?") {
		sep = "&"
	}
	p.displayURL = p.baseURL + sep + "nocache=" + strconv.FormatInt(token, 10)
}

// OpenAndScheduleRefresh opens the panel immediately and arms one deferred
// refresh, superseding any refresh still outstanding. The returned sequence
// must be passed back via CompleteScheduledRefresh when the delay elapses.
func (p *Panel) OpenAndScheduleRefresh() uint64 {
	p.isOpen = true
	p.seqCounter++
	p.refreshSeq = p.seqCounter
	return p.refreshSeq
}

// CompleteScheduledRefresh performs the refresh armed under seq. It reports
// whether the refresh was applied; a stale sequence (superseded or cancelled)
// is a no-op.
func (p *Panel) CompleteScheduledRefresh(seq uint64) bool {
	if seq == 0 || seq != p.refreshSeq {
		return false
	}
	p.refreshSeq = 0
	p.Refresh()
	return true
}

// RefreshPending reports whether a scheduled refresh is outstanding.
func (p *Panel) RefreshPending() bool { return p.refreshSeq != 0 }

// CancelScheduledRefresh drops any outstanding scheduled refresh. Call on
// teardown so a due timer never acts on a stale or absent panel.
func (p *Panel) CancelScheduledRefresh() { p.refreshSeq = 0 }
