package gesture

import "time"

// DefaultCooldown is the minimum time between two accepted gesture changes.
const DefaultCooldown = 500 * time.Millisecond

// State is the debouncer's view of gesture intent.
type State struct {
	// Current is the label observed on the most recent frame, in display form.
	Current string `json:"current"`
	// Accepted is the canonical label that last passed debouncing.
	Accepted string `json:"accepted"`
	// AcceptedAt is when Accepted last changed, or when the debouncer was created.
	AcceptedAt time.Time `json:"accepted_at"`
}

// Debouncer accepts a new gesture only after the cooldown has elapsed since the
// previous accepted change. A held gesture is therefore reported as changed once.
type Debouncer struct {
	cooldown time.Duration
	state    State
}

// NewDebouncer creates a Debouncer with an empty accepted label whose cooldown
// window starts at start.
func NewDebouncer(cooldown time.Duration, start time.Time) *Debouncer {
	return &Debouncer{
		cooldown: cooldown,
		state:    State{AcceptedAt: start},
	}
}

// Observe feeds one frame's top label (or "") into the debouncer and returns
// the accepted canonical label and whether it changed on this call.
func (d *Debouncer) Observe(label string, now time.Time) (string, bool) {
	d.state.Current = label

	observed := Canonical(label)
	if observed == d.state.Accepted {
		return d.state.Accepted, false
	}
	if now.Sub(d.state.AcceptedAt) <= d.cooldown {
		return d.state.Accepted, false
	}

	d.state.Accepted = observed
	d.state.AcceptedAt = now
	return observed, true
}

// State returns a copy of the current state.
func (d *Debouncer) State() State {
	return d.state
}

// Cooldown returns the configured cooldown.
func (d *Debouncer) Cooldown() time.Duration {
	return d.cooldown
}

// SetCooldown changes the cooldown for subsequent observations.
func (d *Debouncer) SetCooldown(cooldown time.Duration) {
	d.cooldown = cooldown
}
