package pointer

// Status describes the pointer outcome of a single frame.
type Status int

const (
	// StatusNoHand means the frame carried no landmarks.
	StatusNoHand Status = iota
	// StatusOutOfRegion means the strict policy rejected the palm position.
	StatusOutOfRegion
	// StatusSuppressed means the new position fell inside the dead zone.
	StatusSuppressed
	// StatusMoved means a new cursor position was emitted.
	StatusMoved
)

func (s Status) String() string {
	switch s {
	case StatusNoHand:
		return "no-hand"
	case StatusOutOfRegion:
		return "out-of-region"
	case StatusSuppressed:
		return "suppressed"
	case StatusMoved:
		return "moved"
	default:
		return "unknown"
	}
}

// DeadZone holds the last emitted cursor position and suppresses moves that
// stay within Radius of it.
type DeadZone struct {
	radius float64
	last   Point
	hasPos bool
}

// NewDeadZone creates a DeadZone with the given radius in screen pixels.
func NewDeadZone(radius float64) *DeadZone {
	return &DeadZone{radius: radius}
}

// Filter returns StatusMoved and records p when no position was emitted yet or
// p is at least Radius away from the last one. Otherwise it returns StatusSuppressed
// and leaves the recorded position untouched.
func (d *DeadZone) Filter(p Point) Status {
	if d.hasPos && p.Distance(d.last) < d.radius {
		return StatusSuppressed
	}
	d.last = p
	d.hasPos = true
	return StatusMoved
}

// Last returns the last emitted position, if any.
func (d *DeadZone) Last() (Point, bool) {
	return d.last, d.hasPos
}

// Radius returns the configured radius.
func (d *DeadZone) Radius() float64 {
	return d.radius
}
