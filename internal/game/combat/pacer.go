package combat

import (
	"context"
	"fmt"
	"time"
)

// DefaultTick is the nominal clock period at 1x speed.
const DefaultTick = 250 * time.Millisecond

// Stepper is anything advanced one tick at a time.
type Stepper interface {
	Advance() []Event
	Done() bool
}

// Pacer drives a Stepper in real time for presentation.
type Pacer struct {
	// Tick is the clock period at 1x speed.
	Tick time.Duration
	// Speed divides Tick; valid values are 1 to 3.
	Speed int
	// OnEvents, when non-nil, receives every non-empty batch of events.
	OnEvents func([]Event)
}

// NewPacer returns a pacer running at tick / speed.
//
// Precondition: tick > 0 and 1 <= speed <= 3.
func NewPacer(tick time.Duration, speed int, onEvents func([]Event)) *Pacer {
	if tick <= 0 {
		panic(fmt.Sprintf("combat: NewPacer precondition violated: tick %s <= 0", tick))
	}
	if speed < 1 || speed > 3 {
		panic(fmt.Sprintf("combat: NewPacer precondition violated: speed %d outside [1, 3]", speed))
	}
	return &Pacer{Tick: tick, Speed: speed, OnEvents: onEvents}
}

// Interval returns the wall-clock period between ticks.
func (p *Pacer) Interval() time.Duration {
	return p.Tick / time.Duration(p.Speed)
}

// Run advances s once per interval until it is done or ctx is cancelled.
//
// Postcondition: returns nil when s is done, or ctx.Err() when cancelled;
// no tick starts after cancellation is observed.
func (p *Pacer) Run(ctx context.Context, s Stepper) error {
	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()
	for !s.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if events := s.Advance(); len(events) > 0 && p.OnEvents != nil {
				p.OnEvents(events)
			}
		}
	}
	return nil
}
