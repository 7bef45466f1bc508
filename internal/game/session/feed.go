package session

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
)

// NoticeKind names a run notice. Consumers render the text.
type NoticeKind string

const (
	NoticePhase       NoticeKind = "phase"
	NoticeBattle      NoticeKind = "battle"
	NoticeVictory     NoticeKind = "victory_rewards"
	NoticeMastery     NoticeKind = "mastery_awarded"
	NoticeRest        NoticeKind = "rest"
	NoticeTreasure    NoticeKind = "treasure"
	NoticeLuck        NoticeKind = "luck"
	NoticeFloor       NoticeKind = "floor_advanced"
	NoticePurchase    NoticeKind = "purchase"
	NoticeSale        NoticeKind = "sale"
	NoticeNewEnemy    NoticeKind = "new_enemy"
	NoticeConsumable  NoticeKind = "consumable_used"
	NoticeContinue    NoticeKind = "continue"
	NoticeAutoBuy     NoticeKind = "auto_purchase"
	NoticeAttributes  NoticeKind = "attributes_distributed"
	NoticeRunComplete NoticeKind = "run_complete"
)

// Notice is one structured message for the presentation layer.
type Notice struct {
	Kind   NoticeKind     `json:"kind"`
	Phase  Phase          `json:"phase"`
	Events []combat.Event `json:"events,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// Feed routes run notices to a buffered channel, bridging the run to
// whatever presents it.
type Feed struct {
	runID   string
	notices chan Notice
	mu      sync.Mutex
	closed  bool
}

// NewFeed creates a Feed for the given run.
//
// Postcondition: Returns a Feed with an open notices channel; a non-positive
// bufferSize selects 64.
func NewFeed(runID string, bufferSize int) *Feed {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Feed{
		runID:   runID,
		notices: make(chan Notice, bufferSize),
	}
}

// RunID returns the run the feed belongs to.
func (f *Feed) RunID() string {
	return f.runID
}

// Push enqueues n without blocking.
//
// Postcondition: n is enqueued, or an error is returned if the feed is closed or full.
func (f *Feed) Push(n Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("feed %s is closed", f.runID)
	}
	select {
	case f.notices <- n:
		return nil
	default:
		return fmt.Errorf("feed %s notice buffer full", f.runID)
	}
}

// Notices returns the read-only notices channel.
func (f *Feed) Notices() <-chan Notice {
	return f.notices
}

// Drain returns every notice currently buffered without blocking.
func (f *Feed) Drain() []Notice {
	var out []Notice
	for {
		select {
		case n, ok := <-f.notices:
			if !ok {
				return out
			}
			out = append(out, n)
		default:
			return out
		}
	}
}

// Close marks the feed as closed and closes the notices channel.
//
// Postcondition: The notices channel is closed. Further Push calls return an error.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.closed {
		f.closed = true
		close(f.notices)
	}
	return nil
}

// IsClosed reports whether the feed has been closed.
func (f *Feed) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
