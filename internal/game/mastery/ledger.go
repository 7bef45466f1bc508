package mastery

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Ledger is the in-memory mastery record backed by a Store.
//
// Store failures are logged and never surface to callers: a failed load
// starts from empty data, and a failed save keeps the in-memory update.
// Ledger is safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	store  Store
	logger *zap.Logger
	data   Data
}

// NewLedger loads the ledger from store.
//
// Precondition: store and logger must be non-nil.
// Postcondition: the ledger holds the stored data, or empty data when the
// load failed.
func NewLedger(ctx context.Context, store Store, logger *zap.Logger) *Ledger {
	if store == nil || logger == nil {
		panic("mastery: NewLedger precondition violated: store and logger must be non-nil")
	}
	l := &Ledger{store: store, logger: logger, data: Data{}}
	d, err := store.Load(ctx)
	if err != nil {
		logger.Error("loading mastery data", zap.Error(err))
		return l
	}
	if d != nil {
		l.data = d.Clone()
	}
	logger.Debug("mastery data loaded", zap.Int("characters", len(l.data)))
	return l
}

// Get returns the record for characterID; unknown characters have a zero record.
func (l *Ledger) Get(characterID string) Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data[characterID].Clone()
}

// All returns a copy of every record.
func (l *Ledger) All() Data {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.Clone()
}

// Award adds points to characterID's total and persists the ledger.
//
// Postcondition: points <= 0 is a no-op that does not touch the store;
// otherwise the returned record's TotalPoints grew by points.
func (l *Ledger) Award(ctx context.Context, characterID string, points int) Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	if points <= 0 {
		return l.data[characterID].Clone()
	}
	r := l.data[characterID].Clone()
	r.TotalPoints += points
	l.data[characterID] = r
	l.logger.Info("mastery points awarded",
		zap.String("character", characterID),
		zap.Int("points", points),
		zap.Int("total", r.TotalPoints),
	)
	l.persist(ctx)
	return r.Clone()
}

// persist saves a snapshot. The caller holds l.mu.
func (l *Ledger) persist(ctx context.Context) {
	if err := l.store.Save(ctx, l.data.Clone()); err != nil {
		l.logger.Error("saving mastery data", zap.Error(err))
	}
}
