package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeon/internal/game/mastery"
)

var _ mastery.Store = (*MasteryRepository)(nil)

// MasteryRepository keeps the mastery blob as one JSONB row of mastery_records.
type MasteryRepository struct {
	db  *pgxpool.Pool
	key string
}

// NewMasteryRepository creates a MasteryRepository for the row named key.
//
// Precondition: db must be a valid, open connection pool; key must be non-empty.
func NewMasteryRepository(db *pgxpool.Pool, key string) *MasteryRepository {
	if db == nil {
		panic("postgres: NewMasteryRepository precondition violated: db must not be nil")
	}
	if key == "" {
		panic("postgres: NewMasteryRepository precondition violated: key must be non-empty")
	}
	return &MasteryRepository{db: db, key: key}
}

// Key returns the row key.
func (r *MasteryRepository) Key() string { return r.key }

// Load reads the row. A missing row yields empty data.
//
// Postcondition: Returns the decoded data or a non-nil error.
func (r *MasteryRepository) Load(ctx context.Context) (mastery.Data, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM mastery_records WHERE key = $1`, r.key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mastery.Data{}, nil
		}
		return nil, fmt.Errorf("querying mastery record %q: %w", r.key, err)
	}
	return mastery.Unmarshal(raw)
}

// Save upserts the row with d.
//
// Postcondition: a later Load returns data equal to d.
func (r *MasteryRepository) Save(ctx context.Context, d mastery.Data) error {
	raw, err := mastery.Marshal(d)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO mastery_records (key, data, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		r.key, string(raw),
	)
	if err != nil {
		return fmt.Errorf("saving mastery record %q: %w", r.key, err)
	}
	return nil
}

// Delete removes the row. Deleting a missing row is not an error.
func (r *MasteryRepository) Delete(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM mastery_records WHERE key = $1`, r.key); err != nil {
		return fmt.Errorf("deleting mastery record %q: %w", r.key, err)
	}
	return nil
}
