package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"lotofacil_sync/internal/domain"
)

type SavedBetStore struct {
	db *sqlx.DB
}

func NewSavedBetStore(db *sqlx.DB) *SavedBetStore {
	return &SavedBetStore{db: db}
}

// Create stores bet and fills in its id and creation time.
func (s *SavedBetStore) Create(ctx context.Context, bet *domain.SavedBet) error {
	query := `
		INSERT INTO saved_bets (owner, numbers, source)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	row := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		bet.Owner,
		pq.Array(toInt64s(bet.Numbers)),
		bet.Source,
	)
	return row.Scan(&bet.ID, &bet.CreatedAt)
}

// List returns the owner's bets, newest first.
func (s *SavedBetStore) List(ctx context.Context, owner string) ([]domain.SavedBet, error) {
	query := `
		SELECT id, owner, numbers, source, created_at
		FROM saved_bets
		WHERE owner = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bets := []domain.SavedBet{}
	for rows.Next() {
		var (
			b       domain.SavedBet
			numbers pq.Int64Array
		)
		if err := rows.Scan(&b.ID, &b.Owner, &numbers, &b.Source, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Numbers = make([]int, len(numbers))
		for i, n := range numbers {
			b.Numbers[i] = int(n)
		}
		bets = append(bets, b)
	}

	return bets, rows.Err()
}

// Delete removes one of the owner's bets. Another owner's id is reported
// as not found.
func (s *SavedBetStore) Delete(ctx context.Context, owner string, id int64) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM saved_bets WHERE id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrBetNotFound
	}
	return nil
}
