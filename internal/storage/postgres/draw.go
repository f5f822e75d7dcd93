package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"lotofacil_sync/internal/domain"
)

const drawBatchSize = 500

type DrawStore struct {
	db *sqlx.DB
}

func NewDrawStore(db *sqlx.DB) *DrawStore {
	return &DrawStore{db: db}
}

// UpsertBatch indexes draws by contest id, replacing date and numbers of
// contests already present.
func (s *DrawStore) UpsertBatch(ctx context.Context, draws []domain.LocalDraw) error {
	exec := GetExecutor(ctx, s.db)

	for start := 0; start < len(draws); start += drawBatchSize {
		end := start + drawBatchSize
		if end > len(draws) {
			end = len(draws)
		}
		if err := s.upsertChunk(ctx, exec, draws[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *DrawStore) upsertChunk(ctx context.Context, exec sqlx.ExtContext, draws []domain.LocalDraw) error {
	// Duplicate ids inside one statement make ON CONFLICT fail; the last entry wins.
	seen := make(map[int]int, len(draws))
	unique := make([]domain.LocalDraw, 0, len(draws))
	for _, d := range draws {
		if i, ok := seen[d.ID]; ok {
			unique[i] = d
			continue
		}
		seen[d.ID] = len(unique)
		unique = append(unique, d)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO draws (contest_id, draw_date, numbers) VALUES ")
	valueArgs := make([]interface{}, 0, len(unique)*3)

	for i, d := range unique {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($")
		sb.WriteString(strconv.Itoa(i*3 + 1))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(i*3 + 2))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(i*3 + 3))
		sb.WriteString(")")
		valueArgs = append(valueArgs, d.ID, d.Date, pq.Array(toInt64s(d.Numbers)))
	}
	sb.WriteString(` ON CONFLICT (contest_id) DO UPDATE SET
		draw_date = EXCLUDED.draw_date,
		numbers = EXCLUDED.numbers,
		updated_at = NOW()`)

	_, err := exec.ExecContext(ctx, sb.String(), valueArgs...)
	return err
}

// Recent returns the latest indexed draws, newest contest first.
func (s *DrawStore) Recent(ctx context.Context, limit int) ([]domain.LocalDraw, error) {
	query := `
		SELECT contest_id, draw_date, numbers
		FROM draws
		ORDER BY contest_id DESC
		LIMIT $1`

	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	draws := make([]domain.LocalDraw, 0, limit)
	for rows.Next() {
		var (
			d       domain.LocalDraw
			numbers pq.Int64Array
		)
		if err := rows.Scan(&d.ID, &d.Date, &numbers); err != nil {
			return nil, err
		}
		d.Numbers = make([]int, len(numbers))
		for i, n := range numbers {
			d.Numbers[i] = int(n)
		}
		draws = append(draws, d)
	}

	return draws, rows.Err()
}

func toInt64s(numbers []int) []int64 {
	out := make([]int64, len(numbers))
	for i, n := range numbers {
		out[i] = int64(n)
	}
	return out
}
