package historyrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
)

// PostgresRepository stores history rows in the history table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Append inserts a record. Records are never updated.
func (r *PostgresRepository) Append(ctx context.Context, rec history.Record) (history.Record, error) {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return history.Record{}, fmt.Errorf("encode history metadata: %w", err)
	}
	keywords := rec.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO history (id, user_id, action, summary_text, keywords, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, user_id, action, summary_text, keywords, metadata, created_at
	`, rec.ID, rec.UserID, string(rec.Action), rec.SummaryText, keywords, metadata, rec.CreatedAt)
	return scanRecord(row)
}

// ListRecent returns the newest records of a user first.
func (r *PostgresRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]history.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, user_id, action, summary_text, keywords, metadata, created_at
		FROM history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []history.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteByUser removes every record of the user.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM history WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (history.Record, error) {
	var (
		rec      history.Record
		action   string
		metadata []byte
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &action, &rec.SummaryText, &rec.Keywords, &metadata, &rec.CreatedAt); err != nil {
		return history.Record{}, err
	}
	rec.Action = history.Action(action)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return history.Record{}, fmt.Errorf("decode history metadata: %w", err)
		}
	}
	return rec, nil
}

var _ history.Repository = (*PostgresRepository)(nil)
