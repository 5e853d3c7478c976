package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NoteRepository implements domain.NoteArchive using PostgreSQL
type NoteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

// SaveNote appends a compatibility note to the archive
func (r *NoteRepository) SaveNote(ctx context.Context, note *domain.Note) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notes (id, amount, memo, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		int64(note.ID),
		bigIntToNumeric(note.Amount),
		note.Memo,
		note.RecordedBy.String(),
		note.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}

// NoteByID retrieves an archived note by its sequence id
func (r *NoteRepository) NoteByID(ctx context.Context, id uint64) (*domain.Note, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, amount, memo, recorded_by, recorded_at
		FROM notes WHERE id = $1`,
		int64(id),
	)
	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

// RecentNotes lists archived notes newest-first
func (r *NoteRepository) RecentNotes(ctx context.Context, limit int) ([]*domain.Note, error) {
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	if limit > domain.MaxListLimit {
		limit = domain.MaxListLimit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, amount, memo, recorded_by, recorded_at
		FROM notes ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var (
		note       domain.Note
		id         int64
		amount     pgtype.Numeric
		recordedBy string
	)
	if err := row.Scan(&id, &amount, &note.Memo, &recordedBy, &note.Timestamp); err != nil {
		return nil, err
	}

	note.ID = uint64(id)
	note.RecordedBy = domain.Address(recordedBy)

	var err error
	if note.Amount, err = numericToBigInt(amount); err != nil {
		return nil, err
	}
	return &note, nil
}
