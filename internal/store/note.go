package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/scribble/internal/model"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	err := scanner.Scan(&n.ID, &n.Content, &n.OwnerID, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

const noteCols = `id, content, owner_id, created_at`

func (s *NoteStore) Create(ctx context.Context, ownerID int64, content string) (*model.Note, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (content, owner_id) VALUES (?, ?)`,
		content, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *NoteStore) GetByID(ctx context.Context, id int64) (*model.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteCols+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// ListByOwner returns the owner's notes, newest first.
func (s *NoteStore) ListByOwner(ctx context.Context, ownerID int64) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteCols+` FROM notes WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// DeleteOwned deletes the note only if it belongs to ownerID. The ownership
// check and the delete are one statement, so of two racing callers at most
// one gets true.
func (s *NoteStore) DeleteOwned(ctx context.Context, id, ownerID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return count > 0, nil
}
