package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/scribble/internal/auth"
	"github.com/dukerupert/scribble/internal/model"
)

// DeleteOutcome records what a delete request actually did. Callers report
// success to the client regardless; the outcome is for logs and tests.
type DeleteOutcome int

const (
	OutcomeDeleted DeleteOutcome = iota
	OutcomeNotFound
	OutcomeNotOwner
)

func (o DeleteOutcome) String() string {
	switch o {
	case OutcomeDeleted:
		return "deleted"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeNotOwner:
		return "not_owner"
	default:
		return fmt.Sprintf("DeleteOutcome(%d)", int(o))
	}
}

type NoteService struct {
	notes  NoteRepository
	logger *slog.Logger
}

func NewNoteService(notes NoteRepository, logger *slog.Logger) *NoteService {
	return &NoteService{notes: notes, logger: logger}
}

// Create stores a note owned by ownerID.
func (s *NoteService) Create(ctx context.Context, ownerID int64, content string) (*model.Note, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	note, err := s.notes.Create(ctx, ownerID, content)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

func (s *NoteService) List(ctx context.Context, ownerID int64) ([]model.Note, error) {
	notes, err := s.notes.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Delete removes the note if caller owns it. Requests from anyone else are
// absorbed: the note is left untouched and no error is returned.
func (s *NoteService) Delete(ctx context.Context, caller auth.Identity, noteID int64) (DeleteOutcome, error) {
	outcome, err := s.delete(ctx, caller, noteID)
	if err != nil {
		return outcome, err
	}

	level := slog.LevelInfo
	if outcome == OutcomeNotOwner {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "note delete",
		"note_id", noteID,
		"caller_id", caller.UserID,
		"outcome", outcome.String())
	return outcome, nil
}

func (s *NoteService) delete(ctx context.Context, caller auth.Identity, noteID int64) (DeleteOutcome, error) {
	if caller.Anonymous() {
		return OutcomeNotOwner, nil
	}

	deleted, err := s.notes.DeleteOwned(ctx, noteID, caller.UserID)
	if err != nil {
		return OutcomeNotFound, fmt.Errorf("delete note: %w", err)
	}
	if deleted {
		return OutcomeDeleted, nil
	}

	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return OutcomeNotFound, fmt.Errorf("get note: %w", err)
	}
	if note == nil {
		return OutcomeNotFound, nil
	}
	return OutcomeNotOwner, nil
}
