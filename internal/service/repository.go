package service

import (
	"context"
	"time"

	"github.com/dukerupert/scribble/internal/model"
)

// UserRepository persists user identities. Lookups return nil, nil when
// nothing matches. Create returns store.ErrDuplicateEmail on a taken email.
type UserRepository interface {
	Create(ctx context.Context, email, firstName, passwordHash string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// NoteRepository persists notes. DeleteOwned must check ownership and
// delete in one atomic step.
type NoteRepository interface {
	Create(ctx context.Context, ownerID int64, content string) (*model.Note, error)
	GetByID(ctx context.Context, id int64) (*model.Note, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Note, error)
	DeleteOwned(ctx context.Context, id, ownerID int64) (bool, error)
}

// SessionRepository persists login sessions. GetByToken ignores expired rows.
type SessionRepository interface {
	Create(ctx context.Context, userID int64, remember bool, ttl time.Duration) (*model.Session, error)
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, id int64) error
}
