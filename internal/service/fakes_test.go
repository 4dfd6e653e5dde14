package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dukerupert/scribble/internal/model"
	"github.com/dukerupert/scribble/internal/store"
)

var errStoreDown = errors.New("store down")

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]model.User
	fail   error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int64]model.User)}
}

func (m *memUsers) Create(_ context.Context, email, firstName, passwordHash string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, u := range m.byID {
		if u.Email == email {
			return nil, store.ErrDuplicateEmail
		}
	}
	m.nextID++
	u := model.User{ID: m.nextID, Email: email, FirstName: firstName, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.byID[u.ID] = u
	return &u, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) countEmail(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.byID {
		if u.Email == email {
			n++
		}
	}
	return n
}

type memNotes struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]model.Note
	fail   error
}

func newMemNotes() *memNotes {
	return &memNotes{byID: make(map[int64]model.Note)}
}

func (m *memNotes) Create(_ context.Context, ownerID int64, content string) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	m.nextID++
	n := model.Note{ID: m.nextID, Content: content, OwnerID: ownerID, CreatedAt: time.Now()}
	m.byID[n.ID] = n
	return &n, nil
}

func (m *memNotes) GetByID(_ context.Context, id int64) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	n, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *memNotes) ListByOwner(_ context.Context, ownerID int64) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var out []model.Note
	for _, n := range m.byID {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memNotes) DeleteOwned(_ context.Context, id, ownerID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	n, ok := m.byID[id]
	if !ok || n.OwnerID != ownerID {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

func (m *memNotes) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memSessions struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]model.Session
	fail   error
}

func newMemSessions() *memSessions {
	return &memSessions{byID: make(map[int64]model.Session)}
}

func (m *memSessions) Create(_ context.Context, userID int64, remember bool, ttl time.Duration) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	m.nextID++
	s := model.Session{
		ID:        m.nextID,
		Token:     fmt.Sprintf("token-%d", m.nextID),
		UserID:    userID,
		Remember:  remember,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	m.byID[s.ID] = s
	return &s, nil
}

func (m *memSessions) GetByToken(_ context.Context, token string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, s := range m.byID {
		if s.Token == token && s.ExpiresAt.After(time.Now()) {
			return &s, nil
		}
	}
	return nil, nil
}

func (m *memSessions) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	delete(m.byID, id)
	return nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}
