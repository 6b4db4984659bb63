package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
)

// MockTransactor runs the unit of work directly with a nil *sql.Tx.
// Stores in this package ignore the transaction.
type MockTransactor struct {
	Err   error
	Calls int
	mu    sync.Mutex
}

var _ store.Transactor = (*MockTransactor)(nil)

// RunInTransaction implements store.Transactor
func (m *MockTransactor) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx, nil)
}

// MockSessionStore is an in-memory store.SessionStore
type MockSessionStore struct {
	CreateErr error
	UpdateErr error

	mu       sync.Mutex
	sessions map[uuid.UUID]domain.GenerationSession
}

var _ store.SessionStore = (*MockSessionStore)(nil)

// NewMockSessionStore creates an empty MockSessionStore
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[uuid.UUID]domain.GenerationSession)}
}

// Create implements store.SessionStore
func (m *MockSessionStore) Create(_ context.Context, s *domain.GenerationSession) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return store.ErrDuplicate
	}
	m.sessions[s.ID] = *s
	return nil
}

// GetByID implements store.SessionStore
func (m *MockSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.GenerationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return &s, nil
}

// UpdateStatus implements store.SessionStore
func (m *MockSessionStore) UpdateStatus(_ context.Context, s *domain.GenerationSession, from domain.SessionStatus) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return store.ErrSessionNotFound
	}
	if cur.Status != from {
		return store.ErrStatusConflict
	}
	m.sessions[s.ID] = *s
	return nil
}

// WithTx implements store.SessionStore
func (m *MockSessionStore) WithTx(*sql.Tx) store.SessionStore { return m }

// Status returns the stored status of a session, or "" when unknown
func (m *MockSessionStore) Status(id uuid.UUID) domain.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id].Status
}

// Put stores s as-is
func (m *MockSessionStore) Put(s *domain.GenerationSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
}

// MockCandidateStore is an in-memory store.CandidateStore
type MockCandidateStore struct {
	CreateErr error

	mu    sync.Mutex
	cards map[uuid.UUID][]*domain.CandidateCard
}

var _ store.CandidateStore = (*MockCandidateStore)(nil)

// NewMockCandidateStore creates an empty MockCandidateStore
func NewMockCandidateStore() *MockCandidateStore {
	return &MockCandidateStore{cards: make(map[uuid.UUID][]*domain.CandidateCard)}
}

// CreateMultiple implements store.CandidateStore
func (m *MockCandidateStore) CreateMultiple(_ context.Context, cards []*domain.CandidateCard) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range cards {
		cp := *c
		m.cards[c.SessionID] = append(m.cards[c.SessionID], &cp)
	}
	return nil
}

// ListBySession implements store.CandidateStore
func (m *MockCandidateStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*domain.CandidateCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.CandidateCard, 0, len(m.cards[sessionID]))
	for _, c := range m.cards[sessionID] {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// WithTx implements store.CandidateStore
func (m *MockCandidateStore) WithTx(*sql.Tx) store.CandidateStore { return m }

// MockCardStore is an in-memory store.CardStore honoring version checks
type MockCardStore struct {
	// ConflictsBeforeSuccess makes that many UpdateSchedule calls fail with
	// store.ErrVersionConflict before the store behaves normally
	ConflictsBeforeSuccess int
	CreateErr              error

	mu          sync.Mutex
	cards       map[uuid.UUID]domain.ReviewableCard
	UpdateCalls int
}

var _ store.CardStore = (*MockCardStore)(nil)

// NewMockCardStore creates a MockCardStore holding cards
func NewMockCardStore(cards ...*domain.ReviewableCard) *MockCardStore {
	m := &MockCardStore{cards: make(map[uuid.UUID]domain.ReviewableCard)}
	for _, c := range cards {
		m.cards[c.ID] = *c
	}
	return m
}

// CreateMultiple implements store.CardStore
func (m *MockCardStore) CreateMultiple(_ context.Context, cards []*domain.ReviewableCard) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range cards {
		if _, ok := m.cards[c.ID]; ok {
			return store.ErrDuplicate
		}
	}
	for _, c := range cards {
		m.cards[c.ID] = *c
	}
	return nil
}

// GetByID implements store.CardStore
func (m *MockCardStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ReviewableCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return &c, nil
}

// UpdateSchedule implements store.CardStore
func (m *MockCardStore) UpdateSchedule(_ context.Context, card *domain.ReviewableCard, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++

	cur, ok := m.cards[card.ID]
	if !ok {
		return store.ErrCardNotFound
	}
	if m.ConflictsBeforeSuccess > 0 {
		m.ConflictsBeforeSuccess--
		// another writer advanced the card
		cur.Version++
		m.cards[card.ID] = cur
		return store.ErrVersionConflict
	}
	if cur.Version != expectedVersion {
		return store.ErrVersionConflict
	}
	card.Version = expectedVersion + 1
	m.cards[card.ID] = *card
	return nil
}

// Due implements store.CardStore
func (m *MockCardStore) Due(_ context.Context, ownerID uuid.UUID, now time.Time, limit int) ([]*domain.ReviewableCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ReviewableCard
	for _, c := range m.cards {
		if c.OwnerID == ownerID && c.IsDue(now) {
			cp := c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NextReviewDate.Before(out[j].NextReviewDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete implements store.CardStore
func (m *MockCardStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return store.ErrCardNotFound
	}
	delete(m.cards, id)
	return nil
}

// WithTx implements store.CardStore
func (m *MockCardStore) WithTx(*sql.Tx) store.CardStore { return m }

// Len returns the number of stored cards
func (m *MockCardStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cards)
}
