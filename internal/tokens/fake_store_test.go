package tokens

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/store"
	"github.com/google/uuid"
)

// memStore is an in-memory store.TokenStore for issuer tests.
type memStore struct {
	mu        sync.Mutex
	byHash    map[string]*models.TokenRecord
	saveErr   error
	revokeErr error
	lookupErr error
	lookups   int
}

var _ store.TokenStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{byHash: make(map[string]*models.TokenRecord)}
}

func (m *memStore) Save(_ context.Context, rec *models.TokenRecord) (*models.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if _, dup := m.byHash[rec.TokenHash]; dup && rec.ID == uuid.Nil {
		return nil, errors.New("duplicate token hash")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	cp := *rec
	m.byHash[rec.TokenHash] = &cp
	return rec, nil
}

func (m *memStore) FindByTokenHash(_ context.Context, hash string) (*models.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byHash[hash]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore) FindActiveByUser(_ context.Context, userID uuid.UUID) ([]models.TokenRecord, error) {
	return m.filter(func(r *models.TokenRecord) bool {
		return r.UserID == userID && r.Active(time.Now())
	}), nil
}

func (m *memStore) FindActiveByUserAndType(_ context.Context, userID uuid.UUID, typ models.TokenType) ([]models.TokenRecord, error) {
	return m.filter(func(r *models.TokenRecord) bool {
		return r.UserID == userID && r.TokenType == typ && r.Active(time.Now())
	}), nil
}

func (m *memStore) RevokeByHash(_ context.Context, hash, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revokeErr != nil {
		return 0, m.revokeErr
	}
	rec, ok := m.byHash[hash]
	if !ok {
		return 0, nil
	}
	revoke(rec, reason)
	return 1, nil
}

func (m *memStore) RevokeAllForUser(_ context.Context, userID uuid.UUID, reason string) (int64, error) {
	return m.revokeWhere(func(r *models.TokenRecord) bool { return r.UserID == userID }, reason), nil
}

func (m *memStore) RevokeAllForUserAndType(_ context.Context, userID uuid.UUID, typ models.TokenType, reason string) (int64, error) {
	return m.revokeWhere(func(r *models.TokenRecord) bool {
		return r.UserID == userID && r.TokenType == typ
	}, reason), nil
}

func (m *memStore) IsRevoked(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	rec, ok := m.byHash[hash]
	return ok && rec.IsRevoked, nil
}

func (m *memStore) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, r := range m.byHash {
		if r.ExpiresAt.Before(cutoff) {
			delete(m.byHash, h)
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountActiveForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	recs, _ := m.FindActiveByUser(ctx, userID)
	return int64(len(recs)), nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byHash)
}

func (m *memStore) filter(keep func(*models.TokenRecord) bool) []models.TokenRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TokenRecord
	for _, r := range m.byHash {
		if keep(r) {
			out = append(out, *r)
		}
	}
	return out
}

func (m *memStore) revokeWhere(match func(*models.TokenRecord) bool, reason string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.byHash {
		if !r.IsRevoked && match(r) {
			revoke(r, reason)
			n++
		}
	}
	return n
}

func revoke(r *models.TokenRecord, reason string) {
	now := time.Now()
	r.IsRevoked = true
	r.RevokedAt = &now
	r.RevokedReason = &reason
	r.UpdatedAt = now
}
