package service

import (
	"sync"
	"time"

	"device_console/internal/models"
)

// viewStore holds the page state. Readers get copies.
type viewStore struct {
	mu  sync.RWMutex
	v   models.View
	now func() time.Time
}

func newViewStore(now func() time.Time) *viewStore {
	v := models.InitialView()
	v.UpdatedAt = now().UTC()
	return &viewStore{v: v, now: now}
}

func (s *viewStore) snapshot() models.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyView(s.v)
}

func (s *viewStore) generation() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.Generation
}

func (s *viewStore) update(fn func(v *models.View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.v)
	s.v.UpdatedAt = s.now().UTC()
}

// updateAt applies fn only if no reload happened since gen was read.
func (s *viewStore) updateAt(gen int, fn func(v *models.View)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.v.Generation != gen {
		return false
	}
	fn(&s.v)
	s.v.UpdatedAt = s.now().UTC()
	return true
}

// reload starts a new page load and returns its generation.
func (s *viewStore) reload() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := models.InitialView()
	next.Generation = s.v.Generation + 1
	next.UpdatedAt = s.now().UTC()
	s.v = next
	return next.Generation
}

func copyView(v models.View) models.View {
	if v.CredentialErrors != nil {
		v.CredentialErrors = append([]string(nil), v.CredentialErrors...)
	}
	return v
}
