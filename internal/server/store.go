package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabloom-cli/internal/explore"
)

// dataset is one uploaded file and the load options it was uploaded with.
// The bytes are kept so every request can reload through the explorer's
// memo; the parsed table itself is never stored here.
type dataset struct {
	ID       string
	Name     string
	Data     []byte
	Session  explore.Session
	Uploaded time.Time
}

// store holds uploads by uuid handle, evicting the oldest once full.
type store struct {
	mu    sync.RWMutex
	items map[string]*dataset
	order []string
	limit int
}

func newStore(limit int) *store {
	return &store{items: map[string]*dataset{}, limit: limit}
}

func (s *store) put(name string, data []byte, sess explore.Session) *dataset {
	d := &dataset{
		ID:       uuid.NewString(),
		Name:     name,
		Data:     data,
		Session:  sess,
		Uploaded: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[d.ID] = d
	s.order = append(s.order, d.ID)
	for s.limit > 0 && len(s.order) > s.limit {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
	return d
}

func (s *store) get(id string) (*dataset, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.items[id]
	return d, ok
}

func (s *store) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
