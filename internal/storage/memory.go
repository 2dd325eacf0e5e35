package storage

import "sync"

// MemoryStore is an in-process Store. GetErr and SetErr, when non-nil, are
// returned instead of touching the data.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]bool
	writes []map[string]bool

	GetErr error
	SetErr error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(initial map[string]bool) *MemoryStore {
	values := make(map[string]bool, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

func (s *MemoryStore) Get(defaults map[string]bool) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	out := make(map[string]bool, len(defaults))
	for key, def := range defaults {
		if v, ok := s.values[key]; ok {
			out[key] = v
		} else {
			out[key] = def
		}
	}
	return out, nil
}

func (s *MemoryStore) Set(values map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	write := make(map[string]bool, len(values))
	for k, v := range values {
		s.values[k] = v
		write[k] = v
	}
	s.writes = append(s.writes, write)
	return nil
}

// Value returns the stored value for key and whether it was ever written.
func (s *MemoryStore) Value(key string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Writes returns every successful Set call in order.
func (s *MemoryStore) Writes() []map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]bool, len(s.writes))
	copy(out, s.writes)
	return out
}
