package memory

import (
	"context"
	"slices"
	"sync"

	"fintrack/internal/core"
)

// Store keeps transactions in process memory. Records are held in insertion
// order so FindByOwner matches the SQL adapters' sequence ordering.
type Store struct {
	mu     sync.Mutex
	items  []core.Transaction
	events []core.TransactionEvent
}

func New() *Store {
	return &Store{}
}

// Insert stores a copy of t.
func (s *Store) Insert(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, clone(t))
	return clone(t), nil
}

func (s *Store) FindByOwner(_ context.Context, owner string, limit, offset int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []core.Transaction{}
	skipped := 0
	for _, t := range s.items {
		if t.Owner != owner {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, clone(t))
	}
	return out, nil
}

func (s *Store) CountByOwner(_ context.Context, owner string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.items {
		if t.Owner == owner {
			n++
		}
	}
	return n, nil
}

func (s *Store) FindOne(_ context.Context, owner, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(owner, id)
	if i < 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return clone(s.items[i]), nil
}

func (s *Store) Replace(_ context.Context, owner, id string, f core.TransactionFields) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(owner, id)
	if i < 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	s.items[i].Apply(f)
	return clone(s.items[i]), nil
}

func (s *Store) Delete(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(owner, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *Store) FindInRange(_ context.Context, owner string, r core.DateRange) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []core.Transaction{}
	for _, t := range s.items {
		if t.Owner == owner && r.Contains(t.Date) {
			out = append(out, clone(t))
		}
	}
	// Stable sort keeps insertion order for equal dates.
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out, nil
}

func (s *Store) InsertEvent(_ context.Context, e core.TransactionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// EventsByOwner returns the newest events first.
func (s *Store) EventsByOwner(_ context.Context, owner string, limit int) ([]core.TransactionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.TransactionEvent
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].Owner == owner {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(owner, id string) int {
	return slices.IndexFunc(s.items, func(t core.Transaction) bool {
		return t.ID == id && t.Owner == owner
	})
}

func clone(t core.Transaction) core.Transaction {
	if t.Amount != nil {
		amt := *t.Amount
		t.Amount = &amt
	}
	return t
}
