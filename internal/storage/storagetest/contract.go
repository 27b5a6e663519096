// Package storagetest holds the behaviour every storage.Store adapter must
// share. Adapter packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Run exercises s against the store contract. s must start empty.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	t.Run("InsertAndFindOne", func(t *testing.T) { testInsertAndFindOne(t, newStore(t)) })
	t.Run("OwnerIsolation", func(t *testing.T) { testOwnerIsolation(t, newStore(t)) })
	t.Run("Pagination", func(t *testing.T) { testPagination(t, newStore(t)) })
	t.Run("ReplaceClearsOmittedFields", func(t *testing.T) { testReplace(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("FindInRange", func(t *testing.T) { testFindInRange(t, newStore(t)) })
	t.Run("Events", func(t *testing.T) { testEvents(t, newStore(t)) })
}

var base = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func str(s string) *string { return &s }

func typ(v core.TransactionType) *core.TransactionType { return &v }

func money(t *testing.T, s string) *core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse money %q: %v", s, err)
	}
	return &m
}

func seed(t *testing.T, s storage.Store, id, owner, category, amount string, at time.Time) core.Transaction {
	t.Helper()
	tx := core.NewTransaction(id, owner, core.TransactionFields{
		Type:        typ(core.Expense),
		Category:    str(category),
		Amount:      money(t, amount),
		Description: str("desc " + id),
	}, at)
	got, err := s.Insert(context.Background(), tx)
	if err != nil {
		t.Fatalf("insert %s: %v", id, err)
	}
	return got
}

func testInsertAndFindOne(t *testing.T, s storage.Store) {
	ctx := context.Background()
	want := seed(t, s, "t1", "alice", "food", "12.50", base)

	got, err := s.FindOne(ctx, "alice", "t1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != want.ID || got.Owner != "alice" || got.Category != "food" || got.Type != core.Expense {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Amount == nil || got.Amount.Cmp(*want.Amount) != 0 {
		t.Fatalf("amount = %v, want %v", got.Amount, want.Amount)
	}
	if got.Date.Millis() != want.Date.Millis() {
		t.Fatalf("date = %s, want %s", got.Date, want.Date)
	}
	if got.Description != "desc t1" {
		t.Fatalf("description = %q", got.Description)
	}
}

func testOwnerIsolation(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, "a1", "alice", "food", "1", base)

	if _, err := s.FindOne(ctx, "bob", "a1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("bob read alice's record: %v", err)
	}
	if _, err := s.Replace(ctx, "bob", "a1", core.TransactionFields{Category: str("x")}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("bob updated alice's record: %v", err)
	}
	if err := s.Delete(ctx, "bob", "a1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("bob deleted alice's record: %v", err)
	}
	list, err := s.FindByOwner(ctx, "bob", 10, 0)
	if err != nil || len(list) != 0 {
		t.Fatalf("bob list = %v, %v", list, err)
	}
	if got, _ := s.FindOne(ctx, "alice", "a1"); got.Category != "food" {
		t.Fatalf("alice's record changed: %+v", got)
	}
}

func testPagination(t *testing.T, s storage.Store) {
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		// Dates run backwards so insertion order differs from date order.
		seed(t, s, fmt.Sprintf("p%02d", i), "alice", "misc", "1", base.Add(-time.Duration(i)*time.Hour))
	}
	seed(t, s, "other", "bob", "misc", "1", base)

	n, err := s.CountByOwner(ctx, "alice")
	if err != nil || n != 15 {
		t.Fatalf("count = %d, %v", n, err)
	}

	page2, err := s.FindByOwner(ctx, "alice", 10, 10)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2) != 5 {
		t.Fatalf("page 2 has %d records, want 5", len(page2))
	}
	for i, tx := range page2 {
		if want := fmt.Sprintf("p%02d", 10+i); tx.ID != want {
			t.Fatalf("page2[%d] = %s, want %s", i, tx.ID, want)
		}
	}
}

func testReplace(t *testing.T, s storage.Store) {
	ctx := context.Background()
	orig := seed(t, s, "r1", "alice", "food", "20", base)

	got, err := s.Replace(ctx, "alice", "r1", core.TransactionFields{Category: str("travel")})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got.Category != "travel" || got.Type != "" || got.Amount != nil || got.Description != "" {
		t.Fatalf("replace should clear omitted fields, got %+v", got)
	}
	if got.ID != orig.ID || got.Owner != "alice" || got.Date.Millis() != orig.Date.Millis() {
		t.Fatalf("identity changed: %+v", got)
	}

	again, err := s.FindOne(ctx, "alice", "r1")
	if err != nil {
		t.Fatalf("find after replace: %v", err)
	}
	if again.Category != "travel" || again.Amount != nil {
		t.Fatalf("stored record = %+v", again)
	}

	if _, err := s.Replace(ctx, "alice", "missing", core.TransactionFields{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("replace missing: %v", err)
	}
}

func testDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, "d1", "alice", "food", "3", base)

	if err := s.Delete(ctx, "alice", "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.FindOne(ctx, "alice", "d1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("find after delete: %v", err)
	}
	if err := s.Delete(ctx, "alice", "d1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func testFindInRange(t *testing.T, s storage.Store) {
	ctx := context.Background()
	seed(t, s, "late", "alice", "food", "1", base.Add(48*time.Hour))
	seed(t, s, "early", "alice", "food", "1", base)
	seed(t, s, "tie", "alice", "food", "1", base)
	seed(t, s, "out", "alice", "food", "1", base.AddDate(0, 1, 0))
	seed(t, s, "bob", "bob", "food", "1", base)

	r, err := core.NormalizeDateRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	got, err := s.FindInRange(ctx, "alice", r)
	if err != nil {
		t.Fatalf("find in range: %v", err)
	}
	var ids []string
	for _, tx := range got {
		ids = append(ids, tx.ID)
	}
	if fmt.Sprint(ids) != "[early tie late]" {
		t.Fatalf("ids = %v, want [early tie late]", ids)
	}

	inverted, _ := core.NormalizeDateRange("2024-02-01", "2024-01-01")
	got, err = s.FindInRange(ctx, "alice", inverted)
	if err != nil || len(got) != 0 {
		t.Fatalf("inverted range = %v, %v", got, err)
	}
}

func testEvents(t *testing.T, s storage.Store) {
	ctx := context.Background()
	tx := core.Transaction{ID: "e1", Owner: "alice"}
	for i, kind := range []core.EventKind{core.EventCreated, core.EventUpdated, core.EventDeleted} {
		ev := core.NewTransactionEvent(kind, tx, base.Add(time.Duration(i)*time.Minute))
		if err := s.InsertEvent(ctx, ev); err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}
	if err := s.InsertEvent(ctx, core.NewTransactionEvent(core.EventCreated, core.Transaction{ID: "b1", Owner: "bob"}, base)); err != nil {
		t.Fatalf("insert event: %v", err)
	}

	got, err := s.EventsByOwner(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(got) != 2 || got[0].Kind != core.EventDeleted || got[1].Kind != core.EventUpdated {
		t.Fatalf("events = %+v", got)
	}
	if got[0].TransactionID != "e1" || got[0].Owner != "alice" {
		t.Fatalf("event fields = %+v", got[0])
	}
}
