package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []core.TransactionEvent
	err    error
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, e core.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type fakeInvalidator struct {
	owners []string
}

func (i *fakeInvalidator) Invalidate(owner string) {
	i.owners = append(i.owners, owner)
}

func ptr[T any](v T) *T { return &v }

func newTestService(pub EventPublisher, inv ReportInvalidator) *TransactionService {
	svc := NewTransactionService(memory.New(), pub, inv, 10)
	var n int
	svc.newID = func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validFields() core.TransactionFields {
	amt := core.MoneyFromInt(12)
	return core.TransactionFields{
		Type:        ptr(core.Expense),
		Category:    ptr("food"),
		Amount:      &amt,
		Description: ptr("lunch"),
	}
}

func TestTransactionService_Create(t *testing.T) {
	pub := &fakePublisher{}
	inv := &fakeInvalidator{}
	svc := newTestService(pub, inv)
	ctx := context.Background()

	got, err := svc.Create(ctx, "alice", validFields())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.ID != "tx-1" || got.Owner != "alice" || got.Category != "food" {
		t.Errorf("Create() = %+v", got)
	}
	if !got.Date.Time.Equal(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Create() date = %v", got.Date)
	}

	if len(pub.events) != 1 || pub.events[0].Kind != core.EventCreated || pub.events[0].TransactionID != "tx-1" {
		t.Errorf("published events = %+v", pub.events)
	}
	if len(inv.owners) != 1 || inv.owners[0] != "alice" {
		t.Errorf("invalidated owners = %v", inv.owners)
	}
}

func TestTransactionService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.TransactionFields)
		field  string
	}{
		{"missing type", func(f *core.TransactionFields) { f.Type = nil }, "type"},
		{"unknown type", func(f *core.TransactionFields) { f.Type = ptr(core.TransactionType("transfer")) }, "type"},
		{"missing category", func(f *core.TransactionFields) { f.Category = nil }, "category"},
		{"blank category", func(f *core.TransactionFields) { f.Category = ptr("  ") }, "category"},
		{"missing amount", func(f *core.TransactionFields) { f.Amount = nil }, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			svc := newTestService(pub, nil)
			f := validFields()
			tt.mutate(&f)

			_, err := svc.Create(context.Background(), "alice", f)
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Create() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.field)
			}
			if len(pub.events) != 0 {
				t.Error("no event should be published for a rejected create")
			}
		})
	}
}

func TestTransactionService_PublishFailureDoesNotFailRequest(t *testing.T) {
	svc := newTestService(&fakePublisher{err: errors.New("broker down")}, nil)

	if _, err := svc.Create(context.Background(), "alice", validFields()); err != nil {
		t.Fatalf("Create() error = %v, want nil when publishing fails", err)
	}
}

func TestTransactionService_List(t *testing.T) {
	svc := newTestService(nil, nil)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if _, err := svc.Create(ctx, "alice", validFields()); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Create(ctx, "bob", validFields()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantCount int
		wantFirst string
	}{
		{"first page", 1, 1, 10, "tx-1"},
		{"second page", 2, 2, 5, "tx-11"},
		{"zero defaults to first", 0, 1, 10, "tx-1"},
		{"negative defaults to first", -3, 1, 10, "tx-1"},
		{"past the end", 3, 3, 0, ""},
		{"offset would overflow", math.MaxInt / 5, math.MaxInt / 5, 0, ""},
		{"max int", math.MaxInt, math.MaxInt, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.List(ctx, "alice", tt.page)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Page != tt.wantPage || res.Pages != 2 || len(res.Transactions) != tt.wantCount {
				t.Fatalf("List() = page %d pages %d count %d", res.Page, res.Pages, len(res.Transactions))
			}
			if res.Transactions == nil {
				t.Fatal("List() transactions must be non-nil")
			}
			if tt.wantFirst != "" && res.Transactions[0].ID != tt.wantFirst {
				t.Errorf("first id = %s, want %s", res.Transactions[0].ID, tt.wantFirst)
			}
		})
	}

	t.Run("empty owner has zero pages", func(t *testing.T) {
		res, err := svc.List(ctx, "carol", 1)
		if err != nil {
			t.Fatal(err)
		}
		if res.Pages != 0 || len(res.Transactions) != 0 {
			t.Errorf("List() = %+v", res)
		}
	})
}

func TestTransactionService_StoresFieldsVerbatim(t *testing.T) {
	svc := newTestService(nil, nil)
	ctx := context.Background()

	long := strings.Repeat("é", 600)
	f := validFields()
	f.Category = ptr(" food ")
	f.Description = ptr(long)

	created, err := svc.Create(ctx, "alice", f)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.GetByID(ctx, "alice", created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Category != " food " {
		t.Errorf("Category = %q, want %q", got.Category, " food ")
	}
	if got.Description != long {
		t.Errorf("Description has %d runes, want 600", len([]rune(got.Description)))
	}

	updated, err := svc.Update(ctx, "alice", created.ID, core.TransactionFields{Category: ptr("\trent\n")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Category != "\trent\n" {
		t.Errorf("updated Category = %q", updated.Category)
	}
}

func TestTransactionService_Ownership(t *testing.T) {
	svc := newTestService(nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", validFields())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetByID(ctx, "bob", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetByID() as other owner error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Update(ctx, "bob", created.ID, validFields()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update() as other owner error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "bob", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() as other owner error = %v, want ErrNotFound", err)
	}

	if _, err := svc.GetByID(ctx, "alice", created.ID); err != nil {
		t.Errorf("record should survive foreign mutations: %v", err)
	}
}

func TestTransactionService_UpdateReplacesAllFields(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", validFields())
	if err != nil {
		t.Fatal(err)
	}

	amt := core.MoneyFromInt(30)
	updated, err := svc.Update(ctx, "alice", created.ID, core.TransactionFields{Amount: &amt})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Type != "" || updated.Category != "" || updated.Description != "" {
		t.Errorf("omitted fields should be cleared, got %+v", updated)
	}
	if updated.Amount == nil || updated.Amount.Cmp(amt) != 0 {
		t.Errorf("Update() amount = %v, want 30", updated.Amount)
	}
	if !updated.Date.Time.Equal(created.Date.Time) {
		t.Error("update must not touch the date")
	}

	got, err := svc.GetByID(ctx, "alice", created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Category != "" || got.Amount == nil {
		t.Errorf("stored record = %+v", got)
	}

	if last := pub.events[len(pub.events)-1]; last.Kind != core.EventUpdated {
		t.Errorf("last event kind = %s, want updated", last.Kind)
	}
}

func TestTransactionService_UpdateRejectsUnknownType(t *testing.T) {
	svc := newTestService(nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", validFields())
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Update(ctx, "alice", created.ID, core.TransactionFields{Type: ptr(core.TransactionType("gift"))})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Update() error = %v, want ValidationError", err)
	}
}

func TestTransactionService_Delete(t *testing.T) {
	pub := &fakePublisher{}
	inv := &fakeInvalidator{}
	svc := newTestService(pub, inv)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", validFields())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, "alice", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(ctx, "alice", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v", err)
	}
	if err := svc.Delete(ctx, "alice", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	if len(pub.events) != 2 || pub.events[1].Kind != core.EventDeleted || pub.events[1].Owner != "alice" {
		t.Errorf("published events = %+v", pub.events)
	}
	if len(inv.owners) != 2 {
		t.Errorf("invalidations = %v, want one per successful mutation", inv.owners)
	}
}
