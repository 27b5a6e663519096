package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		RequestTimeout:     5 * time.Second,
		AuthHeader:         "X-User-ID",
		PageSize:           10,
		RateLimitPerMinute: 10000,
	}
}

type testServer struct {
	srv   *Server
	store storage.Store
}

func newTestServer(t *testing.T, store storage.Store) *testServer {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	reportCache := cache.NewLRUCache[core.Report](32, time.Minute)
	reports := services.NewReportService(store, reportCache)
	srv, err := NewServer(testConfig(), Deps{
		Transactions: services.NewTransactionService(store, nil, reports, 10),
		Reports:      reports,
		Store:        store,
		ReportCache:  reportCache,
		Logger:       applog.New(applog.Config{Level: slog.LevelError, Output: &bytes.Buffer{}}),
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{srv: srv, store: store}
}

func (ts *testServer) do(t *testing.T, method, target, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if owner != "" {
		r.Header.Set("X-User-ID", owner)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type message struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func TestHealthEndpointsSkipAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := ts.do(t, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}

	rec := ts.do(t, http.MethodGet, "/metrics", "", "")
	for _, want := range []string{"http_requests_total", "report_cache_hits_total", "transactions_created_total 0"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

type downStore struct{ storage.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyReportsUnreachableStore(t *testing.T) {
	ts := newTestServer(t, downStore{memory.New()})

	rec := ts.do(t, http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAPIRequiresAuthentication(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/transactions"},
		{http.MethodPost, "/api/transactions"},
		{http.MethodGet, "/api/transactions/abc"},
		{http.MethodGet, "/api/report?startDate=2024-01-01&endDate=2024-01-31"},
	} {
		rec := ts.do(t, tc.method, tc.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tc.method, tc.path, rec.Code)
			continue
		}
		if msg := decode[message](t, rec); msg.Message != "Not authorized" {
			t.Errorf("message = %q", msg.Message)
		}
	}
}

func TestCreateTransaction(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantInMsg  string
	}{
		{"valid", `{"type":"expense","category":"food","amount":12.5,"description":"lunch"}`, http.StatusCreated, ""},
		{"amount as string", `{"type":"income","category":"salary","amount":"2500.00"}`, http.StatusCreated, ""},
		{"unknown keys ignored", `{"type":"expense","category":"food","amount":1,"user":"mallory"}`, http.StatusCreated, ""},
		{"missing type", `{"category":"food","amount":1}`, http.StatusBadRequest, "type"},
		{"bad type", `{"type":"gift","category":"food","amount":1}`, http.StatusBadRequest, "type"},
		{"missing amount", `{"type":"expense","category":"food"}`, http.StatusBadRequest, "amount"},
		{"missing category", `{"type":"expense","amount":3}`, http.StatusBadRequest, "category"},
		{"malformed json", `{"type":`, http.StatusBadRequest, "Invalid request body"},
		{"non numeric amount", `{"type":"expense","category":"food","amount":"lots"}`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/transactions", "alice", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				if msg := decode[message](t, rec); !strings.Contains(msg.Message, tt.wantInMsg) {
					t.Errorf("message = %q, want it to mention %q", msg.Message, tt.wantInMsg)
				}
				return
			}
			tx := decode[core.Transaction](t, rec)
			if tx.ID == "" || tx.Owner != "alice" {
				t.Errorf("created = %+v", tx)
			}
			if rec.Header().Get("Location") != "/api/transactions/"+tx.ID {
				t.Errorf("Location = %q", rec.Header().Get("Location"))
			}
		})
	}
}

func TestCreateResponseShape(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/transactions", "alice",
		`{"type":"expense","category":"food","amount":12.5,"description":"lunch"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if raw["amount"] != 12.5 || raw["user"] != "alice" || raw["type"] != "expense" {
		t.Errorf("body = %v", raw)
	}
	date, _ := raw["date"].(string)
	if _, err := time.Parse(core.ISOLayout, date); err != nil {
		t.Errorf("date %q is not ISO-8601 with milliseconds: %v", date, err)
	}
}

func TestListPagination(t *testing.T) {
	ts := newTestServer(t, nil)

	for i := 0; i < 15; i++ {
		body := fmt.Sprintf(`{"type":"expense","category":"c","amount":%d,"description":"p%d"}`, i+1, i)
		if rec := ts.do(t, http.MethodPost, "/api/transactions", "alice", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed %d status = %d", i, rec.Code)
		}
	}

	type listBody struct {
		Transactions []core.Transaction `json:"transactions"`
		Page         int                `json:"page"`
		Pages        int                `json:"pages"`
	}

	tests := []struct {
		query     string
		wantPage  int
		wantCount int
		wantFirst string
	}{
		{"", 1, 10, "p0"},
		{"?pageNumber=2", 2, 5, "p10"},
		{"?pageNumber=abc", 1, 10, "p0"},
		{"?pageNumber=0", 1, 10, "p0"},
		{"?pageNumber=9", 9, 0, ""},
	}

	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/api/transactions"+tt.query, "alice", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			got := decode[listBody](t, rec)
			if got.Page != tt.wantPage || got.Pages != 2 || len(got.Transactions) != tt.wantCount {
				t.Fatalf("page=%d pages=%d count=%d", got.Page, got.Pages, len(got.Transactions))
			}
			if tt.wantFirst != "" && got.Transactions[0].Description != tt.wantFirst {
				t.Errorf("first = %q, want %q", got.Transactions[0].Description, tt.wantFirst)
			}
		})
	}

	rec := ts.do(t, http.MethodGet, "/api/transactions", "bob", "")
	if got := decode[listBody](t, rec); got.Pages != 0 || len(got.Transactions) != 0 || got.Transactions == nil {
		t.Errorf("bob sees %+v; want an empty array and zero pages", got)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/transactions", "alice", `{"type":"expense","category":"food","amount":5}`)
	id := decode[core.Transaction](t, rec).ID

	for _, tc := range []struct{ method, body string }{
		{http.MethodGet, ""},
		{http.MethodPut, `{"type":"income","category":"x","amount":1}`},
		{http.MethodDelete, ""},
	} {
		rec := ts.do(t, tc.method, "/api/transactions/"+id, "bob", tc.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s as bob status = %d, want 404", tc.method, rec.Code)
		}
		if msg := decode[message](t, rec); msg.Message != "Transaction not found" {
			t.Errorf("message = %q", msg.Message)
		}
	}

	rec = ts.do(t, http.MethodGet, "/api/transactions/"+id, "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner GET status = %d", rec.Code)
	}
	if got := decode[core.Transaction](t, rec); got.Category != "food" || got.Type != core.Expense {
		t.Errorf("record changed by another user: %+v", got)
	}
}

func TestGetUnknownID(t *testing.T) {
	ts := newTestServer(t, nil)
	if rec := ts.do(t, http.MethodGet, "/api/transactions/does-not-exist", "alice", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateReplacesFields(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/transactions", "alice",
		`{"type":"expense","category":"food","amount":12,"description":"lunch"}`)
	created := decode[core.Transaction](t, rec)

	rec = ts.do(t, http.MethodPut, "/api/transactions/"+created.ID, "alice", `{"amount":30}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	for _, absent := range []string{"type", "category", "description"} {
		if _, ok := raw[absent]; ok {
			t.Errorf("%s should be absent after replacement, body %v", absent, raw)
		}
	}
	if raw["amount"] != float64(30) || raw["id"] != created.ID {
		t.Errorf("body = %v", raw)
	}

	rec = ts.do(t, http.MethodPut, "/api/transactions/"+created.ID, "alice", `{"type":"transfer"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid type on update status = %d, want 400", rec.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/transactions", "alice", `{"type":"expense","category":"food","amount":5}`)
	id := decode[core.Transaction](t, rec).ID

	rec = ts.do(t, http.MethodDelete, "/api/transactions/"+id, "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decode[message](t, rec); msg.Message != "Transaction deleted successfully" {
		t.Errorf("message = %q", msg.Message)
	}

	if rec := ts.do(t, http.MethodDelete, "/api/transactions/"+id, "alice", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestReportValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		query   string
		message string
	}{
		{"?startDate=2024-01-01", "Start date and end date are required"},
		{"?endDate=2024-01-01", "Start date and end date are required"},
		{"", "Start date and end date are required"},
		{"?startDate=nope&endDate=2024-01-01", "Invalid date format"},
	}

	for _, tt := range tests {
		rec := ts.do(t, http.MethodGet, "/api/report"+tt.query, "alice", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%q status = %d, want 400", tt.query, rec.Code)
			continue
		}
		if msg := decode[message](t, rec); msg.Message != tt.message {
			t.Errorf("%q message = %q, want %q", tt.query, msg.Message, tt.message)
		}
	}
}

func TestReportScenario(t *testing.T) {
	store := memory.New()
	ts := newTestServer(t, store)

	day := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	seed := func(id, owner, category string, amount int64, desc string, at time.Time) {
		amt := core.MoneyFromInt(amount)
		typ := core.Expense
		tx := core.NewTransaction(id, owner, core.TransactionFields{
			Type: &typ, Category: &category, Amount: &amt, Description: &desc,
		}, at)
		if _, err := store.Insert(context.Background(), tx); err != nil {
			t.Fatal(err)
		}
	}
	seed("t1", "alice", "food", 12, "lunch", day)
	seed("t2", "alice", "rent", 500, "january", day.Add(time.Hour))
	seed("t3", "alice", "food", 8, "dinner", day.Add(2*time.Hour))
	seed("t4", "alice", "food", 99, "outside", day.AddDate(0, 2, 0))
	seed("t5", "bob", "food", 1000, "not alice", day)

	rec := ts.do(t, http.MethodGet, "/api/report?startDate=2024-01-01&endDate=2024-01-31", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	if strings.Index(body, `"rent"`) > strings.Index(body, `"food"`) {
		t.Errorf("categories should be ordered by total descending: %s", body)
	}

	var got struct {
		TotalExpenses float64 `json:"totalExpenses"`
		ByCategory    map[string]struct {
			Total        float64 `json:"total"`
			Count        int     `json:"count"`
			Transactions []struct {
				ID          string  `json:"id"`
				Amount      float64 `json:"amount"`
				Description string  `json:"description"`
			} `json:"transactions"`
		} `json:"byCategory"`
		DateRange struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"dateRange"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	if got.TotalExpenses != 520 {
		t.Errorf("totalExpenses = %v, want 520", got.TotalExpenses)
	}
	food := got.ByCategory["food"]
	if food.Total != 20 || food.Count != 2 || len(food.Transactions) != 2 {
		t.Errorf("food = %+v", food)
	}
	if food.Transactions[0].Description != "lunch" || food.Transactions[1].Description != "dinner" {
		t.Errorf("food items out of date order: %+v", food.Transactions)
	}
	if got.DateRange.Start != "2024-01-01T00:00:00.000Z" || got.DateRange.End != "2024-01-31T23:59:59.999Z" {
		t.Errorf("dateRange = %+v", got.DateRange)
	}
}

func TestReportReflectsNewTransactions(t *testing.T) {
	ts := newTestServer(t, nil)
	today := time.Now().UTC().Format("2006-01-02")
	target := "/api/report?startDate=" + today + "&endDate=" + today

	if rec := ts.do(t, http.MethodGet, target, "alice", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	ts.do(t, http.MethodPost, "/api/transactions", "alice", `{"type":"expense","category":"food","amount":7}`)

	rec := ts.do(t, http.MethodGet, target, "alice", "")
	if !strings.Contains(rec.Body.String(), `"totalExpenses":7`) {
		t.Errorf("cached report was not invalidated: %s", rec.Body.String())
	}
}

type failingRangeStore struct{ storage.Store }

func (failingRangeStore) FindInRange(context.Context, string, core.DateRange) ([]core.Transaction, error) {
	return nil, errors.New("query timeout")
}

func TestReportStoreFailure(t *testing.T) {
	ts := newTestServer(t, failingRangeStore{memory.New()})

	rec := ts.do(t, http.MethodGet, "/api/report?startDate=2024-01-01&endDate=2024-01-31", "alice", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	msg := decode[message](t, rec)
	if msg.Message != "Error generating report" || !strings.Contains(msg.Error, "query timeout") {
		t.Errorf("body = %+v", msg)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/transactions", "alice", "")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if !strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("X-Request-ID = %q", rec.Header().Get("X-Request-ID"))
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	ts := newTestServer(t, nil)
	if rec := ts.do(t, http.MethodGet, "/api/nothing-here", "alice", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
