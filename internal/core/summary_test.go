package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func mkTx(id, category string, amount int64, day int) Transaction {
	amt := MoneyFromInt(amount)
	return Transaction{
		ID:       id,
		Type:     Expense,
		Category: category,
		Amount:   &amt,
		Date:     NewTimestamp(time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC)),
		Owner:    "u1",
	}
}

func januaryRange(t *testing.T) DateRange {
	t.Helper()
	r, err := NormalizeDateRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return r
}

func TestBuildReportGroupsAndSorts(t *testing.T) {
	txs := []Transaction{
		mkTx("1", "food", 20, 2),
		mkTx("2", "rent", 500, 3),
		mkTx("3", "food", 15, 4),
	}
	rep := BuildReport(januaryRange(t), txs)

	if got := rep.TotalExpenses.String(); got != "535" {
		t.Errorf("total = %s, want 535", got)
	}
	names := rep.ByCategory.Names()
	if strings.Join(names, ",") != "rent,food" {
		t.Fatalf("order = %v, want [rent food]", names)
	}
	food, ok := rep.ByCategory.Get("food")
	if !ok {
		t.Fatal("food bucket missing")
	}
	if food.Total.String() != "35" || food.Count != 2 {
		t.Errorf("food = %s/%d, want 35/2", food.Total, food.Count)
	}
	if food.Transactions[0].ID != "1" || food.Transactions[1].ID != "3" {
		t.Errorf("items should keep date order, got %+v", food.Transactions)
	}
}

func TestBuildReportTiesKeepFirstAppearance(t *testing.T) {
	txs := []Transaction{
		mkTx("1", "books", 10, 1),
		mkTx("2", "games", 10, 2),
		mkTx("3", "music", 10, 3),
	}
	rep := BuildReport(januaryRange(t), txs)
	if got := strings.Join(rep.ByCategory.Names(), ","); got != "books,games,music" {
		t.Fatalf("tie order = %s", got)
	}
}

func TestBuildReportTotalsMatchItems(t *testing.T) {
	txs := []Transaction{
		mkTx("1", "a", 3, 1),
		mkTx("2", "b", 7, 2),
		mkTx("3", "a", -2, 3),
		mkTx("4", "c", 11, 4),
	}
	income := mkTx("5", "salary", 1000, 5)
	income.Type = Income
	txs = append(txs, income)

	rep := BuildReport(januaryRange(t), txs)

	var sum Money
	count := 0
	for _, c := range rep.ByCategory {
		var items Money
		for _, it := range c.Transactions {
			items = items.Add(*it.Amount)
		}
		if items.Cmp(c.Total) != 0 {
			t.Errorf("%s: items sum %s != total %s", c.Name, items, c.Total)
		}
		if len(c.Transactions) != c.Count {
			t.Errorf("%s: count %d != %d items", c.Name, c.Count, len(c.Transactions))
		}
		sum = sum.Add(c.Total)
		count += c.Count
	}
	if sum.Cmp(rep.TotalExpenses) != 0 {
		t.Errorf("bucket totals %s != grand total %s", sum, rep.TotalExpenses)
	}
	if count != len(txs) {
		t.Errorf("counted %d transactions, want %d", count, len(txs))
	}
}

func TestBuildReportAbsentFields(t *testing.T) {
	tx := mkTx("1", "", 0, 1)
	tx.Amount = nil
	rep := BuildReport(januaryRange(t), []Transaction{tx, mkTx("2", "food", 4, 2)})

	un, ok := rep.ByCategory.Get(UncategorizedLabel)
	if !ok {
		t.Fatal("expected uncategorized bucket")
	}
	if un.Count != 1 || !un.Total.IsZero() {
		t.Errorf("uncategorized = %s/%d", un.Total, un.Count)
	}
	if rep.TotalExpenses.String() != "4" {
		t.Errorf("total = %s, want 4", rep.TotalExpenses)
	}
}

func TestReportJSONShape(t *testing.T) {
	rep := BuildReport(januaryRange(t), []Transaction{
		mkTx("1", "food", 20, 15),
		mkTx("2", "travel", 90, 16),
	})
	b, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"totalExpenses":110`) {
		t.Errorf("missing numeric total: %s", out)
	}
	if strings.Index(out, `"travel"`) > strings.Index(out, `"food"`) {
		t.Errorf("byCategory keys should follow total order: %s", out)
	}
	if !strings.Contains(out, `"dateRange":{"start":"2024-01-01T00:00:00.000Z","end":"2024-01-31T23:59:59.999Z"}`) {
		t.Errorf("unexpected dateRange: %s", out)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	rep := BuildReport(januaryRange(t), nil)
	b, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"byCategory":{}`) || !strings.Contains(string(b), `"totalExpenses":0`) {
		t.Fatalf("unexpected empty report: %s", b)
	}
}
