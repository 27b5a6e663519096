package core

import (
	"bytes"
	"encoding/json"
	"slices"
)

// UncategorizedLabel groups transactions whose category was cleared by an update.
const UncategorizedLabel = "uncategorized"

// ReportItem is one transaction line inside a category bucket.
type ReportItem struct {
	ID          string    `json:"id"`
	Amount      *Money    `json:"amount,omitempty"`
	Description string    `json:"description,omitempty"`
	Date        Timestamp `json:"date"`
}

// CategorySummary aggregates the transactions of one category.
type CategorySummary struct {
	Name         string       `json:"-"`
	Total        Money        `json:"total"`
	Count        int          `json:"count"`
	Transactions []ReportItem `json:"transactions"`
}

// CategoryBreakdown keeps category buckets in report order and encodes as
// a JSON object whose keys follow that order.
type CategoryBreakdown []CategorySummary

// Report is the spending summary returned for a date range.
type Report struct {
	TotalExpenses Money             `json:"totalExpenses"`
	ByCategory    CategoryBreakdown `json:"byCategory"`
	DateRange     DateRange         `json:"dateRange"`
}

// BuildReport aggregates txs, which must already be sorted ascending by
// date, into per-category buckets. The grand total covers every
// transaction regardless of type. Buckets are ordered by total descending;
// equal totals keep the order in which the category first appeared.
func BuildReport(r DateRange, txs []Transaction) Report {
	report := Report{DateRange: r, ByCategory: CategoryBreakdown{}}
	index := make(map[string]int)

	for _, t := range txs {
		name := t.Category
		if name == "" {
			name = UncategorizedLabel
		}
		i, ok := index[name]
		if !ok {
			i = len(report.ByCategory)
			index[name] = i
			report.ByCategory = append(report.ByCategory, CategorySummary{
				Name:         name,
				Transactions: []ReportItem{},
			})
		}

		var amount Money
		if t.Amount != nil {
			amount = *t.Amount
		}
		bucket := &report.ByCategory[i]
		bucket.Total = bucket.Total.Add(amount)
		bucket.Count++
		bucket.Transactions = append(bucket.Transactions, ReportItem{
			ID:          t.ID,
			Amount:      t.Amount,
			Description: t.Description,
			Date:        t.Date,
		})
		report.TotalExpenses = report.TotalExpenses.Add(amount)
	}

	slices.SortStableFunc(report.ByCategory, func(a, b CategorySummary) int {
		return b.Total.Cmp(a.Total)
	})
	return report
}

// Get returns the bucket for name.
func (b CategoryBreakdown) Get(name string) (CategorySummary, bool) {
	for _, c := range b {
		if c.Name == name {
			return c, true
		}
	}
	return CategorySummary{}, false
}

// Names lists category names in report order.
func (b CategoryBreakdown) Names() []string {
	names := make([]string, len(b))
	for i, c := range b {
		names[i] = c.Name
	}
	return names
}

func (b CategoryBreakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
