package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

const reportKeyPrefix = "report|"

// ReportService builds per-category spending summaries. Results are cached
// per owner and range until the owner's data changes.
type ReportService struct {
	store storage.TransactionStore
	cache cache.Cache[core.Report]

	// generations counts invalidations per owner. A report is cached only
	// if its owner's generation did not move while the store was read.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewReportService creates a report service. c may be nil to disable caching.
func NewReportService(store storage.TransactionStore, c cache.Cache[core.Report]) *ReportService {
	return &ReportService{store: store, cache: c, generations: make(map[string]uint64)}
}

// Generate returns the report for owner between the calendar days named by
// startDate and endDate. Date problems are returned as
// core.ErrMissingDateRange or core.ErrInvalidDateFormat.
func (s *ReportService) Generate(ctx context.Context, owner, startDate, endDate string) (core.Report, error) {
	r, err := core.NormalizeDateRange(startDate, endDate)
	if err != nil {
		return core.Report{}, err
	}

	key := reportKey(owner, r)
	if s.cache != nil {
		if report, ok := s.cache.Get(key); ok {
			applog.FromContext(ctx).Debug("Report cache hit", applog.FieldOwner, owner)
			return report, nil
		}
	}

	gen := s.generation(owner)

	txs, err := s.store.FindInRange(ctx, owner, r)
	if err != nil {
		return core.Report{}, fmt.Errorf("load transactions for report: %w", err)
	}

	report := core.BuildReport(r, txs)
	if s.cache != nil {
		s.mu.Lock()
		if s.generations[owner] == gen {
			s.cache.Set(key, report)
		}
		s.mu.Unlock()
	}
	return report, nil
}

// Invalidate drops every cached report of owner and stops reports that
// are still being built from being cached.
func (s *ReportService) Invalidate(owner string) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[owner]++
	s.cache.DeletePrefix(ownerPrefix(owner))
}

func (s *ReportService) generation(owner string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[owner]
}

func ownerPrefix(owner string) string {
	return reportKeyPrefix + owner + "|"
}

func reportKey(owner string, r core.DateRange) string {
	var b strings.Builder
	b.WriteString(ownerPrefix(owner))
	fmt.Fprintf(&b, "%d|%d", r.Start.Millis(), r.End.Millis())
	return b.String()
}
