package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"conti/internal/core"
	"conti/internal/fx"
	"conti/internal/log"
	"conti/internal/metrics"
	"conti/internal/ports"
	"conti/internal/report"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Report kinds, used as metric labels.
const (
	ReportMonthly    = "monthly"
	ReportYearly     = "yearly"
	ReportCategories = "categories"
)

// ReportService loads a book snapshot and hands it to the aggregator.
type ReportService struct {
	store      ports.LedgerStore
	aggregator *report.Aggregator
	metrics    *metrics.Metrics
}

func NewReportService(store ports.LedgerStore, m *metrics.Metrics) *ReportService {
	return &ReportService{
		store:      store,
		aggregator: report.NewAggregator(fx.NewConverter(store)),
		metrics:    m,
	}
}

func (s *ReportService) MonthlySummary(ctx context.Context, bookID uuid.UUID, year, month int) (core.SummaryReport, error) {
	period, err := monthPeriod(year, month)
	if err != nil {
		return core.SummaryReport{}, err
	}
	return s.summary(ctx, ReportMonthly, bookID, period)
}

func (s *ReportService) YearlySummary(ctx context.Context, bookID uuid.UUID, year int) (core.SummaryReport, error) {
	return s.summary(ctx, ReportYearly, bookID, core.YearPeriod(year))
}

// CategoryDistribution covers one month when month is non-nil, else the year.
func (s *ReportService) CategoryDistribution(ctx context.Context, bookID uuid.UUID, year int, month *int, catType core.CategoryType) (core.CategoryDistribution, error) {
	if !catType.IsValid() {
		return core.CategoryDistribution{}, invalid("report_type", "Type must be Income or Expense.")
	}
	period := core.YearPeriod(year)
	if month != nil {
		var err error
		if period, err = monthPeriod(year, *month); err != nil {
			return core.CategoryDistribution{}, err
		}
	}

	start := time.Now()
	snap, err := s.load(ctx, bookID, period, true)
	if err != nil {
		s.observe(ctx, ReportCategories, period, start, err)
		return core.CategoryDistribution{}, err
	}
	dist, err := s.aggregator.CategoryDistribution(ctx, snap.book, period, catType, snap.transactions, snap.categories)
	s.observe(ctx, ReportCategories, period, start, err)
	return dist, err
}

func (s *ReportService) summary(ctx context.Context, kind string, bookID uuid.UUID, period core.Period) (core.SummaryReport, error) {
	start := time.Now()
	snap, err := s.load(ctx, bookID, period, false)
	if err != nil {
		s.observe(ctx, kind, period, start, err)
		return core.SummaryReport{}, err
	}
	rep, err := s.aggregator.Summary(ctx, snap.book, period, snap.transactions)
	s.observe(ctx, kind, period, start, err)
	return rep, err
}

type snapshot struct {
	book         core.Book
	transactions []core.Transaction
	categories   []core.Category
}

// load reads the book, its transactions in period and optionally its
// categories concurrently.
func (s *ReportService) load(ctx context.Context, bookID uuid.UUID, period core.Period, withCategories bool) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.store.GetBook(gctx, bookID)
		snap.book = b
		return err
	})
	g.Go(func() error {
		txs, err := s.store.ListTransactionsInPeriod(gctx, bookID, period.Start, period.End)
		snap.transactions = txs
		return err
	})
	if withCategories {
		g.Go(func() error {
			cats, err := s.store.ListCategories(gctx, bookID)
			snap.categories = cats
			return err
		})
	}
	return snap, g.Wait()
}

func (s *ReportService) observe(ctx context.Context, kind string, period core.Period, start time.Time, err error) {
	var gap *core.ConversionGapError
	switch {
	case err == nil:
		s.metrics.ObserveReport(kind, metrics.OutcomeOK, 0, time.Since(start))
	case errors.As(err, &gap):
		s.metrics.ObserveReport(kind, metrics.OutcomeMissingRate, len(gap.Missing), time.Since(start))
		slog.WarnContext(ctx, "Report rejected for missing exchange rates",
			log.FieldReport, kind,
			log.FieldPeriod, period.String(),
			log.FieldMissingRates, gap.Missing)
	default:
		s.metrics.ObserveReport(kind, metrics.OutcomeError, 0, time.Since(start))
	}
}

func monthPeriod(year, month int) (core.Period, error) {
	period, err := core.MonthPeriod(year, month)
	if err != nil {
		return core.Period{}, invalid("report_month", "Month must be between 1 and 12.")
	}
	return period, nil
}
