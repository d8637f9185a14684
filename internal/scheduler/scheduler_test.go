package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shopledger/internal/domain/models"
)

type stubReporter struct {
	day time.Time
	err error
}

func (s *stubReporter) DailyReport(_ context.Context, day time.Time) (models.DailyReport, error) {
	s.day = day
	if s.err != nil {
		return models.DailyReport{}, s.err
	}
	return models.DailyReport{
		Date:    day,
		Summary: models.FinancialSummary{NetProfit: decimal.NewFromInt(42), TransactionCount: 3},
	}, nil
}

type memoryArchive struct {
	mu      sync.Mutex
	reports []models.DailyReport
	err     error
}

func (a *memoryArchive) SaveDailyReport(_ context.Context, report models.DailyReport) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.reports = append(a.reports, report)
	return nil
}

func TestRunOnceFansOut(t *testing.T) {
	mongo := &memoryArchive{}
	sheets := &memoryArchive{}
	reporter := &stubReporter{}
	s := NewScheduler("0 21 * * *", time.UTC, reporter, map[string]Archive{"mongodb": mongo, "sheets": sheets}, nil)

	day := time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC)
	require.NoError(t, s.RunOnce(context.Background(), day))
	require.True(t, reporter.day.Equal(day))
	require.Len(t, mongo.reports, 1)
	require.Len(t, sheets.reports, 1)
	require.Equal(t, 3, sheets.reports[0].Summary.TransactionCount)
}

func TestRunOnceKeepsGoingWhenOneArchiveFails(t *testing.T) {
	boom := errors.New("quota exceeded")
	good := &memoryArchive{}
	s := NewScheduler("0 21 * * *", nil, &stubReporter{}, map[string]Archive{
		"mongodb": good,
		"sheets":  &memoryArchive{err: boom},
	}, nil)

	err := s.RunOnce(context.Background(), time.Now())
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "sheets")
	require.Len(t, good.reports, 1)
}

func TestRunOnceWaitsForEveryArchive(t *testing.T) {
	first := &memoryArchive{err: errors.New("mongo down")}
	second := &memoryArchive{err: errors.New("sheets quota")}
	good := &memoryArchive{}
	s := NewScheduler("0 21 * * *", nil, &stubReporter{}, map[string]Archive{
		"mongodb":  first,
		"sheets":   second,
		"whatsapp": good,
	}, nil)

	err := s.RunOnce(context.Background(), time.Now())
	require.Error(t, err)
	require.ErrorContains(t, err, "archive ")
	require.Len(t, good.reports, 1)
}

func TestRunOnceReportFailure(t *testing.T) {
	archive := &memoryArchive{}
	boom := errors.New("ledger unavailable")
	s := NewScheduler("0 21 * * *", nil, &stubReporter{err: boom}, map[string]Archive{"mongodb": archive}, nil)

	require.ErrorIs(t, s.RunOnce(context.Background(), time.Now()), boom)
	require.Empty(t, archive.reports)
}

func TestStart(t *testing.T) {
	s := NewScheduler("not a schedule", nil, &stubReporter{}, map[string]Archive{"mongodb": &memoryArchive{}}, nil)
	require.Error(t, s.Start())

	idle := NewScheduler("not a schedule", nil, &stubReporter{}, nil, nil)
	require.NoError(t, idle.Start())

	ok := NewScheduler("0 21 * * *", nil, &stubReporter{}, map[string]Archive{"mongodb": &memoryArchive{}}, nil)
	require.NoError(t, ok.Start())
	require.Len(t, ok.cron.Entries(), 1)
	ok.Stop()
}
