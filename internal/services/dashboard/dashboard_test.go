package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CountActiveSubscriptions(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) CountOutstandingInvoices(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) SumPaidSince(ctx context.Context, since time.Time) (float64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(float64), args.Error(1)
}
func (m *RepoMock) ListActiveSubscriptionStats(ctx context.Context, now time.Time) ([]models.ActiveSubscriptionStat, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActiveSubscriptionStat), args.Error(1)
}
func (m *RepoMock) SumPaidGrouped(ctx context.Context, since time.Time, keyFormat string) (map[string]float64, error) {
	args := m.Called(ctx, since, keyFormat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}
func (m *RepoMock) ListRecentSubscriptions(ctx context.Context, limit int) ([]*models.Subscription, map[string]string, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]*models.Subscription), args.Get(1).(map[string]string), args.Error(2)
}
func (m *RepoMock) ListRecentInvoices(ctx context.Context, limit int) ([]*models.Invoice, map[string]string, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]*models.Invoice), args.Get(1).(map[string]string), args.Error(2)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

// missCache возвращает кеш, который всегда промахивается и принимает записи.
func missCache() *CacheMock {
	c := new(CacheMock)
	c.On("Get", cacheKey, mock.Anything).Return(false, nil)
	c.On("Set", cacheKey, mock.Anything, cacheTTL).Return(nil).Maybe()
	return c
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestMonthlyPrice(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		price    float64
		want     float64
	}{
		{"monthly passes through", models.DurationMonthly, 100, 100},
		{"yearly divided by 12", models.DurationYearly, 120, 10},
		{"weekly times 52 over 12", models.DurationWeekly, 12, 52},
		{"unknown treated as monthly", "unknown", 30, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MonthlyPrice(tt.duration, tt.price), 0.0001)
		})
	}
}

func TestDashboardService_Data(t *testing.T) {
	now := time.Now()
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	repo := new(RepoMock)
	svc := NewDashboardService(repo, missCache(), newNoopLogger())

	repo.On("CountActiveSubscriptions", mock.Anything, mock.Anything).Return(4, nil).Once()
	repo.On("CountOutstandingInvoices", mock.Anything).Return(2, nil).Once()
	repo.On("SumPaidSince", mock.Anything, mock.Anything).Return(150.5, nil).Once()
	repo.On("ListActiveSubscriptionStats", mock.Anything, mock.Anything).
		Return([]models.ActiveSubscriptionStat{
			{Duration: models.DurationMonthly, Price: 100, ClientCount: 2},
			{Duration: models.DurationYearly, Price: 120, ClientCount: 1},
		}, nil).Once()
	repo.On("SumPaidGrouped", mock.Anything, mock.Anything, "YYYY-MM-DD").
		Return(map[string]float64{now.Format("2006-01-02"): 50}, nil).Once()
	repo.On("SumPaidGrouped", mock.Anything, mock.Anything, "IYYY-IW").
		Return(map[string]float64{}, nil).Once()
	repo.On("SumPaidGrouped", mock.Anything, mock.Anything, "YYYY-MM").
		Return(map[string]float64{now.Format("2006-01"): 150.5}, nil).Once()
	repo.On("ListRecentSubscriptions", mock.Anything, RecentLimit).
		Return([]*models.Subscription{
			{ID: "sub-1", Name: "Gold Plan", Price: 100, Duration: models.DurationMonthly,
				StartDate: past, EndDate: &future},
			{ID: "sub-2", Name: "Old Plan", Price: 50, Duration: models.DurationWeekly,
				StartDate: past, EndDate: &past},
		}, map[string]string{"sub-1": "Acme Corp", "sub-2": ""}, nil).Once()
	repo.On("ListRecentInvoices", mock.Anything, RecentLimit).
		Return([]*models.Invoice{
			{ID: "inv-1", InvoiceID: "INV-2026-001", DurationMonths: 1, PricePerMonth: 100,
				DueDate: future, Status: models.InvoiceStatusUnpaid},
		}, map[string]string{"inv-1": "Acme Corp"}, nil).Once()

	data, err := svc.Data(context.Background())
	assert.NoError(t, err)

	// KPI: счётчики и денежные значения
	assert.Len(t, data.KPIs, 4)
	assert.Equal(t, models.KPI{Title: "Active Subscriptions", Value: "4"}, data.KPIs[0])
	assert.Equal(t, models.KPI{Title: "Outstanding Invoices", Value: "2"}, data.KPIs[1])
	assert.Equal(t, models.KPI{Title: "Paid This Month", Value: "$150.50"}, data.KPIs[2])
	// MRR: 100*2 + 120/12*1 = 210
	assert.Equal(t, models.KPI{Title: "MRR", Value: "$210.00"}, data.KPIs[3])

	// Графики платежей: фиксированные окна по 7 дней, 5 недель, 12 месяцев
	assert.Len(t, data.PaymentHistory.Day.Categories, 7)
	assert.Len(t, data.PaymentHistory.Day.Series[0].Data, 7)
	assert.Equal(t, 50.0, data.PaymentHistory.Day.Series[0].Data[6])
	assert.Len(t, data.PaymentHistory.Week.Categories, 5)
	assert.Len(t, data.PaymentHistory.Week.Series[0].Data, 5)
	assert.Len(t, data.PaymentHistory.Month.Categories, 12)
	assert.Len(t, data.PaymentHistory.Month.Series[0].Data, 12)
	assert.Equal(t, 150.5, data.PaymentHistory.Month.Series[0].Data[11])
	assert.Equal(t, now.Format("Jan"), data.PaymentHistory.Month.Categories[11])

	// Последние подписки: имя первого клиента и статус по дате окончания
	assert.Len(t, data.RecentSubscriptions, 2)
	assert.Equal(t, "Acme Corp", data.RecentSubscriptions[0].Client)
	assert.Equal(t, "Gold Plan (Monthly)", data.RecentSubscriptions[0].Plan)
	assert.Equal(t, "Active", data.RecentSubscriptions[0].Status)
	assert.Equal(t, "Unknown", data.RecentSubscriptions[1].Client)
	assert.Equal(t, "Old Plan (Weekly)", data.RecentSubscriptions[1].Plan)
	assert.Equal(t, "Paused", data.RecentSubscriptions[1].Status)

	// Последние счета
	assert.Len(t, data.RecentInvoices, 1)
	assert.Equal(t, "INV-2026-001", data.RecentInvoices[0].No)
	assert.Equal(t, 100.0, data.RecentInvoices[0].Amount)
	assert.Equal(t, models.InvoiceStatusUnpaid, data.RecentInvoices[0].Status)

	repo.AssertExpectations(t)
}

func TestDashboardService_DataErrors(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
	}{
		{
			name: "count error",
			setupMocks: func(r *RepoMock) {
				r.On("CountActiveSubscriptions", mock.Anything, mock.Anything).
					Return(0, errors.New("db error")).Once()
			},
		},
		{
			name: "grouped sum error",
			setupMocks: func(r *RepoMock) {
				r.On("CountActiveSubscriptions", mock.Anything, mock.Anything).Return(1, nil).Once()
				r.On("CountOutstandingInvoices", mock.Anything).Return(0, nil).Once()
				r.On("SumPaidSince", mock.Anything, mock.Anything).Return(0.0, nil).Once()
				r.On("ListActiveSubscriptionStats", mock.Anything, mock.Anything).
					Return([]models.ActiveSubscriptionStat{}, nil).Once()
				r.On("SumPaidGrouped", mock.Anything, mock.Anything, "YYYY-MM-DD").
					Return(nil, errors.New("db error")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc := NewDashboardService(repo, missCache(), newNoopLogger())

			tt.setupMocks(repo)

			data, err := svc.Data(context.Background())
			assert.Error(t, err)
			assert.Nil(t, data)

			repo.AssertExpectations(t)
		})
	}
}

func TestDashboardService_DataCacheHit(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := NewDashboardService(repo, cache, newNoopLogger())

	cached := models.DashboardData{
		KPIs: []models.KPI{{Title: "Active Subscriptions", Value: "7"}},
	}
	cache.On("Get", cacheKey, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(1).(*models.DashboardData) = cached
		}).
		Return(true, nil).Once()

	data, err := svc.Data(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, cached.KPIs, data.KPIs)

	repo.AssertNotCalled(t, "CountActiveSubscriptions", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}
