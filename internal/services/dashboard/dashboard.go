// Package services собирает агрегированные данные для главного дашборда:
// карточки KPI, графики платежей и таблицы последних записей.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// RecentLimit — число строк в таблицах последних подписок и счетов.
const RecentLimit = 5

// Параметры кеширования собранного дашборда.
const (
	cacheKey = "dashboard:data"
	cacheTTL = time.Minute
)

// DashboardRepository определяет методы хранилища для агрегатов дашборда.
type DashboardRepository interface {
	// CountActiveSubscriptions возвращает число активных подписок с клиентами.
	CountActiveSubscriptions(ctx context.Context, now time.Time) (int, error)
	// CountOutstandingInvoices возвращает число неоплаченных и просроченных счетов.
	CountOutstandingInvoices(ctx context.Context) (int, error)
	// SumPaidSince возвращает сумму счетов, оплаченных после указанного момента.
	SumPaidSince(ctx context.Context, since time.Time) (float64, error)
	// ListActiveSubscriptionStats возвращает агрегаты активных подписок для MRR.
	ListActiveSubscriptionStats(ctx context.Context, now time.Time) ([]models.ActiveSubscriptionStat, error)
	// SumPaidGrouped возвращает суммы оплат, сгруппированные по периоду to_char.
	SumPaidGrouped(ctx context.Context, since time.Time, keyFormat string) (map[string]float64, error)
	// ListRecentSubscriptions возвращает последние подписки и имена первых клиентов.
	ListRecentSubscriptions(ctx context.Context, limit int) ([]*models.Subscription, map[string]string, error)
	// ListRecentInvoices возвращает последние счета и имена клиентов.
	ListRecentInvoices(ctx context.Context, limit int) ([]*models.Invoice, map[string]string, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
}

// DashboardService реализует сбор данных для дашборда.
type DashboardService struct {
	repo  DashboardRepository
	cache Cache
	log   *slog.Logger
}

// NewDashboardService создает новый экземпляр DashboardService.
func NewDashboardService(repo DashboardRepository, cache Cache, log *slog.Logger) *DashboardService {
	return &DashboardService{repo: repo, cache: cache, log: log}
}

// MonthlyPrice приводит цену плана к месячному эквиваленту:
// yearly делится на 12, weekly умножается на 52/12.
func MonthlyPrice(duration string, price float64) float64 {
	switch duration {
	case models.DurationYearly:
		return price / 12
	case models.DurationWeekly:
		return price * 52 / 12
	default:
		return price
	}
}

// Data собирает полный набор данных дашборда на текущий момент.
func (s *DashboardService) Data(ctx context.Context) (*models.DashboardData, error) {
	var cached models.DashboardData
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Error("failed to read dashboard cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	now := time.Now()

	kpis, err := s.buildKPIs(ctx, now)
	if err != nil {
		return nil, err
	}
	history, err := s.buildPaymentHistory(ctx, now)
	if err != nil {
		return nil, err
	}
	recentSubs, err := s.buildRecentSubscriptions(ctx, now)
	if err != nil {
		return nil, err
	}
	recentInvoices, err := s.buildRecentInvoices(ctx)
	if err != nil {
		return nil, err
	}

	data := &models.DashboardData{
		KPIs:                kpis,
		PaymentHistory:      *history,
		RecentSubscriptions: recentSubs,
		RecentInvoices:      recentInvoices,
	}

	if err := s.cache.Set(cacheKey, data, cacheTTL); err != nil {
		s.log.Error("failed to cache dashboard data", sl.Err(err))
	}

	return data, nil
}

func (s *DashboardService) buildKPIs(ctx context.Context, now time.Time) ([]models.KPI, error) {
	activeSubs, err := s.repo.CountActiveSubscriptions(ctx, now)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.repo.CountOutstandingInvoices(ctx)
	if err != nil {
		return nil, err
	}

	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	paidThisMonth, err := s.repo.SumPaidSince(ctx, startOfMonth)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.ListActiveSubscriptionStats(ctx, now)
	if err != nil {
		return nil, err
	}
	var mrr float64
	for _, stat := range stats {
		mrr += MonthlyPrice(stat.Duration, stat.Price) * float64(stat.ClientCount)
	}

	return []models.KPI{
		{Title: "Active Subscriptions", Value: strconv.Itoa(activeSubs)},
		{Title: "Outstanding Invoices", Value: strconv.Itoa(outstanding)},
		{Title: "Paid This Month", Value: fmt.Sprintf("$%.2f", paidThisMonth)},
		{Title: "MRR", Value: fmt.Sprintf("$%.2f", mrr)},
	}, nil
}

func (s *DashboardService) buildPaymentHistory(ctx context.Context, now time.Time) (*models.PaymentHistory, error) {
	earliestMonth := time.Date(now.Year(), now.Month()-11, 1, 0, 0, 0, 0, now.Location())
	earliestDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -6)

	byDay, err := s.repo.SumPaidGrouped(ctx, earliestDay, "YYYY-MM-DD")
	if err != nil {
		return nil, err
	}
	byWeek, err := s.repo.SumPaidGrouped(ctx, earliestMonth, "IYYY-IW")
	if err != nil {
		return nil, err
	}
	byMonth, err := s.repo.SumPaidGrouped(ctx, earliestMonth, "YYYY-MM")
	if err != nil {
		return nil, err
	}

	// Последние 7 дней, подписи — сокращённые названия дней недели
	dayCategories := make([]string, 0, 7)
	daySeries := make([]float64, 0, 7)
	for i := 6; i >= 0; i-- {
		d := earliestDay.AddDate(0, 0, 6-i)
		dayCategories = append(dayCategories, d.Format("Mon"))
		daySeries = append(daySeries, byDay[d.Format("2006-01-02")])
	}

	// Последние 5 ISO-недель, ключ совпадает с форматом IYYY-IW
	weekCategories := make([]string, 0, 5)
	weekSeries := make([]float64, 0, 5)
	for i := 4; i >= 0; i-- {
		d := now.AddDate(0, 0, -i*7)
		year, week := d.ISOWeek()
		weekCategories = append(weekCategories, fmt.Sprintf("W%d", week))
		weekSeries = append(weekSeries, byWeek[fmt.Sprintf("%d-%02d", year, week)])
	}

	// Последние 12 месяцев, подписи — сокращённые названия месяцев
	monthCategories := make([]string, 0, 12)
	monthSeries := make([]float64, 0, 12)
	for i := 11; i >= 0; i-- {
		d := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		monthCategories = append(monthCategories, d.Format("Jan"))
		monthSeries = append(monthSeries, byMonth[d.Format("2006-01")])
	}

	return &models.PaymentHistory{
		Day: models.ChartBlock{
			Categories: dayCategories,
			Series:     []models.Series{{Name: "Payments", Data: daySeries}},
		},
		Week: models.ChartBlock{
			Categories: weekCategories,
			Series:     []models.Series{{Name: "Payments", Data: weekSeries}},
		},
		Month: models.ChartBlock{
			Categories: monthCategories,
			Series:     []models.Series{{Name: "Payments", Data: monthSeries}},
		},
	}, nil
}

func (s *DashboardService) buildRecentSubscriptions(ctx context.Context, now time.Time) ([]models.RecentSubscription, error) {
	subs, firstClientNames, err := s.repo.ListRecentSubscriptions(ctx, RecentLimit)
	if err != nil {
		return nil, err
	}

	result := make([]models.RecentSubscription, 0, len(subs))
	for _, sub := range subs {
		client := firstClientNames[sub.ID]
		if client == "" {
			client = "Unknown"
		}
		status := "Active"
		if sub.EndDate != nil && sub.EndDate.Before(now) {
			status = "Paused"
		}
		result = append(result, models.RecentSubscription{
			Client: client,
			Plan:   fmt.Sprintf("%s (%s)", sub.Name, capitalize(sub.Duration)),
			Price:  sub.Price,
			Start:  sub.StartDate.Format("Jan 02"),
			Status: status,
		})
	}
	return result, nil
}

func (s *DashboardService) buildRecentInvoices(ctx context.Context) ([]models.RecentInvoice, error) {
	invoices, clientNames, err := s.repo.ListRecentInvoices(ctx, RecentLimit)
	if err != nil {
		return nil, err
	}

	result := make([]models.RecentInvoice, 0, len(invoices))
	for _, inv := range invoices {
		client := clientNames[inv.ID]
		if client == "" {
			client = "Unknown"
		}
		result = append(result, models.RecentInvoice{
			No:     inv.InvoiceID,
			Client: client,
			Amount: inv.Total(),
			Due:    inv.DueDate.Format("Jan 02"),
			Status: inv.Status,
		})
	}
	return result, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
