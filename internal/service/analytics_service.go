package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonBabychP1T/krol-project/internal/models"
	"github.com/AntonBabychP1T/krol-project/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AnalyticsRepository reads already-synchronized orders for reporting.
type AnalyticsRepository interface {
	CountOrdersByStatus(ctx context.Context, storeIDs []int64) ([]models.StatusCount, error)
	ListOrdersInRange(ctx context.Context, storeIDs []int64, from, to time.Time) ([]models.Order, error)
}

// StatusShare is one slice of the status breakdown chart.
type StatusShare struct {
	StatusName string  `json:"status_name"`
	Count      int64   `json:"count"`
	Percent    float64 `json:"percent"`
}

// CommissionReport sums marketplace commission over a date range.
type CommissionReport struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	Orders            int             `json:"orders"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	ExcludedCancelled int             `json:"excluded_cancelled"`
}

// AnalyticsService computes simple reducers over synchronized data:
// per-status shares and commission totals.
type AnalyticsService struct {
	repo   AnalyticsRepository
	logger *zap.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		logger: util.GetLogger(),
	}
}

// StatusBreakdown returns per-status counts with their percentage of
// the total, matching the dashboard's status chart.
func (s *AnalyticsService) StatusBreakdown(ctx context.Context, storeIDs []int64) ([]StatusShare, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.StatusBreakdown")
	defer span.End()

	counts, err := s.repo.CountOrdersByStatus(ctx, storeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c.Count
	}

	shares := make([]StatusShare, 0, len(counts))
	for _, c := range counts {
		var percent float64
		if total > 0 {
			percent = math.Round(float64(c.Count)/float64(total)*100*100) / 100
		}
		shares = append(shares, StatusShare{
			StatusName: c.StatusName,
			Count:      c.Count,
			Percent:    percent,
		})
	}
	return shares, nil
}

// CommissionSum totals cpa_commission.amount for orders created in
// [from, to], optionally skipping cancelled ones. Amounts pass through
// the normalizer since the upstream blob stores them as free-form
// strings.
func (s *AnalyticsService) CommissionSum(ctx context.Context, storeIDs []int64, from, to time.Time, excludeCancelled bool) (*CommissionReport, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.CommissionSum")
	defer span.End()

	orders, err := s.repo.ListOrdersInRange(ctx, storeIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	report := &CommissionReport{From: from, To: to, TotalCommission: decimal.Zero}
	for _, order := range orders {
		if excludeCancelled && order.Status == models.StatusCancelled {
			report.ExcludedCancelled++
			continue
		}
		report.Orders++

		raw, ok := order.CpaCommission["amount"]
		if !ok {
			continue
		}
		amount, ok := NormalizeDecimal(raw)
		if !ok {
			s.logger.Warn("Unparsable commission amount",
				zap.Int64("order_id", order.ID),
				zap.Any("raw", raw))
			continue
		}
		report.TotalCommission = report.TotalCommission.Add(amount)
	}
	return report, nil
}
