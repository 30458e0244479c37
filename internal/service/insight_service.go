package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AntonBabychP1T/krol-project/internal/util"

	"go.uber.org/zap"
)

// TextGenerator turns a computed sales summary into narrative prose.
// Generation itself is an external concern; the service only builds
// the summary and hands it over.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrGeneratorUnavailable is returned when no text generator is
// configured for the deployment.
var ErrGeneratorUnavailable = errors.New("text generator is not configured")

// Insight periods.
const (
	InsightPeriod30     = "30"
	InsightPeriod90     = "90"
	InsightPeriodCustom = "custom"
)

// Insight is the computed summary plus the generated narrative.
type Insight struct {
	From       time.Time        `json:"from"`
	To         time.Time        `json:"to"`
	Summary    string           `json:"summary"`
	Narrative  string           `json:"narrative"`
	Breakdown  []StatusShare    `json:"breakdown"`
	Commission CommissionReport `json:"commission"`
}

// InsightService aggregates sales figures for a window and feeds them
// to the injected text generator.
type InsightService struct {
	analytics *AnalyticsService
	generator TextGenerator
	logger    *zap.Logger
}

// NewInsightService creates a new insight service. generator may be
// nil when the deployment has no AI endpoint configured.
func NewInsightService(analytics *AnalyticsService, generator TextGenerator) *InsightService {
	return &InsightService{
		analytics: analytics,
		generator: generator,
		logger:    util.GetLogger(),
	}
}

// BuildInsight computes the window's summary and asks the generator
// for prose. period is "30", "90" or "custom" with explicit bounds.
func (s *InsightService) BuildInsight(ctx context.Context, storeIDs []int64, period string, start, end *time.Time) (*Insight, error) {
	ctx, span := util.StartSpan(ctx, "InsightService.BuildInsight")
	defer span.End()

	if s.generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	now := time.Now()
	var from, to time.Time
	switch period {
	case InsightPeriod90:
		from, to = now.AddDate(0, 0, -90), now
	case InsightPeriodCustom:
		if start == nil || end == nil {
			return nil, ErrMissingCustomBounds
		}
		from = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		to = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
	default:
		from, to = now.AddDate(0, 0, -30), now
	}

	breakdown, err := s.analytics.StatusBreakdown(ctx, storeIDs)
	if err != nil {
		return nil, err
	}
	commission, err := s.analytics.CommissionSum(ctx, storeIDs, from, to, false)
	if err != nil {
		return nil, err
	}

	summary := buildSummaryText(from, to, breakdown, commission)

	narrative, err := s.generator.Generate(ctx, summary)
	if err != nil {
		s.logger.Error("Text generation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to generate insight: %w", err)
	}

	return &Insight{
		From:       from,
		To:         to,
		Summary:    summary,
		Narrative:  narrative,
		Breakdown:  breakdown,
		Commission: *commission,
	}, nil
}

func buildSummaryText(from, to time.Time, breakdown []StatusShare, commission *CommissionReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sales summary for %s to %s.\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Fprintf(&b, "Orders in range: %d. Marketplace commission: %s.\n", commission.Orders, commission.TotalCommission.StringFixed(2))
	b.WriteString("Status breakdown:\n")
	for _, share := range breakdown {
		fmt.Fprintf(&b, "- %s: %d (%.2f%%)\n", share.StatusName, share.Count, share.Percent)
	}
	return b.String()
}
