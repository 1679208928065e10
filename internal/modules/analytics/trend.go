package analytics

import (
	"github.com/camdash/camdash/internal/modules/snapshots"
	"github.com/camdash/camdash/pkg/formulas"
)

// smoothingWindow is the SMA window used to take day-of-week noise out of the
// halo chart overlays.
const smoothingWindow = 7

// ComputeHaloTrend charts total ad spend against Amazon sales over the last
// N days to make the off-platform halo visible. Spend and Amazon series get a
// 7-day SMA overlay, and the summary carries the Pearson correlation between
// the two raw series.
func (e *Engine) ComputeHaloTrend(series []snapshots.DailyMetricPoint, days int) (*HaloTrend, error) {
	if days <= 0 || len(series) == 0 {
		return nil, &InsufficientDataError{Required: 1, Available: len(series)}
	}
	if len(series) > days {
		series = series[len(series)-days:]
	}

	spend := make([]float64, len(series))
	amazon := make([]float64, len(series))
	var totalSpend, totalAmazon, totalShopify float64
	for i, p := range series {
		spend[i] = p.AdSpend
		amazon[i] = p.AmazonSales
		totalSpend += p.AdSpend
		totalAmazon += p.AmazonSales
		totalShopify += p.Revenue
	}

	spendSMA := formulas.SMA(spend, smoothingWindow)
	amazonSMA := formulas.SMA(amazon, smoothingWindow)

	points := make([]HaloTrendPoint, len(series))
	for i, p := range series {
		points[i] = HaloTrendPoint{
			Date:         p.Date,
			TotalSpend:   p.AdSpend,
			MetaSpend:    p.MetaSpend,
			GoogleSpend:  p.GoogleSpend,
			AmazonSales:  p.AmazonSales,
			ShopifySales: p.Revenue,
		}
		if spendSMA != nil {
			points[i].SpendSMA = round2(spendSMA[i])
		}
		if amazonSMA != nil {
			points[i].AmazonSMA = round2(amazonSMA[i])
		}
	}

	corr := formulas.Correlation(spend, amazon)

	return &HaloTrend{
		Data: points,
		Summary: HaloTrendSummary{
			Days:                days,
			DataPoints:          len(series),
			TotalAdSpend:        round2(totalSpend),
			TotalAmazonSales:    round2(totalAmazon),
			TotalShopifySales:   round2(totalShopify),
			AvgDailySpend:       round2(formulas.Mean(spend)),
			SpendAmazonCorr:     round2(corr),
			CorrelationStrength: correlationStrength(corr),
		},
	}, nil
}

func correlationStrength(corr float64) string {
	abs := corr
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 0.7:
		return "strong"
	case abs >= 0.4:
		return "moderate"
	case abs >= 0.2:
		return "weak"
	default:
		return "none"
	}
}
