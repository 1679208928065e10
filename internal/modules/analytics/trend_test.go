package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camdash/camdash/internal/modules/snapshots"
)

func TestComputeHaloTrend(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// Amazon sales rise and fall with ad spend a day at a time.
	series := channelSeries(t, 30, func(i int) snapshots.DailyMetricPoint {
		return snapshots.DailyMetricPoint{
			AdSpend:     100 + float64(i%7)*20,
			GoogleSpend: 60 + float64(i%7)*12,
			MetaSpend:   40 + float64(i%7)*8,
			Revenue:     400,
			AmazonSales: 50 + float64(i%7)*10,
		}
	})

	trend, err := engine.ComputeHaloTrend(series, 30)
	require.NoError(t, err)

	assert.Equal(t, 30, trend.Summary.Days)
	assert.Equal(t, 30, trend.Summary.DataPoints)
	require.Len(t, trend.Data, 30)

	assert.Equal(t, "strong", trend.Summary.CorrelationStrength)
	assert.InDelta(t, 1.0, trend.Summary.SpendAmazonCorr, 0.01)
	assert.Equal(t, 400.0*30, trend.Summary.TotalShopifySales)

	// SMA overlay is present once the window has filled.
	last := trend.Data[len(trend.Data)-1]
	assert.Greater(t, last.SpendSMA, 0.0)
	assert.Greater(t, last.AmazonSMA, 0.0)
	assert.Equal(t, last.TotalSpend, last.GoogleSpend+last.MetaSpend)
}

func TestComputeHaloTrend_TruncatesToRequestedDays(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	series := channelSeries(t, 60, func(i int) snapshots.DailyMetricPoint {
		return snapshots.DailyMetricPoint{AdSpend: 100, AmazonSales: 50}
	})

	trend, err := engine.ComputeHaloTrend(series, 30)
	require.NoError(t, err)

	assert.Equal(t, 30, trend.Summary.DataPoints)
	assert.Equal(t, "2026-08-20", trend.Data[len(trend.Data)-1].Date)
	// Constant series has no defined co-movement.
	assert.Equal(t, 0.0, trend.Summary.SpendAmazonCorr)
	assert.Equal(t, "none", trend.Summary.CorrelationStrength)
	assert.Equal(t, 100.0, trend.Summary.AvgDailySpend)
}

func TestComputeHaloTrend_ShortSeriesServedAsIs(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	series := channelSeries(t, 5, func(i int) snapshots.DailyMetricPoint {
		return snapshots.DailyMetricPoint{AdSpend: 100, AmazonSales: 50}
	})

	trend, err := engine.ComputeHaloTrend(series, 30)
	require.NoError(t, err)
	assert.Equal(t, 5, trend.Summary.DataPoints)

	_, err = engine.ComputeHaloTrend(nil, 30)
	require.Error(t, err)
}
