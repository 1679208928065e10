package analytics

import (
	"fmt"

	"github.com/camdash/camdash/internal/modules/snapshots"
	"github.com/camdash/camdash/pkg/formulas"
)

// ComputeChannelCorrelation breaks the spend comparison down per channel and
// measures how tightly each channel's daily spend co-moves with revenue and
// new customers across the full 2N-day window. Attributed revenue is reported
// for context only; the co-movement numbers use blended outcomes.
func (e *Engine) ComputeChannelCorrelation(series []snapshots.DailyMetricPoint, periodDays int) (*ChannelCorrelationResult, error) {
	current, previous, err := splitWindows(series, periodDays)
	if err != nil {
		return nil, err
	}

	window := series[len(series)-periodDays*2:]
	revenueDaily := make([]float64, len(window))
	ncDaily := make([]float64, len(window))
	for i, p := range window {
		revenueDaily[i] = p.Revenue
		ncDaily[i] = float64(p.NewCustomers)
	}

	channels := make(map[string]ChannelCorrelation, len(snapshots.Channels))
	for _, ch := range snapshots.Channels {
		var currSpend, prevSpend, currRev, prevRev float64
		var currNC, prevNC int
		for _, p := range current {
			currSpend += p.ChannelSpend(ch)
			currRev += p.ChannelRevenue(ch)
			currNC += p.NewCustomers
		}
		for _, p := range previous {
			prevSpend += p.ChannelSpend(ch)
			prevRev += p.ChannelRevenue(ch)
			prevNC += p.NewCustomers
		}

		spendDaily := make([]float64, len(window))
		for i, p := range window {
			spendDaily[i] = p.ChannelSpend(ch)
		}

		channels[string(ch)] = ChannelCorrelation{
			Channel:              ch.DisplayName(),
			CurrentSpend:         round2(currSpend),
			PreviousSpend:        round2(prevSpend),
			SpendChangePct:       round1(formulas.PctChange(currSpend, prevSpend)),
			RevenueChangePct:     round1(formulas.PctChange(currRev, prevRev)),
			NewCustomerChangePct: round1(formulas.PctChange(float64(currNC), float64(prevNC))),
			RevenueCorrelation:   round2(formulas.Correlation(spendDaily, revenueDaily)),
			NCCorrelation:        round2(formulas.Correlation(spendDaily, ncDaily)),
		}
	}

	return &ChannelCorrelationResult{
		Period: Period{
			Days:          periodDays,
			CurrentStart:  current[0].Date,
			PreviousStart: previous[0].Date,
			Label:         fmt.Sprintf("Last %d days vs previous %d days", periodDays, periodDays),
		},
		Channels:       channels,
		Recommendation: channelRecommendation(channels),
	}, nil
}

// channelRecommendation suggests a budget shift only when one channel's
// revenue co-movement clearly dominates the other's. A gap under 0.3 is
// treated as noise.
func channelRecommendation(channels map[string]ChannelCorrelation) string {
	google, okG := channels[string(snapshots.ChannelGoogle)]
	meta, okM := channels[string(snapshots.ChannelMeta)]
	if !okG || !okM {
		return ""
	}

	const dominanceGap = 0.3
	diff := google.RevenueCorrelation - meta.RevenueCorrelation
	switch {
	case diff >= dominanceGap:
		return fmt.Sprintf("Google spend tracks revenue more tightly than Meta (%.2f vs %.2f). Consider shifting test budget toward Google.",
			google.RevenueCorrelation, meta.RevenueCorrelation)
	case diff <= -dominanceGap:
		return fmt.Sprintf("Meta spend tracks revenue more tightly than Google (%.2f vs %.2f). Consider shifting test budget toward Meta.",
			meta.RevenueCorrelation, google.RevenueCorrelation)
	default:
		return ""
	}
}
