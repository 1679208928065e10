package analytics

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"github.com/camdash/camdash/internal/modules/snapshots"
)

// ComputeRecommendations turns the triangulation result into a ranked list of
// concrete budget moves. IDs are deterministic for a given comparison window,
// so items the operator already marked done (recentlyActioned) can be filtered
// out across repeated calls.
func (e *Engine) ComputeRecommendations(
	series []snapshots.DailyMetricPoint,
	campaigns map[snapshots.Channel][]snapshots.CampaignPeriod,
	periodDays int,
	recentlyActioned map[string]bool,
) (*RecommendationsResponse, error) {
	corr, err := e.ComputeCorrelation(series, periodDays)
	if err != nil {
		return nil, err
	}

	windowStart := corr.Period.CurrentStart
	windowEnd := series[len(series)-1].Date

	targets := EfficiencyTargets{
		CurrentNCAC:  corr.Efficiency.CurrentNCAC,
		NCACTarget:   e.cfg.NCACTarget,
		NCACHeadroom: round2(e.cfg.NCACTarget - corr.Efficiency.CurrentNCAC),
		CurrentMER:   corr.Efficiency.CurrentMER,
		MERFloor:     e.cfg.MERFloor,
		MERHeadroom:  round2(corr.Efficiency.CurrentMER - e.cfg.MERFloor),
	}

	strategy := e.deriveStrategy(corr.SignalSummary, targets)

	var recs []BudgetRecommendation
	recs = append(recs, e.channelBudgetRecs(series, strategy, windowStart, windowEnd, periodDays)...)
	recs = append(recs, e.campaignRecs(campaigns, windowStart, windowEnd, periodDays)...)

	if len(recentlyActioned) > 0 {
		filtered := recs[:0]
		for _, r := range recs {
			if !recentlyActioned[r.ID] {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}

	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := recs[i].Priority.rank(), recs[j].Priority.rank()
		if ri != rj {
			return ri < rj
		}
		return math.Abs(recs[i].WeeklyImpact) > math.Abs(recs[j].WeeklyImpact)
	})

	return &RecommendationsResponse{
		Strategy:        strategy,
		Efficiency:      targets,
		SignalSummary:   corr.SignalSummary,
		Recommendations: recs,
		PeriodDays:      periodDays,
	}, nil
}

// deriveStrategy picks the overall posture from signal agreement and the
// remaining headroom against the efficiency targets. Hold requires weak
// signals or a target actually breached; headroom sitting exactly on a target
// falls through to test.
func (e *Engine) deriveStrategy(summary SignalSummary, targets EfficiencyTargets) StrategyResult {
	hasNCAC := targets.CurrentNCAC > 0

	switch {
	case summary.Agree >= 3 && targets.MERHeadroom > e.cfg.MERScaleHeadroom &&
		(!hasNCAC || targets.NCACHeadroom > e.cfg.NCACScaleHeadroom):
		return StrategyResult{
			Overall: StrategyScale,
			Reason: fmt.Sprintf("%d signals confirm spend is working with NCAC $%.2f under the $%.2f target and MER %.2f above the %.2f floor.",
				summary.Agree, targets.CurrentNCAC, targets.NCACTarget, targets.CurrentMER, targets.MERFloor),
		}
	case summary.Agree >= 2 && targets.MERHeadroom > 0 &&
		(!hasNCAC || targets.NCACHeadroom > 0):
		return StrategyResult{
			Overall: StrategyGrow,
			Reason: fmt.Sprintf("%d signals agree and efficiency is inside targets. Room for moderate growth.",
				summary.Agree),
		}
	case summary.Agree <= 1 || targets.MERHeadroom < 0 || (hasNCAC && targets.NCACHeadroom < 0):
		return StrategyResult{
			Overall: StrategyHold,
			Reason:  "Signals are weak or efficiency is past target. Hold budgets until the picture clears.",
		}
	default:
		return StrategyResult{
			Overall: StrategyTest,
			Reason:  "Signals agree but efficiency sits at target. Test small increases.",
		}
	}
}

// channelBudgetRecs emits one budget action per channel from that channel's
// own current-window spend. The "All Campaigns" label separates channel-level
// moves from single-campaign ones, and keeps their de-dup ids distinct.
func (e *Engine) channelBudgetRecs(series []snapshots.DailyMetricPoint, strategy StrategyResult, windowStart, windowEnd string, periodDays int) []BudgetRecommendation {
	current := series[len(series)-periodDays:]

	var recs []BudgetRecommendation
	for _, ch := range snapshots.Channels {
		var spend float64
		for _, p := range current {
			spend += p.ChannelSpend(ch)
		}
		if spend == 0 {
			continue
		}
		currentDaily := round2(spend / float64(periodDays))
		id := recommendationID(string(ch), "All Campaigns", windowStart, windowEnd)

		if strategy.Overall == StrategyHold {
			recs = append(recs, BudgetRecommendation{
				ID:           id,
				Priority:     PriorityLow,
				ActionType:   ActionBudgetHold,
				Channel:      ch.DisplayName(),
				Campaign:     "All Campaigns",
				Action:       fmt.Sprintf("Hold %s daily budget at $%.2f", ch.DisplayName(), currentDaily),
				CurrentDaily: currentDaily,
				NewDaily:     currentDaily,
				WeeklyImpact: 0,
				Reason:       strategy.Reason,
			})
			continue
		}

		var increase float64
		var priority Priority
		switch strategy.Overall {
		case StrategyScale:
			increase = e.cfg.ScaleIncrease
			priority = PriorityHigh
		case StrategyGrow:
			increase = e.cfg.GrowIncrease
			priority = PriorityMedium
		default: // test
			increase = e.cfg.TestIncrease
			priority = PriorityLow
		}

		newDaily := round2(currentDaily * (1 + increase))
		recs = append(recs, BudgetRecommendation{
			ID:           id,
			Priority:     priority,
			ActionType:   ActionBudgetIncrease,
			Channel:      ch.DisplayName(),
			Campaign:     "All Campaigns",
			Action:       fmt.Sprintf("Increase %s daily budget by %.0f%% ($%.2f -> $%.2f)", ch.DisplayName(), increase*100, currentDaily, newDaily),
			CurrentDaily: currentDaily,
			NewDaily:     newDaily,
			WeeklyImpact: round2((newDaily - currentDaily) * 7),
			Reason:       strategy.Reason,
		})
	}

	return recs
}

func (e *Engine) campaignRecs(campaigns map[snapshots.Channel][]snapshots.CampaignPeriod, windowStart, windowEnd string, periodDays int) []BudgetRecommendation {
	var recs []BudgetRecommendation

	for _, ch := range snapshots.Channels {
		for _, c := range campaigns[ch] {
			if c.Spend < e.cfg.MinCampaignSpend {
				continue
			}
			currentDaily := round2(c.Spend / float64(periodDays))

			switch {
			case c.ROAS >= e.cfg.ROASScaleThreshold:
				newDaily := round2(currentDaily * (1 + e.cfg.CampaignScaleIncrease))
				recs = append(recs, BudgetRecommendation{
					ID:           recommendationID(string(ch), c.Name, windowStart, windowEnd),
					Priority:     PriorityMedium,
					ActionType:   ActionCampaignScale,
					Channel:      ch.DisplayName(),
					Campaign:     c.Name,
					Action:       fmt.Sprintf("Scale %q by %.0f%% ($%.2f -> $%.2f daily)", c.Name, e.cfg.CampaignScaleIncrease*100, currentDaily, newDaily),
					CurrentDaily: currentDaily,
					NewDaily:     newDaily,
					WeeklyImpact: round2((newDaily - currentDaily) * 7),
					Reason:       fmt.Sprintf("ROAS %.2f over %d active days, above the %.1f scale threshold.", c.ROAS, c.DaysActive, e.cfg.ROASScaleThreshold),
				})
			case c.ROAS < e.cfg.ROASCutThreshold:
				newDaily := round2(currentDaily * (1 - e.cfg.CampaignCutReduction))
				recs = append(recs, BudgetRecommendation{
					ID:           recommendationID(string(ch), c.Name, windowStart, windowEnd),
					Priority:     PriorityHigh,
					ActionType:   ActionCampaignCut,
					Channel:      ch.DisplayName(),
					Campaign:     c.Name,
					Action:       fmt.Sprintf("Cut %q by %.0f%% ($%.2f -> $%.2f daily)", c.Name, e.cfg.CampaignCutReduction*100, currentDaily, newDaily),
					CurrentDaily: currentDaily,
					NewDaily:     newDaily,
					WeeklyImpact: round2((newDaily - currentDaily) * 7),
					Reason:       fmt.Sprintf("ROAS %.2f over %d active days, below the %.1f cut threshold.", c.ROAS, c.DaysActive, e.cfg.ROASCutThreshold),
				})
			}
		}
	}

	return recs
}

// recommendationID hashes the recommendation's identity fields with FNV-1a.
// The same channel, campaign and comparison window always produce the same
// id, which is what lets completed changelog entries suppress repeats.
func recommendationID(channel, campaign, windowStart, windowEnd string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s", channel, campaign, windowStart, windowEnd)
	return fmt.Sprintf("%016x", h.Sum64())
}
