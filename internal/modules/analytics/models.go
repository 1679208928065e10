package analytics

import (
	"fmt"
)

// Direction classifies a metric's period-over-period movement against the
// agreement band: up when change > +band, down when change < -band, flat
// inside the band (a change of exactly +band is flat).
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Agreement says whether an outcome metric moved with spend.
type Agreement string

const (
	AgreementAgree    Agreement = "agree"
	AgreementDisagree Agreement = "disagree"
	AgreementNeutral  Agreement = "neutral"
)

// VerdictStatus is the closed set of overall health classifications.
type VerdictStatus string

const (
	VerdictConfident       VerdictStatus = "confident"
	VerdictLikelyWorking   VerdictStatus = "likely_working"
	VerdictConcerning      VerdictStatus = "concerning"
	VerdictExpectedDecline VerdictStatus = "expected_decline"
	VerdictEfficient       VerdictStatus = "efficient"
	VerdictMonitoring      VerdictStatus = "monitoring"
	VerdictStable          VerdictStatus = "stable"
	VerdictInconclusive    VerdictStatus = "inconclusive"
)

// Strategy is the overall budget posture derived from efficiency headroom
// and signal agreement.
type Strategy string

const (
	StrategyScale Strategy = "scale"
	StrategyGrow  Strategy = "grow"
	StrategyHold  Strategy = "hold"
	StrategyTest  Strategy = "test"
)

// Priority orders recommendations for the action board.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Config carries every policy constant the engine uses. All thresholds are
// fixed policy unless noted; they live here (not inline) so tests can
// exercise the boundaries without monkeypatching.
type Config struct {
	// AgreementBandPct is the +-% band inside which a change counts as flat.
	AgreementBandPct float64

	// Efficiency targets (operator-tunable via env).
	NCACTarget float64 // max acceptable new-customer acquisition cost
	MERFloor   float64 // minimum acceptable marketing efficiency ratio

	// Headroom required beyond the targets before recommending aggressive
	// scaling rather than moderate growth.
	NCACScaleHeadroom float64
	MERScaleHeadroom  float64

	// Campaign-level policy thresholds.
	ROASCutThreshold   float64 // below this with material spend -> cut
	ROASScaleThreshold float64 // above this with material spend -> scale
	MinCampaignSpend   float64 // spend floor before a campaign is judged at all

	// Budget change fractions by strategy.
	ScaleIncrease float64
	GrowIncrease  float64
	TestIncrease  float64

	// Campaign-level change fractions.
	CampaignScaleIncrease float64
	CampaignGrowIncrease  float64
	CampaignCutReduction  float64
}

// DefaultConfig returns the documented policy defaults.
func DefaultConfig() Config {
	return Config{
		AgreementBandPct:      5.0,
		NCACTarget:            50.0,
		MERFloor:              2.0,
		NCACScaleHeadroom:     5.0,
		MERScaleHeadroom:      0.5,
		ROASCutThreshold:      1.5,
		ROASScaleThreshold:    3.0,
		MinCampaignSpend:      50.0,
		ScaleIncrease:         0.20,
		GrowIncrease:          0.10,
		TestIncrease:          0.05,
		CampaignScaleIncrease: 0.25,
		CampaignGrowIncrease:  0.15,
		CampaignCutReduction:  0.30,
	}
}

// InsufficientDataError is the only fatal, caller-visible failure: the loaded
// series is too short for the requested comparison window. It carries enough
// structure for the caller to suggest a smaller window without a second
// round-trip.
type InsufficientDataError struct {
	Required  int // days needed (2 x periodDays)
	Available int // days actually loaded
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("need at least %d days of data, have %d", e.Required, e.Available)
}

// MaxWindow returns the largest period the available data can support.
func (e *InsufficientDataError) MaxWindow() int {
	return e.Available / 2
}

// Period describes the two compared windows.
type Period struct {
	Days          int    `json:"days"`
	CurrentStart  string `json:"current_start"`
	PreviousStart string `json:"previous_start"`
	Label         string `json:"label"`
}

// PeriodTotals sums one window's tracked fields and derives the two
// efficiency ratios. MER and NCAC are 0 when their denominator is 0; in
// particular MER is 0 (not infinite) when spend is 0 and revenue is not.
type PeriodTotals struct {
	AdSpend      float64 `json:"ad_spend"`
	Revenue      float64 `json:"shopify_revenue"`
	Orders       int     `json:"shopify_orders"`
	NewCustomers int     `json:"new_customers"`
	AmazonSales  float64 `json:"amazon_sales"`
	MER          float64 `json:"mer"`
	NCAC         float64 `json:"ncac"`
}

// ChangeSet holds percentage changes between the two windows. Branded search
// is 0 when the snapshot has no GSC data (the signal is then omitted).
type ChangeSet struct {
	AdSpendPct       float64 `json:"ad_spend_pct"`
	RevenuePct       float64 `json:"shopify_revenue_pct"`
	NewCustomersPct  float64 `json:"new_customers_pct"`
	AmazonSalesPct   float64 `json:"amazon_sales_pct"`
	BrandedSearchPct float64 `json:"branded_search_pct"`
	MERPct           float64 `json:"mer_pct"`
	NCACPct          float64 `json:"ncac_pct"`
}

// Signal is one outcome metric's classification against spend direction.
type Signal struct {
	Metric    string    `json:"metric"`
	Label     string    `json:"label"`
	ChangePct float64   `json:"change_pct"`
	Direction Direction `json:"direction"`
	Agreement Agreement `json:"agreement"`
}

// SignalSummary counts agreements across signals.
type SignalSummary struct {
	Agree    int `json:"agree"`
	Disagree int `json:"disagree"`
	Neutral  int `json:"neutral"`
}

// Efficiency is the MER/NCAC block. NCAC is "lower is better": a negative
// ncac_change_pct is an improvement.
type Efficiency struct {
	CurrentMER    float64 `json:"current_mer"`
	PreviousMER   float64 `json:"previous_mer"`
	MERChangePct  float64 `json:"mer_change_pct"`
	CurrentNCAC   float64 `json:"current_ncac"`
	PreviousNCAC  float64 `json:"previous_ncac"`
	NCACChangePct float64 `json:"ncac_change_pct"`
	Note          string  `json:"note"`
}

// Verdict is the overall health classification with its display message.
type Verdict struct {
	Status  VerdictStatus `json:"status"`
	Message string        `json:"message"`
}

// DailyTrendPoint feeds the dashboard's current-window chart.
type DailyTrendPoint struct {
	Date         string  `json:"date"`
	AdSpend      float64 `json:"ad_spend"`
	Revenue      float64 `json:"shopify_revenue"`
	NewCustomers int     `json:"new_customers"`
	AmazonSales  float64 `json:"amazon_sales"`
}

// SpendOutcomeCorrelation is the full triangulation result: did business
// outcomes follow the spend change, without trusting any attribution model?
type SpendOutcomeCorrelation struct {
	Period         Period            `json:"period"`
	CurrentTotals  PeriodTotals      `json:"current_totals"`
	PreviousTotals PeriodTotals      `json:"previous_totals"`
	Changes        ChangeSet         `json:"changes"`
	SpendDirection Direction         `json:"spend_direction"`
	Signals        []Signal          `json:"signals"`
	SignalSummary  SignalSummary     `json:"signal_summary"`
	Efficiency     Efficiency        `json:"efficiency"`
	Verdict        Verdict           `json:"verdict"`
	DailyTrend     []DailyTrendPoint `json:"daily_trend"`
}

// ChannelCorrelation is one channel's spend-to-outcome co-movement.
// The correlation scalars are Pearson coefficients between the channel's
// daily spend and the daily outcome series over the full 2N-day window.
type ChannelCorrelation struct {
	Channel              string  `json:"channel"`
	CurrentSpend         float64 `json:"current_spend"`
	PreviousSpend        float64 `json:"previous_spend"`
	SpendChangePct       float64 `json:"spend_change_pct"`
	RevenueChangePct     float64 `json:"revenue_change_pct"`
	NewCustomerChangePct float64 `json:"new_customer_change_pct"`
	RevenueCorrelation   float64 `json:"revenue_correlation"`
	NCCorrelation        float64 `json:"nc_correlation"`
}

// ChannelCorrelationResult compares channels and suggests a budget shift
// when one channel's co-movement clearly dominates.
type ChannelCorrelationResult struct {
	Period         Period                        `json:"period"`
	Channels       map[string]ChannelCorrelation `json:"channels"`
	Recommendation string                        `json:"recommendation,omitempty"`
}

// BudgetRecommendation is one suggested action. IDs are deterministic across
// repeated calls on the same window so the changelog can de-duplicate
// recently completed items.
type BudgetRecommendation struct {
	ID           string   `json:"id"`
	Priority     Priority `json:"priority"`
	ActionType   string   `json:"action_type"`
	Channel      string   `json:"channel"`
	Campaign     string   `json:"campaign"`
	Action       string   `json:"action"`
	CurrentDaily float64  `json:"current_daily"`
	NewDaily     float64  `json:"new_daily"`
	WeeklyImpact float64  `json:"weekly_impact"`
	Reason       string   `json:"reason"`
}

// Recommendation action types.
const (
	ActionBudgetIncrease = "BUDGET_INCREASE"
	ActionBudgetHold     = "BUDGET_HOLD"
	ActionCampaignScale  = "CAMPAIGN_SCALE"
	ActionCampaignCut    = "CAMPAIGN_CUT"
)

// StrategyResult is the overall posture plus its reasoning.
type StrategyResult struct {
	Overall Strategy `json:"overall"`
	Reason  string   `json:"reason"`
}

// EfficiencyTargets reports current ratios against the configured targets.
type EfficiencyTargets struct {
	CurrentNCAC  float64 `json:"current_ncac"`
	NCACTarget   float64 `json:"ncac_target"`
	NCACHeadroom float64 `json:"ncac_headroom"`
	CurrentMER   float64 `json:"current_mer"`
	MERFloor     float64 `json:"mer_floor"`
	MERHeadroom  float64 `json:"mer_headroom"`
}

// RecommendationsResponse bundles strategy, efficiency and the ranked list.
type RecommendationsResponse struct {
	Strategy        StrategyResult         `json:"strategy"`
	Efficiency      EfficiencyTargets      `json:"efficiency"`
	SignalSummary   SignalSummary          `json:"signal_summary"`
	Recommendations []BudgetRecommendation `json:"recommendations"`
	PeriodDays      int                    `json:"period_days"`
}

// HaloTrendPoint is one day of the ad-spend vs Amazon-sales chart.
type HaloTrendPoint struct {
	Date         string  `json:"date"`
	TotalSpend   float64 `json:"total_spend"`
	MetaSpend    float64 `json:"meta_spend"`
	GoogleSpend  float64 `json:"google_spend"`
	AmazonSales  float64 `json:"amazon_sales"`
	ShopifySales float64 `json:"shopify_sales"`
	SpendSMA     float64 `json:"spend_sma"`
	AmazonSMA    float64 `json:"amazon_sma"`
}

// HaloTrendSummary aggregates the halo window.
type HaloTrendSummary struct {
	Days                int     `json:"days"`
	DataPoints          int     `json:"data_points"`
	TotalAdSpend        float64 `json:"total_ad_spend"`
	TotalAmazonSales    float64 `json:"total_amazon_sales"`
	TotalShopifySales   float64 `json:"total_shopify_sales"`
	AvgDailySpend       float64 `json:"avg_daily_spend"`
	SpendAmazonCorr     float64 `json:"spend_amazon_correlation"`
	CorrelationStrength string  `json:"correlation_strength"`
}

// HaloTrend is the halo-effect chart payload.
type HaloTrend struct {
	Data    []HaloTrendPoint `json:"data"`
	Summary HaloTrendSummary `json:"summary"`
}
