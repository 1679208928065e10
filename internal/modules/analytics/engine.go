package analytics

import (
	"fmt"
	"math"

	"github.com/camdash/camdash/internal/modules/snapshots"
	"github.com/camdash/camdash/pkg/formulas"
)

// Engine computes spend-to-outcome triangulation over pre-aggregated daily
// metrics. Every method is a pure function of its inputs and the injected
// policy config: no I/O, no retained state, safe for any number of
// concurrent callers.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given policy configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's policy configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ComputeCorrelation compares the last periodDays of the series against the
// periodDays immediately before and classifies whether business outcomes
// followed the spend change. The series must be in ascending date order and
// hold at least 2 x periodDays points, otherwise an InsufficientDataError
// is returned.
func (e *Engine) ComputeCorrelation(series []snapshots.DailyMetricPoint, periodDays int) (*SpendOutcomeCorrelation, error) {
	current, previous, err := splitWindows(series, periodDays)
	if err != nil {
		return nil, err
	}

	currentTotals := sumPeriod(current)
	previousTotals := sumPeriod(previous)

	spendPct := formulas.PctChange(currentTotals.AdSpend, previousTotals.AdSpend)
	revenuePct := formulas.PctChange(currentTotals.Revenue, previousTotals.Revenue)
	newCustomersPct := formulas.PctChange(float64(currentTotals.NewCustomers), float64(previousTotals.NewCustomers))
	amazonPct := formulas.PctChange(currentTotals.AmazonSales, previousTotals.AmazonSales)

	changes := ChangeSet{
		AdSpendPct:      round1(spendPct),
		RevenuePct:      round1(revenuePct),
		NewCustomersPct: round1(newCustomersPct),
		AmazonSalesPct:  round1(amazonPct),
		MERPct:          round1(formulas.PctChange(currentTotals.MER, previousTotals.MER)),
		NCACPct:         round1(formulas.PctChange(currentTotals.NCAC, previousTotals.NCAC)),
	}

	// Directions band on the unrounded changes so a move just past the band
	// edge is not flattened by display rounding.
	spendDirection := e.direction(spendPct)

	outcomes := []struct {
		metric    string
		label     string
		changePct float64
	}{
		{"shopify_revenue", "Shopify Revenue", revenuePct},
		{"new_customers", "New Customers", newCustomersPct},
		{"amazon_sales", "Amazon Sales", amazonPct},
	}

	// Branded search participates only when the snapshot carries GSC data
	// for the compared windows.
	if hasBrandedSearch(current) || hasBrandedSearch(previous) {
		brandedPct := formulas.PctChange(sumBranded(current), sumBranded(previous))
		changes.BrandedSearchPct = round1(brandedPct)
		outcomes = append(outcomes, struct {
			metric    string
			label     string
			changePct float64
		}{"branded_search", "Branded Search", brandedPct})
	}

	signals := make([]Signal, 0, len(outcomes))
	var summary SignalSummary
	for _, o := range outcomes {
		dir := e.direction(o.changePct)
		agr := agreementFor(spendDirection, dir)
		switch agr {
		case AgreementAgree:
			summary.Agree++
		case AgreementDisagree:
			summary.Disagree++
		default:
			summary.Neutral++
		}
		signals = append(signals, Signal{
			Metric:    o.metric,
			Label:     o.label,
			ChangePct: round1(o.changePct),
			Direction: dir,
			Agreement: agr,
		})
	}

	efficiency := Efficiency{
		CurrentMER:    round2(currentTotals.MER),
		PreviousMER:   round2(previousTotals.MER),
		MERChangePct:  changes.MERPct,
		CurrentNCAC:   round2(currentTotals.NCAC),
		PreviousNCAC:  round2(previousTotals.NCAC),
		NCACChangePct: changes.NCACPct,
		Note:          "MER = Revenue/Spend (higher is better). NCAC = Spend/New Customers (lower is better).",
	}

	verdict := e.deriveVerdict(spendDirection, signals, summary, efficiency)

	dailyTrend := make([]DailyTrendPoint, 0, len(current))
	for _, p := range current {
		dailyTrend = append(dailyTrend, DailyTrendPoint{
			Date:         p.Date,
			AdSpend:      p.AdSpend,
			Revenue:      p.Revenue,
			NewCustomers: p.NewCustomers,
			AmazonSales:  p.AmazonSales,
		})
	}

	return &SpendOutcomeCorrelation{
		Period: Period{
			Days:          periodDays,
			CurrentStart:  current[0].Date,
			PreviousStart: previous[0].Date,
			Label:         fmt.Sprintf("Last %d days vs previous %d days", periodDays, periodDays),
		},
		CurrentTotals:  currentTotals,
		PreviousTotals: previousTotals,
		Changes:        changes,
		SpendDirection: spendDirection,
		Signals:        signals,
		SignalSummary:  summary,
		Efficiency:     efficiency,
		Verdict:        verdict,
		DailyTrend:     dailyTrend,
	}, nil
}

// deriveVerdict walks the decision table top to bottom; rows are not
// mutually exclusive, so order matters. The likely_working row accepts one
// dissenting signal: two confirming outcomes with a single outlier still
// reads as the spend change working.
func (e *Engine) deriveVerdict(spendDir Direction, signals []Signal, summary SignalSummary, eff Efficiency) Verdict {
	total := len(signals)
	downCount := 0
	for _, s := range signals {
		if s.Direction == DirectionDown {
			downCount++
		}
	}

	switch {
	case spendDir == DirectionUp && summary.Agree >= 3:
		return Verdict{
			Status:  VerdictConfident,
			Message: fmt.Sprintf("Spend increase is working. %d/%d signals moved up with spend.", summary.Agree, total),
		}
	case spendDir == DirectionUp && summary.Agree >= 2 && summary.Disagree < 2:
		return Verdict{
			Status:  VerdictLikelyWorking,
			Message: fmt.Sprintf("Spend increase appears to be working. %d/%d signals agree.", summary.Agree, total),
		}
	case summary.Disagree >= 2 && spendDir != DirectionFlat:
		return Verdict{
			Status:  VerdictConcerning,
			Message: fmt.Sprintf("Spend moved but %d/%d key metrics went the other way. Review efficiency.", summary.Disagree, total),
		}
	case spendDir == DirectionDown && downCount > 0 && downCount*2 >= total:
		return Verdict{
			Status:  VerdictExpectedDecline,
			Message: "Sales declining as expected with reduced spend.",
		}
	case eff.MERChangePct > 0 && eff.NCACChangePct <= 0:
		return Verdict{
			Status:  VerdictEfficient,
			Message: "Efficiency improving: MER up and NCAC down. Spend is doing more with less.",
		}
	case summary.Agree > 0 && summary.Agree == summary.Disagree:
		return Verdict{
			Status:  VerdictMonitoring,
			Message: "Signals split evenly. Monitor for delayed effects.",
		}
	case spendDir == DirectionFlat:
		return Verdict{
			Status:  VerdictStable,
			Message: "Spend stable. Watch for trends over time.",
		}
	default:
		return Verdict{
			Status:  VerdictInconclusive,
			Message: "Mixed signals. Need more data or time for effects to show.",
		}
	}
}

// direction bands a percentage change. Exactly +-band is flat.
func (e *Engine) direction(changePct float64) Direction {
	switch {
	case changePct > e.cfg.AgreementBandPct:
		return DirectionUp
	case changePct < -e.cfg.AgreementBandPct:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

func agreementFor(spendDir, metricDir Direction) Agreement {
	if spendDir == DirectionFlat || metricDir == DirectionFlat {
		return AgreementNeutral
	}
	if spendDir == metricDir {
		return AgreementAgree
	}
	return AgreementDisagree
}

// splitWindows slices the series into the two adjacent, non-overlapping
// comparison windows of exactly periodDays points each.
func splitWindows(series []snapshots.DailyMetricPoint, periodDays int) (current, previous []snapshots.DailyMetricPoint, err error) {
	if periodDays <= 0 {
		return nil, nil, fmt.Errorf("period must be positive, got %d", periodDays)
	}
	required := periodDays * 2
	if len(series) < required {
		return nil, nil, &InsufficientDataError{Required: required, Available: len(series)}
	}
	current = series[len(series)-periodDays:]
	previous = series[len(series)-required : len(series)-periodDays]
	return current, previous, nil
}

func sumPeriod(points []snapshots.DailyMetricPoint) PeriodTotals {
	var t PeriodTotals
	for _, p := range points {
		t.AdSpend += p.AdSpend
		t.Revenue += p.Revenue
		t.Orders += p.Orders
		t.NewCustomers += p.NewCustomers
		t.AmazonSales += p.AmazonSales
	}
	t.AdSpend = round2(t.AdSpend)
	t.Revenue = round2(t.Revenue)
	t.AmazonSales = round2(t.AmazonSales)
	t.MER = round2(formulas.SafeRatio(t.Revenue, t.AdSpend))
	t.NCAC = round2(formulas.SafeRatio(t.AdSpend, float64(t.NewCustomers)))
	return t
}

func hasBrandedSearch(points []snapshots.DailyMetricPoint) bool {
	for _, p := range points {
		if p.BrandedClicks != nil {
			return true
		}
	}
	return false
}

func sumBranded(points []snapshots.DailyMetricPoint) float64 {
	var total float64
	for _, p := range points {
		if p.BrandedClicks != nil {
			total += *p.BrandedClicks
		}
	}
	return total
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
