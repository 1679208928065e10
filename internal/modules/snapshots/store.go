package snapshots

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/camdash/camdash/pkg/formulas"
)

// Snapshot file names inside the data directory. The connectors own the
// writes; this store only ever reads.
const (
	historicalFile      = "daily_metrics.json"
	gscFile             = "gsc_daily.json"
	googleCampaignsFile = "google_campaigns.json"
	metaCampaignsFile   = "meta_campaigns.json"
)

const dateLayout = "2006-01-02"

// Store loads connector snapshot files into memory and serves typed,
// validated records to the analytics layer. Reload swaps the whole state
// atomically, so readers never observe a half-loaded snapshot.
type Store struct {
	dir string
	log zerolog.Logger

	mu        sync.RWMutex
	series    []DailyMetricPoint
	campaigns []CampaignRow
	loadedAt  time.Time
}

// NewStore creates a snapshot store over the given data directory.
func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{
		dir: dir,
		log: log.With().Str("component", "snapshots").Logger(),
	}
}

// Reload re-reads all snapshot files. The daily metrics file is required;
// GSC and campaign files are optional and default to empty.
func (s *Store) Reload() error {
	series, err := s.loadDailySeries()
	if err != nil {
		return err
	}

	campaigns := s.loadCampaignRows()

	s.mu.Lock()
	s.series = series
	s.campaigns = campaigns
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.log.Info().
		Int("days", len(series)).
		Int("campaign_rows", len(campaigns)).
		Msg("Snapshots reloaded")

	return nil
}

// DailySeries returns the full daily metric history in ascending date order.
// The returned slice is a copy; callers may not mutate store state.
func (s *Store) DailySeries() []DailyMetricPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DailyMetricPoint, len(s.series))
	copy(out, s.series)
	return out
}

// CampaignsForWindow aggregates campaign rows for the channel over the last
// N days of the loaded series, sorted by spend descending.
func (s *Store) CampaignsForWindow(channel Channel, days int) []CampaignPeriod {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.series) == 0 || days <= 0 {
		return nil
	}

	// Window is anchored on the latest loaded date, not wall-clock today,
	// so a stale snapshot still produces a coherent comparison.
	latest, err := time.Parse(dateLayout, s.series[len(s.series)-1].Date)
	if err != nil {
		return nil
	}
	cutoff := latest.AddDate(0, 0, -(days - 1)).Format(dateLayout)

	totals := make(map[string]*CampaignPeriod)
	var order []string
	for _, row := range s.campaigns {
		if row.Channel != channel || row.Date < cutoff {
			continue
		}
		key := row.CampaignID
		if key == "" {
			key = row.Name
		}
		agg, ok := totals[key]
		if !ok {
			agg = &CampaignPeriod{
				Channel:    channel,
				CampaignID: row.CampaignID,
				Name:       row.Name,
			}
			totals[key] = agg
			order = append(order, key)
		}
		agg.Spend += row.Spend
		agg.Revenue += row.Revenue
		agg.Orders += row.Orders
		agg.DaysActive++
	}

	result := make([]CampaignPeriod, 0, len(order))
	for _, key := range order {
		agg := totals[key]
		agg.ROAS = formulas.SafeRatio(agg.Revenue, agg.Spend)
		result = append(result, *agg)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Spend > result[j].Spend
	})

	return result
}

// LoadedAt reports when snapshots were last reloaded (zero before first load).
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Days returns the number of daily metric points currently loaded.
func (s *Store) Days() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series)
}

func (s *Store) loadDailySeries() ([]DailyMetricPoint, error) {
	var file rawHistoricalFile
	if err := s.readJSON(historicalFile, &file); err != nil {
		return nil, fmt.Errorf("failed to load daily metrics: %w", err)
	}

	branded := s.loadBrandedByDate()

	// Last write wins on duplicate dates; invalid rows are dropped with a
	// warning rather than failing the whole reload.
	byDate := make(map[string]DailyMetricPoint)
	for _, raw := range file.Metrics {
		point, err := normalizeDailyMetric(raw)
		if err != nil {
			s.log.Warn().Err(err).Str("date", raw.Date).Msg("Skipping invalid daily metric")
			continue
		}
		if clicks, ok := branded[point.Date]; ok {
			c := clicks
			point.BrandedClicks = &c
		}
		byDate[point.Date] = point
	}

	series := make([]DailyMetricPoint, 0, len(byDate))
	for _, p := range byDate {
		series = append(series, p)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})

	return series, nil
}

func (s *Store) loadBrandedByDate() map[string]float64 {
	var days []rawGSCDay
	if err := s.readJSON(gscFile, &days); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Msg("Failed to load GSC snapshot, branded search disabled")
		}
		return nil
	}

	branded := make(map[string]float64, len(days))
	for _, d := range days {
		if _, err := time.Parse(dateLayout, d.Date); err != nil {
			continue
		}
		branded[d.Date] = d.BrandedClicks
	}
	return branded
}

func (s *Store) loadCampaignRows() []CampaignRow {
	var rows []CampaignRow

	var google []rawGoogleCampaignRow
	if err := s.readJSON(googleCampaignsFile, &google); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Msg("Failed to load Google campaign snapshot")
		}
	}
	for _, g := range google {
		row := CampaignRow{
			Date:       g.Date,
			Channel:    ChannelGoogle,
			CampaignID: g.CampaignID,
			Name:       g.CampaignName,
			Spend:      g.Spend,
			Revenue:    g.ConversionValue,
			Orders:     int(g.Conversions),
		}
		if err := validateCampaignRow(row); err != nil {
			s.log.Warn().Err(err).Str("campaign", row.Name).Msg("Skipping invalid Google campaign row")
			continue
		}
		rows = append(rows, row)
	}

	var meta []rawMetaCampaignRow
	if err := s.readJSON(metaCampaignsFile, &meta); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Msg("Failed to load Meta campaign snapshot")
		}
	}
	for _, m := range meta {
		row := CampaignRow{
			Date:       m.Date,
			Channel:    ChannelMeta,
			CampaignID: m.CampaignID,
			Name:       m.CampaignName,
			Spend:      m.Spend,
			Revenue:    m.PurchaseValue,
			Orders:     m.Purchases,
		}
		if err := validateCampaignRow(row); err != nil {
			s.log.Warn().Err(err).Str("campaign", row.Name).Msg("Skipping invalid Meta campaign row")
			continue
		}
		rows = append(rows, row)
	}

	return rows
}

func (s *Store) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func normalizeDailyMetric(raw rawDailyMetric) (DailyMetricPoint, error) {
	if _, err := time.Parse(dateLayout, raw.Date); err != nil {
		return DailyMetricPoint{}, fmt.Errorf("invalid date %q", raw.Date)
	}
	if raw.Spend < 0 || raw.Sales < 0 || raw.AmzUSSales < 0 {
		return DailyMetricPoint{}, fmt.Errorf("negative money value on %s", raw.Date)
	}
	if raw.Orders < 0 || raw.NCOrders < 0 {
		return DailyMetricPoint{}, fmt.Errorf("negative count on %s", raw.Date)
	}

	return DailyMetricPoint{
		Date:          raw.Date,
		AdSpend:       raw.Spend,
		Revenue:       raw.Sales,
		Orders:        raw.Orders,
		NewCustomers:  raw.NCOrders,
		AmazonSales:   raw.AmzUSSales,
		GoogleSpend:   raw.GoogleSpend,
		GoogleRevenue: raw.GoogleAttribRev,
		MetaSpend:     raw.FacebookSpend,
		MetaRevenue:   raw.MetaAttribRev,
		CAM:           raw.ContribAfterMkt,
	}, nil
}

func validateCampaignRow(row CampaignRow) error {
	if _, err := time.Parse(dateLayout, row.Date); err != nil {
		return fmt.Errorf("invalid date %q", row.Date)
	}
	if row.Spend < 0 || row.Revenue < 0 {
		return fmt.Errorf("negative money value on %s", row.Date)
	}
	return nil
}
