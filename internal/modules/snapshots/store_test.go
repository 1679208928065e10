package snapshots

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func setupStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewStore(dir, zerolog.Nop()), dir
}

func TestReload_DailySeries(t *testing.T) {
	store, dir := setupStore(t)

	writeSnapshot(t, dir, historicalFile, map[string]interface{}{
		"metrics": []map[string]interface{}{
			// Out of order and with a duplicate; loader must sort and dedupe
			{"date": "2026-08-20", "spend": 100, "sales": 300, "orders": 10, "nc_orders": 4, "amz_us_sales": 50},
			{"date": "2026-08-19", "spend": 90, "sales": 280, "orders": 9, "nc_orders": 3, "amz_us_sales": 40},
			{"date": "2026-08-20", "spend": 110, "sales": 310, "orders": 11, "nc_orders": 5, "amz_us_sales": 55},
			{"date": "not-a-date", "spend": 1, "sales": 1},
			{"date": "2026-08-21", "spend": -5, "sales": 100}, // negative money, dropped
		},
	})

	require.NoError(t, store.Reload())

	series := store.DailySeries()
	require.Len(t, series, 2)
	assert.Equal(t, "2026-08-19", series[0].Date)
	assert.Equal(t, "2026-08-20", series[1].Date)
	// Last write wins for the duplicate date
	assert.Equal(t, 110.0, series[1].AdSpend)
	assert.Equal(t, 5, series[1].NewCustomers)
	assert.Nil(t, series[0].BrandedClicks)
}

func TestReload_MergesBrandedSearch(t *testing.T) {
	store, dir := setupStore(t)

	writeSnapshot(t, dir, historicalFile, map[string]interface{}{
		"metrics": []map[string]interface{}{
			{"date": "2026-08-19", "spend": 90, "sales": 280},
			{"date": "2026-08-20", "spend": 100, "sales": 300},
		},
	})
	writeSnapshot(t, dir, gscFile, []map[string]interface{}{
		{"date": "2026-08-20", "branded_clicks": 42},
	})

	require.NoError(t, store.Reload())

	series := store.DailySeries()
	require.Len(t, series, 2)
	assert.Nil(t, series[0].BrandedClicks)
	require.NotNil(t, series[1].BrandedClicks)
	assert.Equal(t, 42.0, *series[1].BrandedClicks)
}

func TestReload_MissingDailyMetricsFails(t *testing.T) {
	store, _ := setupStore(t)
	err := store.Reload()
	require.Error(t, err)
}

func TestCampaignsForWindow(t *testing.T) {
	store, dir := setupStore(t)

	writeSnapshot(t, dir, historicalFile, map[string]interface{}{
		"metrics": []map[string]interface{}{
			{"date": "2026-08-14", "spend": 80, "sales": 200},
			{"date": "2026-08-20", "spend": 100, "sales": 300},
		},
	})
	writeSnapshot(t, dir, googleCampaignsFile, []map[string]interface{}{
		{"date": "2026-08-20", "campaign_id": "g1", "campaign_name": "Brand Search", "spend": 50, "conversion_value": 200, "conversions": 4},
		{"date": "2026-08-19", "campaign_id": "g1", "campaign_name": "Brand Search", "spend": 40, "conversion_value": 100, "conversions": 2},
		// Before the 7-day window anchored on 2026-08-20
		{"date": "2026-08-10", "campaign_id": "g1", "campaign_name": "Brand Search", "spend": 999, "conversion_value": 0, "conversions": 0},
		{"date": "2026-08-20", "campaign_id": "g2", "campaign_name": "PMax", "spend": 10, "conversion_value": 5, "conversions": 1},
	})
	writeSnapshot(t, dir, metaCampaignsFile, []map[string]interface{}{
		{"date": "2026-08-20", "campaign_id": "m1", "campaign_name": "TOF Prospecting", "spend": 70, "purchase_value": 140, "purchases": 3},
	})

	require.NoError(t, store.Reload())

	google := store.CampaignsForWindow(ChannelGoogle, 7)
	require.Len(t, google, 2)
	// Sorted by spend descending
	assert.Equal(t, "Brand Search", google[0].Name)
	assert.Equal(t, 90.0, google[0].Spend)
	assert.Equal(t, 300.0, google[0].Revenue)
	assert.Equal(t, 2, google[0].DaysActive)
	assert.InDelta(t, 300.0/90.0, google[0].ROAS, 1e-9)

	meta := store.CampaignsForWindow(ChannelMeta, 7)
	require.Len(t, meta, 1)
	assert.Equal(t, ChannelMeta, meta[0].Channel)
	assert.InDelta(t, 2.0, meta[0].ROAS, 1e-9)
}

func TestCampaignsForWindow_ZeroSpendROAS(t *testing.T) {
	store, dir := setupStore(t)

	writeSnapshot(t, dir, historicalFile, map[string]interface{}{
		"metrics": []map[string]interface{}{
			{"date": "2026-08-20", "spend": 0, "sales": 0},
		},
	})
	writeSnapshot(t, dir, metaCampaignsFile, []map[string]interface{}{
		{"date": "2026-08-20", "campaign_id": "m1", "campaign_name": "Paused", "spend": 0, "purchase_value": 50, "purchases": 1},
	})

	require.NoError(t, store.Reload())

	meta := store.CampaignsForWindow(ChannelMeta, 7)
	require.Len(t, meta, 1)
	assert.Equal(t, 0.0, meta[0].ROAS)
}
