package snapshots

// Channel identifies an advertising channel tracked by the dashboard.
type Channel string

const (
	ChannelGoogle Channel = "google"
	ChannelMeta   Channel = "meta"
)

// Channels lists the channels with per-channel spend in the daily metrics.
var Channels = []Channel{ChannelGoogle, ChannelMeta}

// DisplayName returns the label used in API responses and recommendations.
func (c Channel) DisplayName() string {
	switch c {
	case ChannelGoogle:
		return "Google"
	case ChannelMeta:
		return "Meta"
	}
	return string(c)
}

// DailyMetricPoint is one calendar day's blended numbers, already
// de-duplicated by the upstream attribution pull. Immutable once loaded;
// the analytics engine only reads sequences of these.
type DailyMetricPoint struct {
	Date          string   `json:"date"` // YYYY-MM-DD
	AdSpend       float64  `json:"ad_spend"`
	Revenue       float64  `json:"revenue"` // Shopify revenue
	Orders        int      `json:"orders"`
	NewCustomers  int      `json:"new_customers"`
	AmazonSales   float64  `json:"amazon_sales"`
	GoogleSpend   float64  `json:"google_spend"`
	GoogleRevenue float64  `json:"google_revenue"`
	MetaSpend     float64  `json:"meta_spend"`
	MetaRevenue   float64  `json:"meta_revenue"`
	CAM           float64  `json:"cam"` // contribution after marketing
	BrandedClicks *float64 `json:"branded_clicks,omitempty"`
}

// ChannelSpend returns the point's spend on the given channel.
func (p DailyMetricPoint) ChannelSpend(c Channel) float64 {
	switch c {
	case ChannelGoogle:
		return p.GoogleSpend
	case ChannelMeta:
		return p.MetaSpend
	}
	return 0
}

// ChannelRevenue returns the point's attributed revenue for the channel.
func (p DailyMetricPoint) ChannelRevenue(c Channel) float64 {
	switch c {
	case ChannelGoogle:
		return p.GoogleRevenue
	case ChannelMeta:
		return p.MetaRevenue
	}
	return 0
}

// CampaignRow is one campaign's numbers for one day, normalized across
// platforms (Google reports conversion_value/conversions, Meta reports
// purchase_value/purchases; both land here as revenue/orders).
type CampaignRow struct {
	Date       string  `json:"date"`
	Channel    Channel `json:"channel"`
	CampaignID string  `json:"campaign_id"`
	Name       string  `json:"campaign_name"`
	Spend      float64 `json:"spend"`
	Revenue    float64 `json:"revenue"`
	Orders     int     `json:"orders"`
}

// CampaignPeriod is a campaign's totals over a request window.
type CampaignPeriod struct {
	Channel    Channel `json:"channel"`
	CampaignID string  `json:"campaign_id"`
	Name       string  `json:"campaign_name"`
	Spend      float64 `json:"spend"`
	Revenue    float64 `json:"revenue"`
	Orders     int     `json:"orders"`
	DaysActive int     `json:"days_active"`
	ROAS       float64 `json:"roas"` // 0 when spend is 0
}

// Raw snapshot file shapes, as written by the connectors. Field names follow
// the attribution provider's export; normalization to the typed records above
// happens at load time and nowhere else.

type rawHistoricalFile struct {
	Metrics []rawDailyMetric `json:"metrics"`
}

type rawDailyMetric struct {
	Date            string  `json:"date"`
	Spend           float64 `json:"spend"`
	Sales           float64 `json:"sales"`
	Orders          int     `json:"orders"`
	NCOrders        int     `json:"nc_orders"`
	AmzUSSales      float64 `json:"amz_us_sales"`
	GoogleSpend     float64 `json:"google_spend"`
	GoogleAttribRev float64 `json:"google_attributed_revenue"`
	FacebookSpend   float64 `json:"facebook_spend"`
	MetaAttribRev   float64 `json:"meta_attributed_revenue"`
	ContribAfterMkt float64 `json:"contrib_after_mkt"`
}

type rawGSCDay struct {
	Date          string  `json:"date"`
	BrandedClicks float64 `json:"branded_clicks"`
}

type rawGoogleCampaignRow struct {
	Date            string  `json:"date"`
	CampaignID      string  `json:"campaign_id"`
	CampaignName    string  `json:"campaign_name"`
	Spend           float64 `json:"spend"`
	ConversionValue float64 `json:"conversion_value"`
	Conversions     float64 `json:"conversions"`
}

type rawMetaCampaignRow struct {
	Date          string  `json:"date"`
	CampaignID    string  `json:"campaign_id"`
	CampaignName  string  `json:"campaign_name"`
	Spend         float64 `json:"spend"`
	PurchaseValue float64 `json:"purchase_value"`
	Purchases     int     `json:"purchases"`
}
