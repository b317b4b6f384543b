// Package dashboard assembles the data behind the home dashboard.
//
// The package has two halves. The summary half aggregates CRM records
// into the numbers the widgets display (lead funnel, deal pipeline,
// recent activity, top accounts), cached per user through pkg/cache so
// a dashboard reload does not rescan every collection. The layout half
// owns the widget catalog and applies layout edits — saving, adding and
// removing widgets — delegating the geometry to pkg/grid.
//
// # Usage
//
// Create a Service and fetch a summary:
//
//	svc := dashboard.NewService(stores, fileCache, nil, logger)
//	sum, err := svc.Summary(ctx, userID, dashboard.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(sum.Counts.OpenDeals)
//
// Layout edits go through the same service:
//
//	prefs, err := svc.AddWidget(ctx, userID, dashboard.WidgetWinRate)
package dashboard

import (
	"time"

	"github.com/mgrendahl/tackle/pkg/cache"
	"github.com/mgrendahl/tackle/pkg/crm"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultActivityLimit is the number of feed entries a summary carries.
	DefaultActivityLimit = 10

	// DefaultTopAccounts is the number of ranked accounts a summary carries.
	DefaultTopAccounts = 5
)

// =============================================================================
// Options - Summary Configuration
// =============================================================================

// Options configures a summary build. The zero value is valid;
// SetDefaults fills the blanks. The struct supports JSON serialization
// for API requests.
type Options struct {
	// ActivityLimit caps the recent-activity slice.
	ActivityLimit int `json:"activity_limit,omitempty"`

	// TopAccounts caps the ranked-accounts slice.
	TopAccounts int `json:"top_accounts,omitempty"`

	// Refresh skips the cache read and rebuilds the summary.
	Refresh bool `json:"refresh,omitempty"`
}

// SetDefaults applies defaults for unset fields.
func (o *Options) SetDefaults() {
	if o.ActivityLimit <= 0 {
		o.ActivityLimit = DefaultActivityLimit
	}
	if o.TopAccounts <= 0 {
		o.TopAccounts = DefaultTopAccounts
	}
}

// keyOpts returns the cache key options for this summary variant.
func (o Options) keyOpts() cache.SummaryKeyOpts {
	return cache.SummaryKeyOpts{
		ActivityLimit: o.ActivityLimit,
		TopAccounts:   o.TopAccounts,
	}
}

// =============================================================================
// Summary - Aggregated Dashboard Data
// =============================================================================

// Summary is the aggregated data behind the dashboard widgets. Monetary
// values are in minor currency units and are summed as stored; a
// workspace mixing currencies gets a plain sum, conversion is a display
// concern.
type Summary struct {
	// GeneratedAt is when the summary was built. A cached summary keeps
	// its original stamp, so clients can show staleness.
	GeneratedAt time.Time `json:"generated_at"`

	// Counts are the record totals across the workspace.
	Counts RecordCounts `json:"counts"`

	// LeadFunnel counts leads per status, in pipeline order.
	LeadFunnel []StatusCount `json:"lead_funnel"`

	// Pipeline aggregates deals per stage, in pipeline order.
	Pipeline []StageValue `json:"pipeline"`

	// WinRate summarizes closed deal outcomes.
	WinRate WinRate `json:"win_rate"`

	// TopAccounts ranks accounts by open deal value.
	TopAccounts []AccountValue `json:"top_accounts"`

	// Activity is the newest slice of the change feed.
	Activity []crm.Activity `json:"activity"`
}

// RecordCounts are the record totals across a user's workspace.
type RecordCounts struct {
	Contacts  int `json:"contacts"`
	Leads     int `json:"leads"`
	Deals     int `json:"deals"`
	OpenDeals int `json:"open_deals"`
	Accounts  int `json:"accounts"`
}

// StatusCount is the number of leads in one status.
type StatusCount struct {
	Status crm.LeadStatus `json:"status"`
	Count  int            `json:"count"`
}

// StageValue aggregates the deals in one stage. Value is in minor
// currency units.
type StageValue struct {
	Stage crm.DealStage `json:"stage"`
	Count int           `json:"count"`
	Value int64         `json:"value"`
}

// WinRate summarizes closed deals. Rate is won over closed, 0 while
// nothing has closed yet.
type WinRate struct {
	Won  int     `json:"won"`
	Lost int     `json:"lost"`
	Rate float64 `json:"rate"`
}

// AccountValue is one row of the top-accounts ranking.
type AccountValue struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	OpenDeals int    `json:"open_deals"`
	OpenValue int64  `json:"open_value"`
	WonValue  int64  `json:"won_value"`
}
