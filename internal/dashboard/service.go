package dashboard

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mgrendahl/tackle/pkg/cache"
	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/store"
)

// Service builds summaries and applies layout edits.
// Both CLI and API use the same service to keep caching in one place.
//
// The Service is stateless except for the cache and logger - it doesn't
// hold summaries or preferences. Multiple goroutines can safely share
// one Service.
type Service struct {
	Stores *store.Stores
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewService creates a service over the given stores.
// If c is nil, a NullCache is used (caching disabled).
// If keyer is nil, a DefaultKeyer is used.
// If logger is nil, the default logger is used.
func NewService(stores *store.Stores, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Service {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		Stores: stores,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// SummaryWithCacheInfo builds the user's dashboard summary and reports
// whether it came from the cache.
func (s *Service) SummaryWithCacheInfo(ctx context.Context, userID string, opts Options) (Summary, bool, error) {
	opts.SetDefaults()
	key := s.Keyer.SummaryKey(userID, opts.keyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := s.Cache.Get(ctx, key); err == nil && hit {
			var cached Summary
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "summary")
				return cached, true, nil
			}
			// An entry that no longer decodes is rebuilt below.
		}
		observability.Cache().OnCacheMiss(ctx, "summary")
	}

	start := time.Now()
	sum, err := s.buildSummary(ctx, userID, opts)
	if err != nil {
		return Summary{}, false, err
	}

	if data, err := json.Marshal(sum); err == nil {
		_ = s.Cache.Set(ctx, key, data, cache.TTLSummary)
		observability.Cache().OnCacheSet(ctx, "summary", len(data))
	}

	s.Logger.Debug("built dashboard summary",
		"user", userID,
		"leads", sum.Counts.Leads,
		"deals", sum.Counts.Deals,
		"duration", time.Since(start))

	return sum, false, nil
}

// Summary is a convenience wrapper that calls SummaryWithCacheInfo and
// discards the cache info.
func (s *Service) Summary(ctx context.Context, userID string, opts Options) (Summary, error) {
	sum, _, err := s.SummaryWithCacheInfo(ctx, userID, opts)
	return sum, err
}

// Invalidate drops the user's cached summary after a record write. Only
// the default variant is deleted; summaries cached under non-default
// options age out with [cache.TTLSummary].
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	var opts Options
	opts.SetDefaults()
	return s.Cache.Delete(ctx, s.Keyer.SummaryKey(userID, opts.keyOpts()))
}

// Close releases resources held by the service (primarily the cache).
func (s *Service) Close() error {
	if s.Cache != nil {
		return s.Cache.Close()
	}
	return nil
}

// buildSummary rescans the user's records and aggregates them.
func (s *Service) buildSummary(ctx context.Context, userID string, opts Options) (Summary, error) {
	sum := Summary{GeneratedAt: time.Now().UTC()}

	start := time.Now()
	contacts, err := s.Stores.Contacts.List(ctx, userID, store.ContactFilter{})
	observability.Store().OnQuery(ctx, "contacts", "list", time.Since(start), err)
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeStorage, err, "list contacts")
	}

	start = time.Now()
	leads, err := s.Stores.Leads.List(ctx, userID, store.LeadFilter{})
	observability.Store().OnQuery(ctx, "leads", "list", time.Since(start), err)
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeStorage, err, "list leads")
	}

	start = time.Now()
	deals, err := s.Stores.Deals.List(ctx, userID, store.DealFilter{})
	observability.Store().OnQuery(ctx, "deals", "list", time.Since(start), err)
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeStorage, err, "list deals")
	}

	start = time.Now()
	accounts, err := s.Stores.Accounts.List(ctx, userID, store.AccountFilter{})
	observability.Store().OnQuery(ctx, "accounts", "list", time.Since(start), err)
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeStorage, err, "list accounts")
	}

	start = time.Now()
	activity, err := s.Stores.Activities.List(ctx, userID, store.ActivityFilter{Limit: opts.ActivityLimit})
	observability.Store().OnQuery(ctx, "activities", "list", time.Since(start), err)
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeStorage, err, "list activities")
	}

	sum.Counts = RecordCounts{
		Contacts: len(contacts),
		Leads:    len(leads),
		Deals:    len(deals),
		Accounts: len(accounts),
	}
	for _, d := range deals {
		if d.Open() {
			sum.Counts.OpenDeals++
		}
	}

	sum.LeadFunnel = leadFunnel(leads)
	sum.Pipeline, sum.WinRate = pipeline(deals)
	sum.TopAccounts = topAccounts(accounts, deals, opts.TopAccounts)
	sum.Activity = activity

	return sum, nil
}

// =============================================================================
// Aggregations
// =============================================================================

// leadFunnel counts leads per status, in pipeline order.
func leadFunnel(leads []crm.Lead) []StatusCount {
	byStatus := make(map[crm.LeadStatus]int, len(leads))
	for _, l := range leads {
		byStatus[l.Status]++
	}

	statuses := crm.LeadStatuses()
	out := make([]StatusCount, len(statuses))
	for i, st := range statuses {
		out[i] = StatusCount{Status: st, Count: byStatus[st]}
	}
	return out
}

// pipeline aggregates deals per stage and derives the win rate.
func pipeline(deals []crm.Deal) ([]StageValue, WinRate) {
	type agg struct {
		count int
		value int64
	}
	byStage := make(map[crm.DealStage]agg, len(deals))
	for _, d := range deals {
		a := byStage[d.Stage]
		a.count++
		a.value += d.Value
		byStage[d.Stage] = a
	}

	stages := crm.DealStages()
	out := make([]StageValue, len(stages))
	for i, st := range stages {
		out[i] = StageValue{Stage: st, Count: byStage[st].count, Value: byStage[st].value}
	}

	rate := WinRate{
		Won:  byStage[crm.StageClosedWon].count,
		Lost: byStage[crm.StageClosedLost].count,
	}
	if closed := rate.Won + rate.Lost; closed > 0 {
		rate.Rate = float64(rate.Won) / float64(closed)
	}
	return out, rate
}

// topAccounts ranks accounts by the value of their open deals, ties
// broken by name. Deals without an account don't count toward anyone.
func topAccounts(accounts []crm.Account, deals []crm.Deal, limit int) []AccountValue {
	ranked := make([]AccountValue, len(accounts))
	index := make(map[string]int, len(accounts))
	for i, a := range accounts {
		ranked[i] = AccountValue{AccountID: a.ID, Name: a.Name}
		index[a.ID] = i
	}

	for _, d := range deals {
		i, ok := index[d.AccountID]
		if !ok {
			continue
		}
		switch {
		case d.Open():
			ranked[i].OpenDeals++
			ranked[i].OpenValue += d.Value
		case d.Stage.Won():
			ranked[i].WonValue += d.Value
		}
	}

	slices.SortStableFunc(ranked, func(a, b AccountValue) int {
		if a.OpenValue != b.OpenValue {
			if a.OpenValue > b.OpenValue {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
