package aggregator

import (
	"context"
	"fmt"
	"sort"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/util"
)

// AggregateSource is the part of the remote service the aggregator queries
type AggregateSource interface {
	GetTransactionAggregate(ctx context.Context, q model.AggregateQuery) (*model.TransactionAggregate, error)
}

// LoadedStats are tallies over the accumulated (unfiltered) item list
type LoadedStats struct {
	Activities   int            `json:"activities"`
	Transactions int            `json:"transactions"`
	Total        int            `json:"total"`
	ByCategory   map[string]int `json:"byCategory"`
	// TransactionAmount sums the amounts of loaded transaction items only
	TransactionAmount float64 `json:"transactionAmount"`
}

// CountOf returns the loaded count for one item type
func (s LoadedStats) CountOf(t model.ItemType) int {
	switch t {
	case model.ItemActivity:
		return s.Activities
	case model.ItemTransaction:
		return s.Transactions
	default:
		return 0
	}
}

// Snapshot combines loaded-set statistics with the server-side aggregate.
//
// Loaded covers only the pages fetched so far while Server covers the whole
// date range and subject filter. The two describe different subsets of data
// and are intentionally not reconciled; Consistent is always false.
type Snapshot struct {
	Loaded LoadedStats                 `json:"loaded"`
	Server *model.TransactionAggregate `json:"server,omitempty"`
	// ServerErr is the last failure of the aggregate query, if any
	ServerErr error `json:"-"`
	// ServerPending is set while an aggregate query is in flight
	ServerPending bool                 `json:"serverPending"`
	Scope         model.AggregateQuery `json:"-"`
	Consistent    bool                 `json:"consistent"`
}

// ComputeLoaded tallies counts per type and category over items
func ComputeLoaded(items []model.TimelineItem) LoadedStats {
	stats := LoadedStats{ByCategory: make(map[string]int)}
	for _, item := range items {
		switch item.Type {
		case model.ItemActivity:
			stats.Activities++
		case model.ItemTransaction:
			stats.Transactions++
			if rec, ok := item.Transaction(); ok {
				stats.TransactionAmount += rec.Amount
			}
		}
		if item.Category != "" {
			stats.ByCategory[item.Category]++
		}
		stats.Total++
	}
	return stats
}

// TopCategories returns the n most frequent loaded categories, ties by name
func (s LoadedStats) TopCategories(n int) []string {
	names := make([]string, 0, len(s.ByCategory))
	for name := range s.ByCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := s.ByCategory[names[i]], s.ByCategory[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	if n >= 0 && len(names) > n {
		names = names[:n]
	}
	return names
}

// ScopeFor derives the aggregate query scope from the active filters
func ScopeFor(filters model.FilterState) model.AggregateQuery {
	q := model.AggregateQuery{SubjectID: filters.SubjectID}
	if filters.DateRange != nil {
		start, end := filters.DateRange.Start, filters.DateRange.End
		q.Start = &start
		q.End = &end
	}
	return q
}

// Aggregator fetches the server-side transaction aggregate
type Aggregator struct {
	source AggregateSource
}

// NewAggregator creates a new Aggregator over source
func NewAggregator(source AggregateSource) *Aggregator {
	return &Aggregator{source: source}
}

// FetchServer runs the aggregate query for scope
func (a *Aggregator) FetchServer(ctx context.Context, scope model.AggregateQuery) (*model.TransactionAggregate, error) {
	if a == nil || a.source == nil {
		return nil, fmt.Errorf("no aggregate source configured")
	}
	agg, err := a.source.GetTransactionAggregate(ctx, scope)
	if err != nil {
		util.LogWarnf("Transaction aggregate failed: %v", err)
		return nil, err
	}
	if agg == nil {
		agg = &model.TransactionAggregate{}
	}
	util.LogDebugf("Transaction aggregate: total=%.2f count=%d", agg.Total, agg.Count)
	return agg, nil
}
