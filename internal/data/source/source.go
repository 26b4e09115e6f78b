package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/util"
)

// RemoteService is the remote data service the timeline reads from
type RemoteService interface {
	// ListActivityRecords returns one page of activity records, newest first
	ListActivityRecords(ctx context.Context, q model.RecordQuery) ([]model.ActivityRecord, error)
	// ListTransactionRecords returns one page of transaction records, newest first
	ListTransactionRecords(ctx context.Context, q model.RecordQuery) ([]model.TransactionRecord, error)
	// GetTransactionAggregate summarizes transactions over a range
	GetTransactionAggregate(ctx context.Context, q model.AggregateQuery) (*model.TransactionAggregate, error)
	// ListSubjects returns every livestock subject
	ListSubjects(ctx context.Context) ([]model.Subject, error)
}

// Adapter fetches one page of one record type
type Adapter interface {
	// Type returns the item type this adapter produces
	Type() model.ItemType
	// FetchPage returns the raw records of one page, in source order
	FetchPage(ctx context.Context, filters model.SourceFilters, pageIndex, pageSize int) ([]any, error)
}

// ActivityAdapter reads the activity (journal) source
type ActivityAdapter struct {
	svc RemoteService
}

// NewActivityAdapter creates a new activity adapter
func NewActivityAdapter(svc RemoteService) *ActivityAdapter {
	return &ActivityAdapter{svc: svc}
}

// Type returns model.ItemActivity
func (a *ActivityAdapter) Type() model.ItemType {
	return model.ItemActivity
}

// FetchPage fetches one page of activity records
func (a *ActivityAdapter) FetchPage(ctx context.Context, filters model.SourceFilters, pageIndex, pageSize int) ([]any, error) {
	q := model.NewRecordQuery(filters, pageIndex, pageSize)
	util.LogDebugf("Fetching activity page %d (offset=%d, limit=%d)", pageIndex, q.Offset, q.Limit)

	records, err := a.svc.ListActivityRecords(ctx, q)
	if err != nil {
		return nil, Classify(err)
	}

	page := make([]any, len(records))
	for i, rec := range records {
		page[i] = rec
	}
	return page, nil
}

// TransactionAdapter reads the transaction (expense) source
type TransactionAdapter struct {
	svc RemoteService
}

// NewTransactionAdapter creates a new transaction adapter
func NewTransactionAdapter(svc RemoteService) *TransactionAdapter {
	return &TransactionAdapter{svc: svc}
}

// Type returns model.ItemTransaction
func (a *TransactionAdapter) Type() model.ItemType {
	return model.ItemTransaction
}

// FetchPage fetches one page of transaction records
func (a *TransactionAdapter) FetchPage(ctx context.Context, filters model.SourceFilters, pageIndex, pageSize int) ([]any, error) {
	q := model.NewRecordQuery(filters, pageIndex, pageSize)
	util.LogDebugf("Fetching transaction page %d (offset=%d, limit=%d)", pageIndex, q.Offset, q.Limit)

	records, err := a.svc.ListTransactionRecords(ctx, q)
	if err != nil {
		return nil, Classify(err)
	}

	page := make([]any, len(records))
	for i, rec := range records {
		page[i] = rec
	}
	return page, nil
}

// DefaultAdapters returns both adapters in source-priority order
func DefaultAdapters(svc RemoteService) []Adapter {
	return []Adapter{
		NewActivityAdapter(svc),
		NewTransactionAdapter(svc),
	}
}

// Classify maps an arbitrary service error onto the error taxonomy.
// Auth failures and context cancellation pass through; everything else is
// treated as a transient network failure.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case model.IsAuth(err), model.IsNetwork(err):
		return err
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return model.NetworkError(fmt.Errorf("request timed out: %w", err))
	default:
		return model.NetworkError(err)
	}
}
