package fixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
)

// Call records one list request received by FakeService
type Call struct {
	Type  model.ItemType
	Query model.RecordQuery
}

// FakeService is an in-memory remote service with injectable failures.
// Datasets must be sorted newest first.
type FakeService struct {
	mu sync.Mutex

	activities   []model.ActivityRecord
	transactions []model.TransactionRecord
	subjects     []model.Subject

	failures     map[failureKey][]error
	subjectsErr  error
	aggregateErr error
	aggregate    *model.TransactionAggregate

	gate  chan struct{}
	calls []Call
}

type failureKey struct {
	t      model.ItemType
	offset int
}

// NewFakeService creates a fake serving the given datasets
func NewFakeService(activities []model.ActivityRecord, transactions []model.TransactionRecord) *FakeService {
	return &FakeService{
		activities:   activities,
		transactions: transactions,
		subjects:     SampleSubjects(),
		failures:     make(map[failureKey][]error),
	}
}

// FailPage makes the next request of type t at offset fail with err. Calls queue.
func (f *FakeService) FailPage(t model.ItemType, offset int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := failureKey{t: t, offset: offset}
	f.failures[key] = append(f.failures[key], err)
}

// SetSubjects replaces the subject list, and the error ListSubjects returns
func (f *FakeService) SetSubjects(subjects []model.Subject, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = subjects
	f.subjectsErr = err
}

// SetAggregate fixes the aggregate result instead of computing it from the dataset
func (f *FakeService) SetAggregate(agg *model.TransactionAggregate, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aggregate = agg
	f.aggregateErr = err
}

// SetActivities replaces the activity dataset
func (f *FakeService) SetActivities(records []model.ActivityRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = records
}

// Hold blocks list requests until the returned release func is called
func (f *FakeService) Hold() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns every list request received so far
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsFor returns the list requests received for one item type
func (f *FakeService) CallsFor(t model.ItemType) []model.RecordQuery {
	var queries []model.RecordQuery
	for _, c := range f.Calls() {
		if c.Type == t {
			queries = append(queries, c.Query)
		}
	}
	return queries
}

// ListActivityRecords serves one filtered page of activities
func (f *FakeService) ListActivityRecords(ctx context.Context, q model.RecordQuery) ([]model.ActivityRecord, error) {
	if err := f.begin(ctx, model.ItemActivity, q); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []model.ActivityRecord
	for _, rec := range f.activities {
		if matches(q, rec.SubjectID, rec.Category, rec.Date) {
			matched = append(matched, rec)
		}
	}
	return page(matched, q.Offset, q.Limit), nil
}

// ListTransactionRecords serves one filtered page of transactions
func (f *FakeService) ListTransactionRecords(ctx context.Context, q model.RecordQuery) ([]model.TransactionRecord, error) {
	if err := f.begin(ctx, model.ItemTransaction, q); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []model.TransactionRecord
	for _, rec := range f.transactions {
		if matches(q, rec.SubjectID, rec.Category, rec.Date) {
			matched = append(matched, rec)
		}
	}
	return page(matched, q.Offset, q.Limit), nil
}

// GetTransactionAggregate summarizes the whole transaction dataset in scope
func (f *FakeService) GetTransactionAggregate(ctx context.Context, q model.AggregateQuery) (*model.TransactionAggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.aggregateErr != nil {
		return nil, f.aggregateErr
	}
	if f.aggregate != nil {
		agg := *f.aggregate
		return &agg, nil
	}

	rq := model.RecordQuery{SubjectID: q.SubjectID, Start: q.Start, End: q.End}
	agg := &model.TransactionAggregate{CategoryBreakdown: []model.CategoryAmount{}}
	byCategory := make(map[string]*model.CategoryAmount)
	for _, rec := range f.transactions {
		if !matches(rq, rec.SubjectID, rec.Category, rec.Date) {
			continue
		}
		agg.Total += rec.Amount
		agg.Count++
		entry, ok := byCategory[rec.Category]
		if !ok {
			entry = &model.CategoryAmount{Category: rec.Category}
			byCategory[rec.Category] = entry
		}
		entry.Amount += rec.Amount
		entry.Count++
	}
	if agg.Count > 0 {
		agg.Average = agg.Total / float64(agg.Count)
	}
	for _, entry := range byCategory {
		agg.CategoryBreakdown = append(agg.CategoryBreakdown, *entry)
	}
	sort.Slice(agg.CategoryBreakdown, func(i, j int) bool {
		a, b := agg.CategoryBreakdown[i], agg.CategoryBreakdown[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Category < b.Category
	})
	return agg, nil
}

// ListSubjects returns the configured subjects
func (f *FakeService) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subjectsErr != nil {
		return nil, f.subjectsErr
	}
	return append([]model.Subject(nil), f.subjects...), nil
}

// begin records the call, waits on the gate, then pops a scripted failure
func (f *FakeService) begin(ctx context.Context, t model.ItemType, q model.RecordQuery) error {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Type: t, Query: q})
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := failureKey{t: t, offset: q.Offset}
	if queued := f.failures[key]; len(queued) > 0 {
		f.failures[key] = queued[1:]
		return queued[0]
	}
	return nil
}

func matches(q model.RecordQuery, subjectID *string, category string, date time.Time) bool {
	if q.SubjectID != nil && (subjectID == nil || *subjectID != *q.SubjectID) {
		return false
	}
	if q.Category != nil && category != *q.Category {
		return false
	}
	if q.Start != nil && date.Before(*q.Start) {
		return false
	}
	if q.End != nil && date.After(*q.End) {
		return false
	}
	return true
}

func page[T any](records []T, offset, limit int) []T {
	if offset >= len(records) {
		return []T{}
	}
	end := len(records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]T(nil), records[offset:end]...)
}
