package timeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/data/source"
)

// Fetcher fans a batch out to the source adapters in parallel and joins the results
type Fetcher struct {
	adapters map[model.ItemType]source.Adapter
	timeout  time.Duration
}

// NewFetcher creates a fetcher over adapters. timeout <= 0 disables the per-request deadline.
func NewFetcher(adapters []source.Adapter, timeout time.Duration) *Fetcher {
	byType := make(map[model.ItemType]source.Adapter, len(adapters))
	for _, a := range adapters {
		byType[a.Type()] = a
	}
	return &Fetcher{adapters: byType, timeout: timeout}
}

// Fetch issues every request of batch concurrently and waits for all of them.
// Results are returned in request order.
func (f *Fetcher) Fetch(ctx context.Context, batch Batch) BatchResult {
	res := BatchResult{
		Epoch:   batch.Epoch,
		Results: make([]PageResult, len(batch.Requests)),
	}

	var wg sync.WaitGroup
	for i, req := range batch.Requests {
		wg.Add(1)
		go func(i int, req PageRequest) {
			defer wg.Done()
			res.Results[i] = f.fetchOne(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return res
}

func (f *Fetcher) fetchOne(ctx context.Context, req PageRequest) PageResult {
	adapter, ok := f.adapters[req.Source]
	if !ok {
		return PageResult{Request: req, Err: fmt.Errorf("no adapter registered for %s", req.Source)}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	records, err := adapter.FetchPage(ctx, req.Filters, req.PageIndex, req.PageSize)
	return PageResult{Request: req, Records: records, Err: err}
}
