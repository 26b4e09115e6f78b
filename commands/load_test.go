package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-herdbook/internal/application/timeline"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestEngine(t *testing.T, svc *fixtures.FakeService, fn func(context.Context, *timeline.Engine) error) error {
	t.Helper()
	engine, err := timeline.NewEngine(timeline.EngineConfig{Timezone: "UTC"}, timeline.Dependencies{Service: svc})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return runEngine(ctx, engine, fn)
}

func newService(activities, transactions int) *fixtures.FakeService {
	return fixtures.NewFakeService(
		fixtures.Activities(activities, fixtures.BaseTime, time.Hour),
		fixtures.Transactions(transactions, fixtures.BaseTime.Add(-30*time.Minute), time.Hour),
	)
}

func TestLoadPages(t *testing.T) {
	tests := []struct {
		name       string
		pages      int
		all        bool
		wantLoaded int
		wantState  timeline.State
	}{
		{name: "first page", pages: 1, wantLoaded: 40, wantState: timeline.StateLoaded},
		{name: "two pages", pages: 2, wantLoaded: 45, wantState: timeline.StateExhausted},
		{name: "all", pages: 1, all: true, wantLoaded: 45, wantState: timeline.StateExhausted},
		{name: "more pages than exist", pages: 10, wantLoaded: 45, wantState: timeline.StateExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(25, 20)
			var view timeline.View
			err := withTestEngine(t, svc, func(ctx context.Context, e *timeline.Engine) error {
				var err error
				view, err = loadPages(ctx, e, model.FilterState{}, tt.pages, tt.all)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantLoaded, view.Loaded)
			assert.Equal(t, tt.wantState, view.State)
		})
	}
}

func TestLoadPages_StopsOnError(t *testing.T) {
	svc := newService(60, 60)
	svc.FailPage(model.ItemActivity, 20, model.NetworkError(errors.New("connection reset")))

	var view timeline.View
	err := withTestEngine(t, svc, func(ctx context.Context, e *timeline.Engine) error {
		var err error
		view, err = loadPages(ctx, e, model.FilterState{}, 1, true)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, view.LastError)
	assert.Len(t, svc.CallsFor(model.ItemActivity), 2)

	report := reportOf(view)
	assert.False(t, report.HasMore)
	assert.Contains(t, report.Notice, "connection reset")
}

func TestLoadPages_Filters(t *testing.T) {
	svc := newService(25, 20)
	var view timeline.View
	err := withTestEngine(t, svc, func(ctx context.Context, e *timeline.Engine) error {
		var err error
		view, err = loadPages(ctx, e, model.FilterState{
			EnabledTypes: []model.ItemType{model.ItemTransaction},
		}, 1, true)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 20, view.Visible)
	for _, item := range view.Items() {
		assert.Equal(t, model.ItemTransaction, item.Type)
	}
}

func TestWriteStats_JSON(t *testing.T) {
	svc := newService(5, 4)
	var view timeline.View
	err := withTestEngine(t, svc, func(ctx context.Context, e *timeline.Engine) error {
		var err error
		view, err = loadPages(ctx, e, model.FilterState{}, 1, false)
		return err
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeStats(&buf, view, "json"))

	var decoded map[string]any
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "exhausted", decoded["state"])
	assert.Equal(t, float64(9), decoded["visible"])
	assert.Equal(t, false, decoded["hasMore"])
	loaded, ok := decoded["loaded"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(5), loaded["activities"])
	assert.Equal(t, float64(4), loaded["transactions"])
	assert.NotNil(t, decoded["server"])
}

func TestWriteStats_Summary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStats(&buf, timeline.View{}, "summary"))
	assert.Contains(t, buf.String(), "Herd Timeline Summary")
	assert.Contains(t, buf.String(), "Loaded Records:")
}
