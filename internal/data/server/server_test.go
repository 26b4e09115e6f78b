package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(token string) (*Server, *fixtures.FakeService) {
	svc := fixtures.NewFakeService(
		fixtures.Activities(30, fixtures.BaseTime, time.Hour),
		fixtures.Transactions(12, fixtures.BaseTime, time.Hour))
	return New(svc, token), svc
}

func do(t *testing.T, s *Server, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer("secret")
	rec := do(t, s, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestServer_ListActivities(t *testing.T) {
	s, svc := newTestServer("")
	rec := do(t, s, "/v1/activities?offset=20&limit=20&category=feeding", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var records []model.ActivityRecord
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &records))
	// 6 feeding records in 30; offset 20 leaves none
	assert.Empty(t, records)

	calls := svc.CallsFor(model.ItemActivity)
	require.Len(t, calls, 1)
	assert.Equal(t, 20, calls[0].Offset)
	assert.Equal(t, 20, calls[0].Limit)
	require.NotNil(t, calls[0].Category)
	assert.Equal(t, "feeding", *calls[0].Category)
	assert.Nil(t, calls[0].SubjectID)
}

func TestServer_DefaultLimitAndDates(t *testing.T) {
	s, svc := newTestServer("")
	rec := do(t, s, "/v1/transactions?start=2024-06-30&end=2024-06-30", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var records []model.TransactionRecord
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 12)

	calls := svc.CallsFor(model.ItemTransaction)
	require.Len(t, calls, 1)
	assert.Equal(t, 20, calls[0].Limit)
	require.NotNil(t, calls[0].Start)
	require.NotNil(t, calls[0].End)
	assert.True(t, calls[0].Start.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)))
	assert.True(t, calls[0].End.Equal(time.Date(2024, 6, 30, 23, 59, 59, 999999999, time.UTC)))
}

func TestServer_BadQuery(t *testing.T) {
	s, _ := newTestServer("")
	tests := []string{
		"/v1/activities?offset=-1",
		"/v1/activities?limit=abc",
		"/v1/activities?limit=0",
		"/v1/transactions?limit=-5",
		"/v1/activities?limit=100000",
		"/v1/transactions?start=yesterday",
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			rec := do(t, s, target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestServer_Auth(t *testing.T) {
	s, _ := newTestServer("secret")

	assert.Equal(t, http.StatusUnauthorized, do(t, s, "/v1/subjects", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, s, "/v1/subjects", "wrong").Code)
	assert.Equal(t, http.StatusOK, do(t, s, "/v1/subjects", "secret").Code)
}

func TestServer_Aggregate(t *testing.T) {
	s, _ := newTestServer("")
	rec := do(t, s, "/v1/transactions/aggregate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var agg model.TransactionAggregate
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &agg))
	assert.Equal(t, 12, agg.Count)
}

func TestServer_ServiceFailure(t *testing.T) {
	s, svc := newTestServer("")
	svc.SetSubjects(nil, errors.New("db locked"))

	rec := do(t, s, "/v1/subjects", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db locked")
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer("")
	req := httptest.NewRequest(http.MethodPost, "/v1/activities", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/transactions/aggregate", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
