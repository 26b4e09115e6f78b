package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"github.com/penwyp/go-herdbook/internal/core/constants"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/data/source"
	"github.com/penwyp/go-herdbook/internal/util"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server exposes a RemoteService over HTTP
type Server struct {
	svc    source.RemoteService
	token  string
	router *mux.Router
	log    util.LoggerInterface
}

// New builds the router. An empty token disables authentication.
func New(svc source.RemoteService, token string) *Server {
	s := &Server{
		svc:   svc,
		token: token,
		log:   util.Component("server"),
	}

	r := mux.NewRouter()
	r.Use(s.requestLogging)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.Handle("/v1/activities", s.requireToken(http.HandlerFunc(s.handleActivities))).Methods(http.MethodGet)
	r.Handle("/v1/transactions", s.requireToken(http.HandlerFunc(s.handleTransactions))).Methods(http.MethodGet)
	r.Handle("/v1/transactions/aggregate", s.requireToken(http.HandlerFunc(s.handleAggregate))).Methods(http.MethodGet)
	r.Handle("/v1/subjects", s.requireToken(http.HandlerFunc(s.handleSubjects))).Methods(http.MethodGet)

	s.router = r
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP API", util.Field{Key: "addr", Value: addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("Shutting down HTTP API")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			util.Field{Key: "method", Value: r.Method},
			util.Field{Key: "path", Value: r.URL.Path},
			util.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != s.token {
				writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	q, err := parseRecordQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.svc.ListActivityRecords(r.Context(), q)
	if err != nil {
		s.fail(w, "list activities", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := parseRecordQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.svc.ListTransactionRecords(r.Context(), q)
	if err != nil {
		s.fail(w, "list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	q, err := parseRecordQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	agg, err := s.svc.GetTransactionAggregate(r.Context(), model.AggregateQuery{
		Start:     q.Start,
		End:       q.End,
		SubjectID: q.SubjectID,
	})
	if err != nil {
		s.fail(w, "aggregate transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.svc.ListSubjects(r.Context())
	if err != nil {
		s.fail(w, "list subjects", err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.log.Error("Request failed", util.Field{Key: "op", Value: op}, util.Field{Key: "error", Value: err.Error()})
	writeError(w, http.StatusInternalServerError, op+" failed")
}

// parseRecordQuery reads offset, limit, subject_id, category, start and end.
// Dates accept RFC 3339 or YYYY-MM-DD; a bare end date covers the whole day (UTC).
func parseRecordQuery(r *http.Request) (model.RecordQuery, error) {
	values := r.URL.Query()
	q := model.RecordQuery{
		SubjectID: model.StringPtr(values.Get("subject_id")),
		Category:  model.StringPtr(values.Get("category")),
	}

	var err error
	if q.Offset, err = intParam(values.Get("offset"), 0); err != nil || q.Offset < 0 {
		return q, fmt.Errorf("invalid offset %q", values.Get("offset"))
	}
	if q.Limit, err = intParam(values.Get("limit"), constants.DefaultPageSize); err != nil || q.Limit < 1 || q.Limit > constants.MaxPageSize {
		return q, fmt.Errorf("invalid limit %q: must be between 1 and %d", values.Get("limit"), constants.MaxPageSize)
	}
	if q.Start, err = timeParam(values.Get("start"), false); err != nil {
		return q, err
	}
	if q.End, err = timeParam(values.Get("end"), true); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func timeParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(constants.DayKeyLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
