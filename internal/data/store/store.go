package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/data/source"
)

// Store is the SQLite-backed record service
type Store struct {
	conn *sql.DB
	path string
}

var _ source.RemoteService = (*Store)(nil)

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// WithTx runs fn inside a transaction, rolling back when it returns an error
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) exec(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return s.conn
}

// InsertSubject stores a subject, assigning an ID when empty
func (s *Store) InsertSubject(ctx context.Context, tx *sql.Tx, subj *model.Subject) error {
	if subj.ID == "" {
		subj.ID = uuid.NewString()
	}
	_, err := s.exec(tx).ExecContext(ctx,
		`INSERT INTO subjects (id, name, species, tag) VALUES (?, ?, ?, ?)`,
		subj.ID, subj.Name, subj.Species, subj.Tag)
	if err != nil {
		return fmt.Errorf("failed to insert subject %s: %w", subj.ID, err)
	}
	return nil
}

// InsertActivity stores an activity record, assigning an ID when empty
func (s *Store) InsertActivity(ctx context.Context, tx *sql.Tx, rec *model.ActivityRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	tags, err := encodeTags(rec.Tags)
	if err != nil {
		return err
	}
	_, err = s.exec(tx).ExecContext(ctx,
		`INSERT INTO activities (id, subject_id, category, title, notes, tags, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, nullString(rec.SubjectID), rec.Category, rec.Title, rec.Notes, tags, rec.Date.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert activity %s: %w", rec.ID, err)
	}
	return nil
}

// InsertTransaction stores a transaction record, assigning an ID when empty
func (s *Store) InsertTransaction(ctx context.Context, tx *sql.Tx, rec *model.TransactionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	tags, err := encodeTags(rec.Tags)
	if err != nil {
		return err
	}
	_, err = s.exec(tx).ExecContext(ctx,
		`INSERT INTO transactions (id, subject_id, category, description, amount, currency, tags, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, nullString(rec.SubjectID), rec.Category, rec.Description, rec.Amount, rec.Currency, tags, rec.Date.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", rec.ID, err)
	}
	return nil
}

// ListActivityRecords returns one page of activities, newest first
func (s *Store) ListActivityRecords(ctx context.Context, q model.RecordQuery) ([]model.ActivityRecord, error) {
	where, args := recordFilter(q, true)
	query := `SELECT id, subject_id, category, title, notes, tags, occurred_at FROM activities` +
		where + ` ORDER BY occurred_at DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limitArg(q.Limit), q.Offset)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	records := make([]model.ActivityRecord, 0)
	for rows.Next() {
		var (
			rec       model.ActivityRecord
			subjectID sql.NullString
			tags      string
			at        int64
		)
		if err := rows.Scan(&rec.ID, &subjectID, &rec.Category, &rec.Title, &rec.Notes, &tags, &at); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		rec.SubjectID = stringPtr(subjectID)
		rec.Date = time.UnixMilli(at).UTC()
		if rec.Tags, err = decodeTags(tags); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListTransactionRecords returns one page of transactions, newest first
func (s *Store) ListTransactionRecords(ctx context.Context, q model.RecordQuery) ([]model.TransactionRecord, error) {
	where, args := recordFilter(q, true)
	query := `SELECT id, subject_id, category, description, amount, currency, tags, occurred_at FROM transactions` +
		where + ` ORDER BY occurred_at DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limitArg(q.Limit), q.Offset)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	records := make([]model.TransactionRecord, 0)
	for rows.Next() {
		var (
			rec       model.TransactionRecord
			subjectID sql.NullString
			tags      string
			at        int64
		)
		if err := rows.Scan(&rec.ID, &subjectID, &rec.Category, &rec.Description, &rec.Amount, &rec.Currency, &tags, &at); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		rec.SubjectID = stringPtr(subjectID)
		rec.Date = time.UnixMilli(at).UTC()
		if rec.Tags, err = decodeTags(tags); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetTransactionAggregate sums every transaction in scope, ignoring paging
func (s *Store) GetTransactionAggregate(ctx context.Context, q model.AggregateQuery) (*model.TransactionAggregate, error) {
	where, args := recordFilter(model.RecordQuery{SubjectID: q.SubjectID, Start: q.Start, End: q.End}, false)

	agg := &model.TransactionAggregate{CategoryBreakdown: []model.CategoryAmount{}}
	err := s.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0), COUNT(*), COALESCE(AVG(amount), 0) FROM transactions`+where, args...).
		Scan(&agg.Total, &agg.Count, &agg.Average)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate transactions: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT category, SUM(amount), COUNT(*) FROM transactions`+where+
			` GROUP BY category ORDER BY SUM(amount) DESC, category ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.CategoryAmount
		if err := rows.Scan(&c.Category, &c.Amount, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		agg.CategoryBreakdown = append(agg.CategoryBreakdown, c)
	}
	return agg, rows.Err()
}

// ListSubjects returns every subject ordered by name
func (s *Store) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, name, species, tag FROM subjects ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	subjects := make([]model.Subject, 0)
	for rows.Next() {
		var subj model.Subject
		if err := rows.Scan(&subj.ID, &subj.Name, &subj.Species, &subj.Tag); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, subj)
	}
	return subjects, rows.Err()
}

// Counts returns the number of subjects, activities and transactions
func (s *Store) Counts(ctx context.Context) (subjects, activities, transactions int, err error) {
	err = s.conn.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM subjects), (SELECT COUNT(*) FROM activities), (SELECT COUNT(*) FROM transactions)`).
		Scan(&subjects, &activities, &transactions)
	if err != nil {
		err = fmt.Errorf("failed to count records: %w", err)
	}
	return
}

// recordFilter builds the WHERE clause for the push-down filters
func recordFilter(q model.RecordQuery, withCategory bool) (string, []any) {
	var clauses []string
	var args []any

	if q.SubjectID != nil {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, *q.SubjectID)
	}
	if withCategory && q.Category != nil {
		clauses = append(clauses, "category = ?")
		args = append(args, *q.Category)
	}
	if q.Start != nil {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, q.Start.UnixMilli())
	}
	if q.End != nil {
		clauses = append(clauses, "occurred_at <= ?")
		args = append(args, q.End.UnixMilli())
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// limitArg maps a non-positive limit to SQLite's "no limit"
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	raw, err := sonic.MarshalString(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return raw, nil
}

func decodeTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := sonic.UnmarshalString(raw, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// Import inserts subjects, activities and transactions in one transaction
func (s *Store) Import(ctx context.Context, subjects []model.Subject, activities []model.ActivityRecord, transactions []model.TransactionRecord) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range subjects {
			if err := s.InsertSubject(ctx, tx, &subjects[i]); err != nil {
				return err
			}
		}
		for i := range activities {
			if err := s.InsertActivity(ctx, tx, &activities[i]); err != nil {
				return err
			}
		}
		for i := range transactions {
			if err := s.InsertTransaction(ctx, tx, &transactions[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
