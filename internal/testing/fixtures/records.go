package fixtures

import (
	"fmt"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
)

var (
	activityCategories    = []string{"vaccination", "feeding", "health", "breeding", "weighing"}
	transactionCategories = []string{"feed", "veterinary", "equipment", "bedding"}
)

// BaseTime is the newest timestamp generated records start from
var BaseTime = time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC)

// SampleSubjects returns a small herd
func SampleSubjects() []model.Subject {
	return []model.Subject{
		{ID: "subj-bella", Name: "Bella", Species: "cattle", Tag: "IE-1001"},
		{ID: "subj-clover", Name: "Clover", Species: "cattle", Tag: "IE-1002"},
		{ID: "subj-dolly", Name: "Dolly", Species: "sheep", Tag: "IE-2001"},
		{ID: "subj-unnamed", Name: "", Species: "goat", Tag: "IE-3001"},
	}
}

// Activities generates n activity records, newest first, spaced by step starting at newest
func Activities(n int, newest time.Time, step time.Duration) []model.ActivityRecord {
	subjects := SampleSubjects()
	records := make([]model.ActivityRecord, n)
	for i := range records {
		category := activityCategories[i%len(activityCategories)]
		subjectID := subjects[i%len(subjects)].ID
		records[i] = model.ActivityRecord{
			ID:        fmt.Sprintf("act-%03d", i),
			SubjectID: &subjectID,
			Category:  category,
			Title:     fmt.Sprintf("%s check %d", category, i),
			Notes:     fmt.Sprintf("routine %s", category),
			Tags:      []string{category},
			Date:      newest.Add(-time.Duration(i) * step),
		}
	}
	return records
}

// Transactions generates n transaction records, newest first, spaced by step starting at newest
func Transactions(n int, newest time.Time, step time.Duration) []model.TransactionRecord {
	subjects := SampleSubjects()
	records := make([]model.TransactionRecord, n)
	for i := range records {
		category := transactionCategories[i%len(transactionCategories)]
		rec := model.TransactionRecord{
			ID:          fmt.Sprintf("txn-%03d", i),
			Category:    category,
			Description: fmt.Sprintf("%s purchase %d", category, i),
			Amount:      float64(10 * (i%5 + 1)),
			Currency:    "USD",
			Tags:        []string{category},
			Date:        newest.Add(-time.Duration(i) * step),
		}
		if i%2 == 0 {
			subjectID := subjects[i%len(subjects)].ID
			rec.SubjectID = &subjectID
		}
		records[i] = rec
	}
	return records
}
