package model

import "time"

// ActivityRecord is a journal entry logging a livestock-care action
type ActivityRecord struct {
	ID        string    `json:"id"`
	SubjectID *string   `json:"subjectId,omitempty"`
	Category  string    `json:"category"` // vaccination, feeding, health, breeding...
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Date      time.Time `json:"date"`
}

// TransactionRecord is an expense entry
type TransactionRecord struct {
	ID          string    `json:"id"`
	SubjectID   *string   `json:"subjectId,omitempty"`
	Category    string    `json:"category"` // feed, veterinary, equipment...
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Date        time.Time `json:"date"`
}

// Subject is a livestock individual referenced by records
type Subject struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Species string `json:"species,omitempty"`
	Tag     string `json:"tag,omitempty"` // ear tag / registry number
}

// CategoryAmount is a transaction total for one category
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

// TransactionAggregate is the server-side summary of transactions in a range
type TransactionAggregate struct {
	Total             float64          `json:"total"`
	Count             int              `json:"count"`
	Average           float64          `json:"average"`
	CategoryBreakdown []CategoryAmount `json:"categoryBreakdown"`
}
