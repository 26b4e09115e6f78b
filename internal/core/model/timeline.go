package model

import (
	"fmt"
	"strings"
	"time"
)

// ItemType discriminates the TimelineItem union
type ItemType int

const (
	ItemActivity ItemType = iota
	ItemTransaction
)

// AllItemTypes lists every item type in source-priority order
var AllItemTypes = []ItemType{ItemActivity, ItemTransaction}

// String returns the lowercase name of the item type
func (t ItemType) String() string {
	switch t {
	case ItemActivity:
		return "activity"
	case ItemTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// ParseItemType parses "activity"/"journal" or "transaction"/"expense"
func ParseItemType(s string) (ItemType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "activity", "activities", "journal":
		return ItemActivity, nil
	case "transaction", "transactions", "expense", "expenses":
		return ItemTransaction, nil
	default:
		return 0, fmt.Errorf("unknown item type '%s': must be activity or transaction", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (t ItemType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *ItemType) UnmarshalText(b []byte) error {
	parsed, err := ParseItemType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimelineItem is the common shape every source record is normalized into.
// It is treated as immutable once built: downstream code copies, never edits.
type TimelineItem struct {
	ID          string    `json:"id"`
	Type        ItemType  `json:"type"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags"`
	SubjectID   *string   `json:"subjectId,omitempty"`
	SubjectName *string   `json:"subjectName,omitempty"`

	// SourcePayload is the original record (ActivityRecord or TransactionRecord)
	// kept for detail views.
	SourcePayload any `json:"-"`
}

// Key returns an identifier unique across both sources
func (i TimelineItem) Key() string {
	return i.Type.String() + ":" + i.ID
}

// DisplaySubject returns the resolved subject name or an empty string
func (i TimelineItem) DisplaySubject() string {
	if i.SubjectName != nil {
		return *i.SubjectName
	}
	return ""
}

// Transaction returns the source transaction of a transaction item
func (i TimelineItem) Transaction() (TransactionRecord, bool) {
	switch rec := i.SourcePayload.(type) {
	case TransactionRecord:
		return rec, true
	case *TransactionRecord:
		if rec != nil {
			return *rec, true
		}
	}
	return TransactionRecord{}, false
}
