package timeline

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/penwyp/go-herdbook/internal/core/model"
)

// NormalizeActivity maps an activity record into a TimelineItem
func NormalizeActivity(rec model.ActivityRecord, lookup SubjectNameLookup) model.TimelineItem {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = categoryTitle(rec.Category)
	}

	return model.TimelineItem{
		ID:            rec.ID,
		Type:          model.ItemActivity,
		Date:          rec.Date,
		Title:         title,
		Description:   rec.Notes,
		Category:      rec.Category,
		Tags:          cloneTags(rec.Tags),
		SubjectID:     cloneID(rec.SubjectID),
		SubjectName:   resolveSubject(rec.SubjectID, lookup),
		SourcePayload: rec,
	}
}

// NormalizeTransaction maps a transaction record into a TimelineItem
func NormalizeTransaction(rec model.TransactionRecord, lookup SubjectNameLookup) model.TimelineItem {
	title := strings.TrimSpace(rec.Description)
	if title == "" {
		title = categoryTitle(rec.Category)
	}

	description := fmt.Sprintf("%.2f", rec.Amount)
	if rec.Currency != "" {
		description = rec.Currency + " " + description
	}
	if rec.Category != "" {
		description += " · " + rec.Category
	}

	return model.TimelineItem{
		ID:            rec.ID,
		Type:          model.ItemTransaction,
		Date:          rec.Date,
		Title:         title,
		Description:   description,
		Category:      rec.Category,
		Tags:          cloneTags(rec.Tags),
		SubjectID:     cloneID(rec.SubjectID),
		SubjectName:   resolveSubject(rec.SubjectID, lookup),
		SourcePayload: rec,
	}
}

// Normalize dispatches on the concrete record type.
// Returns false for values that are not a known record type.
func Normalize(record any, lookup SubjectNameLookup) (model.TimelineItem, bool) {
	switch rec := record.(type) {
	case model.ActivityRecord:
		return NormalizeActivity(rec, lookup), true
	case *model.ActivityRecord:
		if rec == nil {
			return model.TimelineItem{}, false
		}
		return NormalizeActivity(*rec, lookup), true
	case model.TransactionRecord:
		return NormalizeTransaction(rec, lookup), true
	case *model.TransactionRecord:
		if rec == nil {
			return model.TimelineItem{}, false
		}
		return NormalizeTransaction(*rec, lookup), true
	default:
		return model.TimelineItem{}, false
	}
}

func resolveSubject(id *string, lookup SubjectNameLookup) *string {
	if id == nil || *id == "" || lookup == nil {
		return nil
	}
	name, ok := lookup(*id)
	if !ok {
		return nil
	}
	return &name
}

func cloneID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}

func cloneTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	return slices.Clone(tags)
}

func categoryTitle(category string) string {
	if category == "" {
		return "Untitled"
	}
	r, size := utf8.DecodeRuneInString(category)
	return string(unicode.ToUpper(r)) + category[size:]
}
