package browse

import (
	"fmt"
	"slices"
	"strings"

	"github.com/penwyp/go-herdbook/internal/core/constants"
	"github.com/penwyp/go-herdbook/internal/core/model"
)

// NextTypeFilter cycles all types -> activity -> transaction -> all types
func NextTypeFilter(current []model.ItemType) []model.ItemType {
	switch {
	case len(current) == 0 || len(current) == len(model.AllItemTypes):
		return []model.ItemType{model.ItemActivity}
	case len(current) == 1 && current[0] == model.ItemActivity:
		return []model.ItemType{model.ItemTransaction}
	default:
		return nil
	}
}

// DescribeFilters renders the filter state as one line. nameOf resolves
// subject ids and may be nil.
func DescribeFilters(f model.FilterState, nameOf func(string) (string, bool)) string {
	var parts []string

	if len(f.EnabledTypes) == 0 {
		parts = append(parts, "all types")
	} else {
		names := make([]string, 0, len(f.EnabledTypes))
		for _, t := range model.AllItemTypes {
			if slices.Contains(f.EnabledTypes, t) {
				names = append(names, t.String())
			}
		}
		parts = append(parts, strings.Join(names, "+"))
	}

	if f.SubjectID != nil {
		subject := *f.SubjectID
		if nameOf != nil {
			if name, ok := nameOf(subject); ok {
				subject = name
			}
		}
		parts = append(parts, "subject="+subject)
	}
	if f.Category != nil {
		parts = append(parts, "category="+*f.Category)
	}
	if f.DateRange != nil {
		parts = append(parts, fmt.Sprintf("%s..%s",
			f.DateRange.Start.Format(constants.DayKeyLayout),
			f.DateRange.End.Format(constants.DayKeyLayout)))
	}
	if f.SearchText != "" {
		parts = append(parts, fmt.Sprintf("search=%q", f.SearchText))
	}
	return strings.Join(parts, "  ")
}
