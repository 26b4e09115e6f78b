package commands

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/constants"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/spf13/cobra"
)

// filterFlags are the command-line spellings of model.FilterState
type filterFlags struct {
	subject  string
	category string
	from     string
	to       string
	search   string
	types    []string
}

func addFilterFlags(cmd *cobra.Command, f *filterFlags) {
	cmd.Flags().StringVar(&f.subject, "subject", "",
		"Only records for this subject id")
	cmd.Flags().StringVar(&f.category, "category", "",
		"Only records in this category (e.g., feed, vaccination)")
	cmd.Flags().StringVar(&f.from, "from", "",
		"First day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "",
		"Last day to include (YYYY-MM-DD), inclusive")
	cmd.Flags().StringVarP(&f.search, "search", "s", "",
		"Case-insensitive text search over title, description, category, tags and subject")
	cmd.Flags().StringSliceVarP(&f.types, "type", "t", nil,
		"Item types to show (activity, transaction); repeatable")
}

// State converts the flags into a filter state. Days are read in loc, and
// an open-ended --from runs up to the end of today.
func (f filterFlags) State(loc *time.Location, now time.Time) (model.FilterState, error) {
	state := model.FilterState{
		SubjectID:  model.StringPtr(strings.TrimSpace(f.subject)),
		Category:   model.StringPtr(strings.TrimSpace(f.category)),
		SearchText: f.search,
	}

	for _, raw := range f.types {
		t, err := model.ParseItemType(raw)
		if err != nil {
			return model.FilterState{}, err
		}
		if !slices.Contains(state.EnabledTypes, t) {
			state.EnabledTypes = append(state.EnabledTypes, t)
		}
	}

	if f.from == "" && f.to == "" {
		return state, nil
	}

	var r model.DateRange
	if f.from != "" {
		start, err := parseDay(f.from, loc)
		if err != nil {
			return model.FilterState{}, fmt.Errorf("--from: %w", err)
		}
		r.Start = start
	}
	endDay := now.In(loc)
	if f.to != "" {
		day, err := parseDay(f.to, loc)
		if err != nil {
			return model.FilterState{}, fmt.Errorf("--to: %w", err)
		}
		endDay = day
	}
	r.End = model.NewDayRange(endDay, endDay, loc).End

	if r.End.Before(r.Start) {
		return model.FilterState{}, fmt.Errorf("--from %s is after --to %s", f.from, f.to)
	}
	state.DateRange = &r
	return state, nil
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DayKeyLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s': expected YYYY-MM-DD", s)
	}
	return t, nil
}
