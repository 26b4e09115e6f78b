package formatter

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/data/aggregator"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonReport struct {
	Days        []jsonDay           `json:"days"`
	Stats       aggregator.Snapshot `json:"stats"`
	ServerError string              `json:"serverError,omitempty"`
	HasMore     bool                `json:"hasMore"`
	Stale       bool                `json:"stale,omitempty"`
	Notice      string              `json:"notice,omitempty"`
}

type jsonDay struct {
	Date  string     `json:"date"`
	Items []jsonItem `json:"items"`
}

type jsonItem struct {
	model.TimelineItem
	Amount   *float64 `json:"amount,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

func (f *JSONFormatter) Format(w io.Writer, r Report) error {
	out := jsonReport{
		Days:    make([]jsonDay, 0, len(r.Groups)),
		Stats:   r.Stats,
		HasMore: r.HasMore,
		Stale:   r.Stale,
		Notice:  r.Notice,
	}
	if r.Stats.ServerErr != nil {
		out.ServerError = r.Stats.ServerErr.Error()
	}

	for _, g := range r.Groups {
		day := jsonDay{Date: g.Key, Items: make([]jsonItem, 0, len(g.Items))}
		for _, item := range g.Items {
			ji := jsonItem{TimelineItem: item}
			if rec, ok := item.Transaction(); ok {
				amount := rec.Amount
				ji.Amount = &amount
				ji.Currency = rec.Currency
			}
			day.Items = append(day.Items, ji)
		}
		out.Days = append(out.Days, day)
	}

	data, err := sonic.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
