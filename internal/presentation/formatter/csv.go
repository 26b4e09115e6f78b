package formatter

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)

	headers := []string{
		"Date", "Type", "ID", "Subject", "Category", "Title", "Description", "Tags", "Amount", "Currency",
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, g := range r.Groups {
		for _, item := range g.Items {
			var amount, currency string
			if rec, ok := item.Transaction(); ok {
				amount = strconv.FormatFloat(rec.Amount, 'f', 2, 64)
				currency = rec.Currency
			}
			record := []string{
				item.Date.In(g.Day.Location()).Format(time.RFC3339),
				item.Type.String(),
				item.ID,
				item.DisplaySubject(),
				item.Category,
				item.Title,
				item.Description,
				strings.Join(item.Tags, ";"),
				amount,
				currency,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
