package util

import (
	"fmt"
	"strings"
	"time"
)

// FormatNumber abbreviates large counts (1.5K, 2.0M)
func FormatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	} else {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// FormatCurrency formats a dollar amount with thousands separators
func FormatCurrency(amount float64) string {
	return "$" + groupThousands(amount)
}

// FormatAmount formats an amount in the given ISO currency code.
// Empty and USD fall back to the dollar form.
func FormatAmount(amount float64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || code == "USD" {
		return FormatCurrency(amount)
	}
	return code + " " + groupThousands(amount)
}

// FormatDayHeading renders a day group heading relative to now
func FormatDayHeading(day, now time.Time) string {
	dy, dm, dd := day.Date()
	ny, nm, nd := now.In(day.Location()).Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, day.Location())
	d := time.Date(dy, dm, dd, 0, 0, 0, 0, day.Location())

	switch {
	case d.Equal(today):
		return "Today"
	case d.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case dy == ny:
		return d.Format("Mon, Jan 2")
	default:
		return d.Format("Mon, Jan 2 2006")
	}
}

func groupThousands(amount float64) string {
	str := fmt.Sprintf("%.2f", amount)
	if str == "-0.00" && amount == 0 {
		str = "0.00"
	}

	intPart, decPart, _ := strings.Cut(str, ".")
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "." + decPart
}
