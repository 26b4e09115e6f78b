package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Terminal control sequences
const (
	ColorReset   = "\033[0m"
	ColorBlue    = "\033[34m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorRed     = "\033[31m"
	ColorMagenta = "\033[35m"
	ColorGray    = "\033[90m"
	ColorBold    = "\033[1m"

	ClearScreen         = "\033[2J"
	ClearLine           = "\033[2K"
	ClearLineFromCursor = "\033[0K"
	ClearScrollback     = "\033[3J"
	MoveCursorHome      = "\033[H"
	HideCursor          = "\033[?25l"
	ShowCursor          = "\033[?25h"
	EnterAltScreen      = "\033[?1049h"
	ExitAltScreen       = "\033[?1049l"
)

// GetDisplayWidth calculates the display width of a string, accounting for wide runes
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// Truncate cuts text to width display columns, ending with an ellipsis when cut
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "…")
}

// PadRight truncates or pads text to exactly width display columns
func PadRight(text string, width int) string {
	return runewidth.FillRight(Truncate(text, width), width)
}

// PadLeft right-aligns text in width display columns
func PadLeft(text string, width int) string {
	return runewidth.FillLeft(Truncate(text, width), width)
}

// Colorize wraps text in an ANSI color
func Colorize(color, text string) string {
	return color + text + ColorReset
}

// FormatHeaderTitle formats main header titles (Magenta + Bold)
func FormatHeaderTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorMagenta, title, ColorReset)
}

// FormatDayTitle formats day group headings (Cyan + Bold)
func FormatDayTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorCyan, title, ColorReset)
}

// FormatErrorTitle formats notification banners (Red + Bold)
func FormatErrorTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorRed, title, ColorReset)
}

// FormatSectionSeparator creates a separator line of the given width
func FormatSectionSeparator(width int) string {
	if width <= 0 {
		width = 60
	}
	return ColorGray + strings.Repeat("─", width) + ColorReset
}

// MoveCursor returns the ANSI sequence that moves the cursor to row, col
func MoveCursor(row, col int) string {
	return fmt.Sprintf("\033[%d;%dH", row, col)
}

// CenterText centers text within width display columns
func CenterText(text string, width int) string {
	w := GetDisplayWidth(text)
	if w >= width {
		return Truncate(text, width)
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-padding-w)
}
