package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateAndPad(t *testing.T) {
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, 6, GetDisplayWidth(Truncate("vaccination booster", 6)))
	assert.True(t, strings.HasSuffix(Truncate("vaccination booster", 6), "…"))

	padded := PadRight("牛舍", 8)
	assert.Equal(t, 8, GetDisplayWidth(padded))
}

func TestPadLeft(t *testing.T) {
	assert.Equal(t, "   $10.00", PadLeft("$10.00", 9))
	assert.Equal(t, 3, GetDisplayWidth(PadLeft("overflow", 3)))
}

func TestCenterText(t *testing.T) {
	assert.Equal(t, "  ab  ", CenterText("ab", 6))
	assert.Equal(t, 4, GetDisplayWidth(CenterText("overflowing", 4)))
}
