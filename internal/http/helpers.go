package http

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"regdash/internal/core"
)

// formatThousands renders n with comma thousands separators ("1,234,567").
func formatThousands(n int64) string {
	return humanize.Comma(n)
}

// formatGrowth renders a growth percentage with two decimals ("12.34%").
func formatGrowth(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// formatDelta renders the prior-window caption of a metric card,
// e.g. "vs. 1,234 (Prev. Year)".
func formatDelta(prior int64, kind core.OffsetKind) string {
	return "vs. " + formatThousands(prior) + " (" + kind.Label() + ")"
}

// formatDate renders d as YYYY-MM-DD, or "" for the zero date.
func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// formatMonth renders the month of d as YYYY-MM.
func formatMonth(d core.Date) string {
	return d.Format("2006-01")
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
