package view

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatAmount renders an amount the way the reports print it.
func FormatAmount(v *float64) string {
	if v == nil {
		return "-"
	}

	return humanize.FormatFloat("#.###,##", *v)
}

// FormatSize formats a byte count, e.g. "1.2 MiB".
func FormatSize(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}

// FormatAge formats a timestamp relative to now, e.g. "3 hours ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return humanize.Time(t)
}
