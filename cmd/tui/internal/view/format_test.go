package view_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/muniledger/cmd/tui/internal/view"
)

func TestFormatAmount(t *testing.T) {
	v := 1234567.891

	assert.Equal(t, "1.234.567,89", view.FormatAmount(&v))
	assert.Equal(t, "-", view.FormatAmount(nil))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "20 MiB", view.FormatSize(20<<20))
	assert.Equal(t, "0 B", view.FormatSize(-1))
}

func TestFormatAge(t *testing.T) {
	assert.Empty(t, view.FormatAge(time.Time{}))
	assert.Contains(t, view.FormatAge(time.Now().Add(-3*time.Hour)), "hours ago")
}
