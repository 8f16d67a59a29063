package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cpdax/pkg/core"
)

func TestApplyOptions_Empty(t *testing.T) {
	o := ApplyOptions()

	assert.Zero(t, o.Limit)
	assert.Zero(t, o.Page)
	assert.Empty(t, o.Side)
	assert.True(t, o.StartTime.IsZero())
	assert.True(t, o.EndTime.IsZero())
}

func TestApplyOptions(t *testing.T) {
	start := time.Unix(1700000000, 0)
	end := time.Unix(1700003600, 0)

	o := ApplyOptions(
		WithLimit(100),
		WithPage(2),
		WithSide(core.SideSell),
		WithTimeRange(start, end),
	)

	assert.Equal(t, 100, o.Limit)
	assert.Equal(t, 2, o.Page)
	assert.Equal(t, core.SideSell, o.Side)
	assert.Equal(t, start, o.StartTime)
	assert.Equal(t, end, o.EndTime)
}

func TestApplyOptions_LastWins(t *testing.T) {
	o := ApplyOptions(WithLimit(10), WithLimit(20))
	assert.Equal(t, 20, o.Limit)
}
