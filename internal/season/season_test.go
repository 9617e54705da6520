package season

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromTime(t *testing.T) {
	tests := []struct {
		month    time.Month
		expected Season
	}{
		{time.January, Winter},
		{time.February, Winter},
		{time.March, Spring},
		{time.April, Spring},
		{time.May, Spring},
		{time.June, Summer},
		{time.July, Summer},
		{time.August, Summer},
		{time.September, Fall},
		{time.October, Fall},
		{time.November, Fall},
		{time.December, Winter},
	}

	for _, tc := range tests {
		date := time.Date(2025, tc.month, 15, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, tc.expected, FromTime(date), "month %s", tc.month)
	}
}

func TestParse(t *testing.T) {
	s, err := Parse("summer")
	assert.NoError(t, err)
	assert.Equal(t, Summer, s)

	s, err = Parse("  FALL ")
	assert.NoError(t, err)
	assert.Equal(t, Fall, s)

	_, err = Parse("monsoon")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestAdjacent(t *testing.T) {
	assert.True(t, Summer.Adjacent(Spring))
	assert.True(t, Summer.Adjacent(Fall))
	assert.False(t, Summer.Adjacent(Winter))
	assert.False(t, Summer.Adjacent(Summer))

	// The cycle wraps: Winter borders Spring and Fall
	assert.True(t, Winter.Adjacent(Spring))
	assert.True(t, Winter.Adjacent(Fall))
	assert.False(t, Winter.Adjacent(Summer))
}

func TestNextPrev(t *testing.T) {
	assert.Equal(t, Summer, Spring.Next())
	assert.Equal(t, Spring, Winter.Next())
	assert.Equal(t, Winter, Spring.Prev())
	assert.Equal(t, Fall, Winter.Prev())
}
