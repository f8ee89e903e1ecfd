package deduction

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{0, "0"},
		{1, "0.002"},
		{5, "0.01"},
		{19, "0.04"},
		{30, "0.062"},
		{59, "0.123"},
		{60, "0.125"},
		{61, "0.127"},
		{90, "0.187"},
		{120, "0.25"},
		{125, "0.26"},
		{180, "0.375"},
		{243, "0.458"},
	}

	for _, tc := range cases {
		got := Compute(tc.minutes)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
			"Compute(%d) = %s, want %s", tc.minutes, got, tc.want)
	}
}

func TestComputeNegativeMinutes(t *testing.T) {
	require.True(t, Compute(-15).IsZero())
}

func TestMinuteTableStrictlyIncreasing(t *testing.T) {
	for i := 1; i <= 60; i++ {
		require.True(t, minuteValue[i].GreaterThan(minuteValue[i-1]),
			"table value for minute %d must exceed minute %d", i, i-1)
	}
}

func TestMinuteTableBounds(t *testing.T) {
	require.True(t, minuteValue[0].IsZero())
	require.True(t, minuteValue[60].Equal(hourValue), "a full hour of minutes equals the hourly penalty")
}
