package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	units, err := ParseAmount("1.50", 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000), units)

	units, err = ParseAmount("0", 6)
	require.NoError(t, err)
	assert.Equal(t, int64(0), units)

	units, err = ParseAmount("0.000001", 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1), units)
}

func TestParseAmount_Rejects(t *testing.T) {
	_, err := ParseAmount("abc", 6)
	assert.Error(t, err)

	_, err = ParseAmount("-1", 6)
	assert.Error(t, err)

	// More fractional digits than the currency carries.
	_, err = ParseAmount("0.0000001", 6)
	assert.Error(t, err)

	_, err = ParseAmount("99999999999999999999", 6)
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.5", FormatAmount(1_500_000, 6))
	assert.Equal(t, "0", FormatAmount(0, 6))
	assert.Equal(t, "0.000001", FormatAmount(1, 6))
}

func TestAmountRoundTrip(t *testing.T) {
	units, err := ParseAmount(FormatAmount(123_456_789, 6), 6)
	require.NoError(t, err)
	assert.Equal(t, int64(123_456_789), units)
}
