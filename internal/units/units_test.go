package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValid(Meters))
	assert.True(t, IsValid(Feet))
	assert.False(t, IsValid("furlongs"))
	assert.False(t, IsValid(""))
}

func TestConvertDistance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2.5, ConvertDistance(2.5, Meters))
	assert.InDelta(t, 3.28084, ConvertDistance(1.0, Feet), 1e-9)
	// Unknown unit falls back to meters.
	assert.Equal(t, 1.5, ConvertDistance(1.5, "parsec"))
}

func TestFormatDistance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.25m", FormatDistance(1.25, Meters))
	assert.Equal(t, "3.28ft", FormatDistance(1.0, Feet))
	assert.Equal(t, "2.00m", FormatDistance(2.0, "bogus"))
}
