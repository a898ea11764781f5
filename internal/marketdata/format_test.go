package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPriceChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		expected string
	}{
		{in: "2.35", expected: "+2.35%"},
		{in: "-1.2", expected: "-1.20%"},
		{in: "0", expected: "+0.00%"},
		{in: "garbage", expected: "0.00%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatPriceChange(tt.in), "input %q", tt.in)
	}
}

func TestFormatVolume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		expected string
	}{
		{in: "1234567890", expected: "1.23B"},
		{in: "4560000", expected: "4.56M"},
		{in: "7890", expected: "7.89K"},
		{in: "999.5", expected: "999.50"},
		{in: "not-a-number", expected: "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatVolume(tt.in), "input %q", tt.in)
	}
}
