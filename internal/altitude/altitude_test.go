package altitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"GND", 0},
		{"UNL", 60000},
		{"FL180", 18000},
		{"FL600", 60000},
		{"3500", 3500},
		{" 2500 ", 2500},
		{"12.5", 12.5},
		{"garbage", 0},
		{"FL", 0},
		{"FLXYZ", 0},
		{"SFC", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestParseMEA(t *testing.T) {
	assert.Equal(t, 5000, ParseMEA("5000"))
	assert.Equal(t, 5000, ParseMEA(" 05000"))
	assert.Equal(t, 18000, ParseMEA("FL180"))
	assert.Equal(t, 0, ParseMEA(""))
	assert.Equal(t, 0, ParseMEA("NESTB"))
	assert.Equal(t, 60000, ParseMEA("UNL"))
}
