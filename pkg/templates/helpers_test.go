package templates

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRupees(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   string
	}{
		{"zero", 0, "₹0"},
		{"small", 999, "₹999"},
		{"thousands", 35000, "₹35,000"},
		{"rounds half up", 7295.5, "₹7,296"},
		{"lakhs", 1250000, "₹1,250,000"},
		{"nan", math.NaN(), "₹0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rupees(tt.amount))
		})
	}
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "24", Number(24))
	assert.Equal(t, "2.5", Number(2.5))
	assert.Equal(t, "0", Number(0))
}
