package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustQuantity(t *testing.T) {
	tests := []struct {
		name      string
		quantity  float64
		stepSize  float64
		precision int
		want      float64
	}{
		{"스텝 배수로 내림", 0.12345, 0.001, 3, 0.123},
		{"이미 정렬된 수량", 0.5, 0.001, 3, 0.5},
		{"부동소수점 오차 보정", 0.1 + 0.2, 0.001, 3, 0.3},
		{"스텝보다 작은 수량", 0.0004, 0.001, 3, 0},
		{"음수 수량은 0", -1, 0.001, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustQuantity(tt.quantity, tt.stepSize, tt.precision))
		})
	}
}

func TestAdjustPrice(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		tickSize  float64
		precision int
		want      float64
	}{
		{"틱 배수로 반올림", 68000.123, 0.1, 1, 68000.1},
		{"틱 경계값", 68000.15, 0.1, 1, 68000.2},
		{"이미 정렬된 가격", 68000.1, 0.1, 1, 68000.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustPrice(tt.price, tt.tickSize, tt.precision))
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "0.123", FormatQuantity(0.1234, 3))
	assert.Equal(t, "1", FormatQuantity(1.0, 3))
}
