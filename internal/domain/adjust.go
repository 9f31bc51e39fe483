package domain

import "github.com/shopspring/decimal"

// AdjustQuantity는 주문 수량을 심볼의 stepSize 배수로 내림 조정합니다.
// float64 연산의 오차로 주문이 거부되지 않도록 10진수 연산을 사용합니다.
func AdjustQuantity(quantity, stepSize float64, precision int) float64 {
	if quantity <= 0 {
		return 0
	}
	q := decimal.NewFromFloat(quantity)
	if stepSize > 0 {
		step := decimal.NewFromFloat(stepSize)
		q = q.Div(step).Floor().Mul(step)
	}
	adjusted, _ := q.Round(int32(precision)).Float64()
	return adjusted
}

// AdjustPrice는 가격을 심볼의 tickSize 배수로 조정합니다
func AdjustPrice(price, tickSize float64, precision int) float64 {
	if price <= 0 {
		return 0
	}
	p := decimal.NewFromFloat(price)
	if tickSize > 0 {
		tick := decimal.NewFromFloat(tickSize)
		p = p.Div(tick).Round(0).Mul(tick)
	}
	adjusted, _ := p.Round(int32(precision)).Float64()
	return adjusted
}

// FormatQuantity는 수량을 거래소 파라미터 형식의 문자열로 변환합니다
func FormatQuantity(quantity float64, precision int) string {
	return decimal.NewFromFloat(quantity).Round(int32(precision)).String()
}
