package domain

import "time"

// Candle은 캔들 데이터를 표현합니다
type Candle struct {
	OpenTime time.Time    // 캔들 시작 시간
	Open     float64      // 시가
	High     float64      // 고가
	Low      float64      // 저가
	Close    float64      // 종가
	Volume   float64      // 거래량
	Symbol   string       // 심볼 (예: BTCUSDT)
	Interval TimeInterval // 시간 간격 (예: 1m, 1h)
}

// IsZero는 빈 캔들인지 확인합니다
func (c Candle) IsZero() bool {
	return c.OpenTime.IsZero()
}

// CandleList는 캔들 데이터 목록입니다
type CandleList []Candle

// GetLastCandle은 가장 최근 캔들을 반환합니다
func (cl CandleList) GetLastCandle() (Candle, bool) {
	if len(cl) == 0 {
		return Candle{}, false
	}
	return cl[len(cl)-1], true
}

// GetPriceAtIndex는 특정 인덱스의 종가를 반환합니다
func (cl CandleList) GetPriceAtIndex(index int) (float64, bool) {
	if index < 0 || index >= len(cl) {
		return 0, false
	}
	return cl[index].Close, true
}
