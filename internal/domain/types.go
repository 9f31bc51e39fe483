package domain

import "time"

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Opposite는 반대 방향의 주문 사이드를 반환합니다
func (s OrderSide) Opposite() OrderSide {
	if s == Buy {
		return Sell
	}
	return Buy
}

// PositionSide는 포지션 방향을 정의합니다
type PositionSide string

const (
	LongPosition  PositionSide = "LONG"
	ShortPosition PositionSide = "SHORT"
	BothPosition  PositionSide = "BOTH" // 헤지 모드가 아닌 경우
	NonePosition  PositionSide = ""
)

// EntrySide는 포지션 진입을 위한 주문 사이드를 반환합니다
func (p PositionSide) EntrySide() OrderSide {
	if p == ShortPosition {
		return Sell
	}
	return Buy
}

// ExitSide는 포지션 청산을 위한 주문 사이드를 반환합니다
func (p PositionSide) ExitSide() OrderSide {
	return p.EntrySide().Opposite()
}

// PositionMode는 계정의 포지션 모드를 정의합니다
type PositionMode string

const (
	HedgeMode  PositionMode = "HEDGE"
	OneWayMode PositionMode = "ONEWAY"
)

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market           OrderType = "MARKET"
	Limit            OrderType = "LIMIT"
	StopMarket       OrderType = "STOP_MARKET"
	TakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
)

// TimeInterval은 캔들 차트의 시간 간격을 정의합니다
type TimeInterval string

const (
	Interval1m  TimeInterval = "1m"
	Interval3m  TimeInterval = "3m"
	Interval5m  TimeInterval = "5m"
	Interval15m TimeInterval = "15m"
	Interval30m TimeInterval = "30m"
	Interval1h  TimeInterval = "1h"
	Interval2h  TimeInterval = "2h"
	Interval4h  TimeInterval = "4h"
	Interval6h  TimeInterval = "6h"
	Interval8h  TimeInterval = "8h"
	Interval12h TimeInterval = "12h"
	Interval1d  TimeInterval = "1d"
	Interval3d  TimeInterval = "3d"
	Interval1w  TimeInterval = "1w"
	Interval1M  TimeInterval = "1M"
)

// intervalDurations는 간격 코드를 시간 길이로 변환하는 테이블입니다
var intervalDurations = map[TimeInterval]time.Duration{
	Interval1m:  time.Minute,
	Interval3m:  3 * time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval2h:  2 * time.Hour,
	Interval4h:  4 * time.Hour,
	Interval6h:  6 * time.Hour,
	Interval8h:  8 * time.Hour,
	Interval12h: 12 * time.Hour,
	Interval1d:  24 * time.Hour,
	Interval3d:  3 * 24 * time.Hour,
	Interval1w:  7 * 24 * time.Hour,
	Interval1M:  30 * 24 * time.Hour,
}

// Valid는 거래소가 지원하는 간격 코드인지 확인합니다
func (i TimeInterval) Valid() bool {
	_, ok := intervalDurations[i]
	return ok
}

// Duration은 간격 코드에 해당하는 시간 길이를 반환합니다
func (i TimeInterval) Duration() time.Duration {
	return intervalDurations[i]
}
