// internal/stream/store.go
package stream

import (
	"sync"
	"time"

	"github.com/assist-by/falcon/internal/domain"
)

// seriesKey는 캔들 시리즈를 식별하는 (심볼, 간격) 쌍입니다
type seriesKey struct {
	symbol   string
	interval domain.TimeInterval
}

// Store는 (심볼, 간격)별 캔들 시리즈를 보관합니다.
// 수신 고루틴이 갱신하고 전략 쪽에서 조회하므로 하나의 잠금으로 보호합니다.
type Store struct {
	mu     sync.RWMutex
	series map[seriesKey]domain.CandleList
}

// NewStore는 새로운 캔들 저장소를 생성합니다
func NewStore() *Store {
	return &Store{series: make(map[seriesKey]domain.CandleList)}
}

// Upsert는 캔들을 시리즈에 반영합니다.
// 같은 시작 시각의 캔들이 이미 있으면 덮어쓰고(진행 중 캔들 갱신),
// 없으면 뒤에 추가합니다(새 캔들 시작).
func (s *Store) Upsert(candle domain.Candle) {
	key := seriesKey{symbol: candle.Symbol, interval: candle.Interval}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.series[key]
	if n := len(list); n > 0 && list[n-1].OpenTime.Equal(candle.OpenTime) {
		list[n-1] = candle
		return
	}
	s.series[key] = append(list, candle)
}

// Seed는 REST로 조회한 과거 캔들로 시리즈를 초기화합니다.
// 이미 스트림으로 쌓인 캔들이 있으면 과거 구간만 앞에 붙입니다.
func (s *Store) Seed(symbol string, interval domain.TimeInterval, candles domain.CandleList) {
	key := seriesKey{symbol: symbol, interval: interval}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.series[key]
	if len(existing) == 0 {
		s.series[key] = append(domain.CandleList{}, candles...)
		return
	}

	oldest := existing[0].OpenTime
	merged := make(domain.CandleList, 0, len(candles)+len(existing))
	for _, c := range candles {
		if c.OpenTime.Before(oldest) {
			merged = append(merged, c)
		}
	}
	s.series[key] = append(merged, existing...)
}

// Last는 시리즈의 가장 최근 캔들을 반환합니다
func (s *Store) Last(symbol string, interval domain.TimeInterval) (domain.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.series[seriesKey{symbol: symbol, interval: interval}].GetLastCandle()
}

// Price는 가장 최근 캔들의 종가를 반환합니다
func (s *Store) Price(symbol string, interval domain.TimeInterval) (float64, bool) {
	last, ok := s.Last(symbol, interval)
	if !ok {
		return 0, false
	}
	return last.Close, true
}

// Candles는 시리즈의 복사본을 반환합니다.
// 호출자가 잠금 없이 순회할 수 있도록 내부 슬라이스를 공유하지 않습니다.
func (s *Store) Candles(symbol string, interval domain.TimeInterval) domain.CandleList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.series[seriesKey{symbol: symbol, interval: interval}]
	if len(list) == 0 {
		return nil
	}
	return append(domain.CandleList{}, list...)
}

// At은 특정 시작 시각의 캔들을 반환합니다
func (s *Store) At(symbol string, interval domain.TimeInterval, openTime time.Time) (domain.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.series[seriesKey{symbol: symbol, interval: interval}] {
		if c.OpenTime.Equal(openTime) {
			return c, true
		}
	}
	return domain.Candle{}, false
}

// Count는 시리즈에 쌓인 캔들 개수를 반환합니다
func (s *Store) Count(symbol string, interval domain.TimeInterval) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[seriesKey{symbol: symbol, interval: interval}])
}
