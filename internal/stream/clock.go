// internal/stream/clock.go
package stream

import (
	"sync"
	"time"
)

// offsetSamples는 오프셋 이동 평균에 사용하는 표본 개수입니다
const offsetSamples = 256

// ClockEstimator는 웹소켓 이벤트 타임스탬프로 거래소 서버 시각과
// 로컬 시각의 차이를 추정합니다. 최근 표본들의 이동 평균을 사용하여
// 네트워크 지연에 의한 순간적인 흔들림을 완화합니다.
type ClockEstimator struct {
	mu sync.Mutex

	samples [offsetSamples]time.Duration
	sum     time.Duration // 채워진 표본들의 합 (평균 계산용)
	next    int
	filled  int

	lastEventTime time.Time // 마지막으로 반영한 이벤트 시각
}

// NewClockEstimator는 새로운 시각 오프셋 추정기를 생성합니다
func NewClockEstimator() *ClockEstimator {
	return &ClockEstimator{}
}

// Update는 이벤트 시각을 표본으로 반영합니다.
// 이벤트 시각이 이전에 본 것보다 과거이면 지연 도착한 프레임으로 보고
// 무시합니다. 반영 여부를 반환합니다.
func (ce *ClockEstimator) Update(eventTime, localTime time.Time) bool {
	ce.mu.Lock()
	defer ce.mu.Unlock()

	if !eventTime.After(ce.lastEventTime) {
		return false
	}
	ce.lastEventTime = eventTime

	sample := eventTime.Sub(localTime)
	ce.sum -= ce.samples[ce.next]
	ce.samples[ce.next] = sample
	ce.sum += sample
	ce.next = (ce.next + 1) % offsetSamples
	if ce.filled < offsetSamples {
		ce.filled++
	}
	return true
}

// Offset은 현재 추정된 오프셋(이동 평균)을 반환합니다.
// 표본이 없으면 0을 반환합니다.
func (ce *ClockEstimator) Offset() time.Duration {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	if ce.filled == 0 {
		return 0
	}
	return ce.sum / time.Duration(ce.filled)
}

// ServerTime은 오프셋이 반영된 거래소 기준 현재 시각을 반환합니다
func (ce *ClockEstimator) ServerTime() time.Time {
	return time.Now().Add(ce.Offset())
}

// LastEventTime은 마지막으로 반영된 이벤트 시각을 반환합니다
func (ce *ClockEstimator) LastEventTime() time.Time {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	return ce.lastEventTime
}
