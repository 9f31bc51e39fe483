package binance

import (
	"context"
	"sync"
	"time"
)

// requestLimiter는 분당 요청 가중치 예산을 관리합니다.
// 거래소는 1분 단위 창으로 요청 가중치를 제한하므로, 창이 바뀌면 카운터를
// 초기화하고 예산이 소진되면 호출자를 분이 바뀔 때까지 대기시킵니다.
type requestLimiter struct {
	mu      sync.Mutex
	counter int64
	limit   int64
	window  int64 // 분 단위로 정렬된 창 시작 타임스탬프 (unix 초)

	pollInterval time.Duration
	now          func() time.Time // 테스트에서 대체 가능
}

func newRequestLimiter(limit int64) *requestLimiter {
	return &requestLimiter{
		limit:        limit,
		pollInterval: 10 * time.Millisecond,
		now:          time.Now,
	}
}

// minuteStart는 타임스탬프를 분 시작 시점으로 정렬합니다
func minuteStart(t time.Time) int64 {
	return t.Unix() - t.Unix()%60
}

// Wait는 현재 분의 예산에서 weight를 차감하고, 예산이 부족하면 분이 바뀔
// 때까지 짧은 간격으로 대기합니다. 요청을 버리지 않습니다.
func (rl *requestLimiter) Wait(ctx context.Context, weight int64) error {
	for {
		rl.mu.Lock()
		current := minuteStart(rl.now())
		if rl.window != current {
			rl.window = current
			rl.counter = 0
		}
		// 한도보다 무거운 단일 요청도 빈 창에서는 통과시킵니다
		if rl.counter+weight <= rl.limit || rl.counter == 0 {
			rl.counter += weight
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.pollInterval):
		}
	}
}

// SetLimit은 exchangeInfo 응답의 REQUEST_WEIGHT 값으로 예산을 갱신합니다
func (rl *requestLimiter) SetLimit(limit int64) {
	if limit <= 0 {
		return
	}
	rl.mu.Lock()
	rl.limit = limit
	rl.mu.Unlock()
}

// Usage는 현재 창의 사용량과 한도를 반환합니다
func (rl *requestLimiter) Usage() (counter, limit int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.counter, rl.limit
}
