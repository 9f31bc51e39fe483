package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockEstimator(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("표본이 없으면 오프셋 0", func(t *testing.T) {
		ce := NewClockEstimator()
		assert.Equal(t, time.Duration(0), ce.Offset())
	})

	t.Run("단일 표본", func(t *testing.T) {
		ce := NewClockEstimator()
		require.True(t, ce.Update(base.Add(2*time.Second), base))
		assert.Equal(t, 2*time.Second, ce.Offset())
		assert.Equal(t, base.Add(2*time.Second), ce.LastEventTime())
	})

	t.Run("여러 표본의 이동 평균", func(t *testing.T) {
		ce := NewClockEstimator()
		// 오프셋 1초, 2초, 3초 표본 → 평균 2초
		for i, offset := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second} {
			local := base.Add(time.Duration(i) * time.Minute)
			require.True(t, ce.Update(local.Add(offset), local))
		}
		assert.Equal(t, 2*time.Second, ce.Offset())
	})

	t.Run("과거 이벤트 시각은 무시", func(t *testing.T) {
		ce := NewClockEstimator()
		require.True(t, ce.Update(base.Add(time.Second), base))

		// 이전 이벤트보다 과거이거나 같은 시각은 반영되지 않아야 합니다
		assert.False(t, ce.Update(base.Add(time.Second), base))
		assert.False(t, ce.Update(base, base))
		assert.Equal(t, time.Second, ce.Offset())
		assert.Equal(t, base.Add(time.Second), ce.LastEventTime())
	})

	t.Run("링 버퍼가 가득 차면 오래된 표본 교체", func(t *testing.T) {
		ce := NewClockEstimator()
		// 처음 256개는 오프셋 1초
		for i := 0; i < offsetSamples; i++ {
			local := base.Add(time.Duration(i) * time.Second)
			require.True(t, ce.Update(local.Add(time.Second), local))
		}
		assert.Equal(t, time.Second, ce.Offset())

		// 이후 256개는 오프셋 3초 → 평균이 완전히 대체되어야 합니다
		for i := offsetSamples; i < 2*offsetSamples; i++ {
			local := base.Add(time.Duration(i) * time.Second)
			require.True(t, ce.Update(local.Add(3*time.Second), local))
		}
		assert.Equal(t, 3*time.Second, ce.Offset())
	})
}
