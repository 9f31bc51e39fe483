// internal/notification/log.go
package notification

import (
	"time"

	"go.uber.org/zap"

	"github.com/assist-by/falcon/internal/domain"
	"github.com/assist-by/falcon/internal/order"
)

// LogNotifier는 이벤트를 구조화 로그로 내보내는 기본 구현입니다
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier는 새로운 로그 알림기를 생성합니다
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log.Named("notify")}
}

// NotifyOrderEvent는 Notifier 인터페이스를 구현합니다
func (n *LogNotifier) NotifyOrderEvent(event order.Event) {
	fields := []zap.Field{
		zap.String("symbol", event.Symbol),
		zap.String("status", event.Status.String()),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.Diagnostic != nil {
		fields = append(fields,
			zap.String("step", event.Diagnostic.Step),
			zap.Error(event.Diagnostic.Err),
		)
		n.log.Warn("브래킷 주문 상태 변화", fields...)
		return
	}
	n.log.Info("브래킷 주문 상태 변화", fields...)
}

// NotifyCandleClose는 Notifier 인터페이스를 구현합니다
func (n *LogNotifier) NotifyCandleClose(candle domain.Candle, serverTime time.Time) {
	n.log.Debug("캔들 마감",
		zap.String("symbol", candle.Symbol),
		zap.String("interval", string(candle.Interval)),
		zap.Time("openTime", candle.OpenTime),
		zap.Float64("close", candle.Close),
		zap.Float64("volume", candle.Volume),
		zap.Time("serverTime", serverTime),
	)
}

// NotifyError는 Notifier 인터페이스를 구현합니다
func (n *LogNotifier) NotifyError(err error) {
	n.log.Error("운영 에러", zap.Error(err))
}
