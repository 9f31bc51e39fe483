// internal/notification/types.go
package notification

import (
	"time"

	"github.com/assist-by/falcon/internal/domain"
	"github.com/assist-by/falcon/internal/order"
)

// Notifier는 주문 수명 주기와 캔들 마감 이벤트를 외부로 내보내는
// 인터페이스입니다. 수신 측에는 데이터만 전달되며 응답을 기대하지 않습니다.
type Notifier interface {
	// NotifyOrderEvent는 브래킷 주문의 상태 변화를 전달합니다
	NotifyOrderEvent(event order.Event)

	// NotifyCandleClose는 마감된 캔들을 전달합니다
	NotifyCandleClose(candle domain.Candle, serverTime time.Time)

	// NotifyError는 운영 에러를 전달합니다
	NotifyError(err error)
}
