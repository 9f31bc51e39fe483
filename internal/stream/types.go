// internal/stream/types.go
package stream

import (
	"strings"

	json "github.com/goccy/go-json"

	"github.com/assist-by/falcon/internal/domain"
)

// controlRequest는 구독 변경을 위한 제어 프레임입니다
type controlRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     uint64   `json:"id"`
}

// streamFrame은 복합 스트림 엔드포인트의 수신 프레임입니다.
// 제어 응답에는 stream 필드가 없으므로 구분에 사용합니다.
type streamFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// klineEvent는 캔들 스트림 이벤트입니다
type klineEvent struct {
	Type      string       `json:"e"`
	EventTime int64        `json:"E"` // 밀리초, 거래소 서버 기준
	Symbol    string       `json:"s"`
	Kline     klinePayload `json:"k"`
}

// klinePayload는 캔들 이벤트의 본문입니다
type klinePayload struct {
	StartTime int64  `json:"t"`
	Symbol    string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"` // 이 캔들이 마감되었는지 여부
}

// subscription은 구독 단위를 식별합니다
type subscription struct {
	Symbol   string
	Interval domain.TimeInterval
}

// channelName은 구독 채널 이름을 생성합니다 (예: btcusdt@kline_1m)
func (s subscription) channelName() string {
	return strings.ToLower(s.Symbol) + "@kline_" + string(s.Interval)
}
