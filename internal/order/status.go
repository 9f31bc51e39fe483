// internal/order/status.go
package order

import (
	"fmt"
	"time"
)

// Status는 브래킷 주문 작업의 수명 주기 상태를 정의합니다
type Status int

const (
	// StatusFailedBeforeOpen은 진입 주문 전에 실패하여 아무 포지션도 열리지 않은 상태입니다
	StatusFailedBeforeOpen Status = iota
	// StatusOpened는 진입 주문이 접수되어 포지션이 열린 상태입니다
	StatusOpened
	// StatusClosedByTrigger는 보호 주문 중 하나가 체결되어 포지션이 닫힌 상태입니다
	StatusClosedByTrigger
	// StatusClosedByExpiration은 만료 시각에 도달하여 강제 청산된 상태입니다
	StatusClosedByExpiration
	// StatusClosedPrematurely는 보호 주문 실패로 진입 직후 되돌린 상태입니다
	StatusClosedPrematurely
)

// String은 Status의 문자열 표현을 반환합니다
func (s Status) String() string {
	switch s {
	case StatusFailedBeforeOpen:
		return "FAILED_BEFORE_OPEN"
	case StatusOpened:
		return "OPENED"
	case StatusClosedByTrigger:
		return "CLOSED_BY_TRIGGER"
	case StatusClosedByExpiration:
		return "CLOSED_BY_EXPIRATION"
	case StatusClosedPrematurely:
		return "CLOSED_PREMATURELY"
	default:
		return "UNKNOWN"
	}
}

// Terminal은 작업이 이 상태에서 끝나는지 여부를 반환합니다
func (s Status) Terminal() bool {
	return s != StatusOpened
}

// Diagnostic은 실패한 단계와 원인을 담는 운영 로그용 진단 정보입니다
type Diagnostic struct {
	Step string // 실패한 단계 이름 (flatten, entry, take_profit, stop_loss, ...)
	Err  error
}

// Error는 error 인터페이스를 구현합니다
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s 단계 실패: %v", d.Step, d.Err)
}

// Unwrap은 원인 에러를 반환합니다
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// Event는 상태 콜백으로 전달되는 이벤트입니다.
// Timestamp는 거래소 시각 오프셋이 반영된 시각입니다.
type Event struct {
	Symbol     string
	Status     Status
	Timestamp  time.Time
	Diagnostic *Diagnostic // 실패 관련 상태인 경우에만 설정
}

// StatusCallback은 브래킷 주문의 상태 변화를 수신합니다
type StatusCallback func(event Event)
