package exchange

import (
	"errors"
	"fmt"
)

// ErrorKind는 요청 계층에서 분류한 에러 종류를 정의합니다
type ErrorKind int

const (
	ErrKindNone             ErrorKind = iota
	ErrKindTransportInit              // HTTP 클라이언트/요청 생성 실패
	ErrKindRateLimited                // 429: 요청 속도 제한 위반
	ErrKindWAFLimit                   // 403: WAF(웹 방화벽) 제한 위반
	ErrKindIPBanned                   // 418: 429 이후 계속 요청하여 IP 차단
	ErrKindAmbiguousTimeout           // 503: 결과를 알 수 없음, 실패로 단정하면 안 됨
	ErrKindRequestFailed              // 200이 아닌 상태 코드, 거래소 에러 코드 파싱 불가
	ErrKindExchange                   // 거래소가 반환한 숫자 에러 코드
	ErrKindParse                      // 응답 본문 파싱 실패
	ErrKindInvalidParameter           // 호출자가 잘못된 파라미터 조합을 전달
	ErrKindDataUnavailable            // 정상 응답이지만 기대한 필드가 없음
	ErrKindContentEncoding            // 지원하지 않는 Content-Encoding
)

// String은 ErrorKind의 문자열 표현을 반환합니다
func (k ErrorKind) String() string {
	switch k {
	case ErrKindNone:
		return "NONE"
	case ErrKindTransportInit:
		return "TRANSPORT_INIT_FAILED"
	case ErrKindRateLimited:
		return "RATE_LIMITED"
	case ErrKindWAFLimit:
		return "WAF_LIMIT"
	case ErrKindIPBanned:
		return "IP_BANNED"
	case ErrKindAmbiguousTimeout:
		return "AMBIGUOUS_TIMEOUT"
	case ErrKindRequestFailed:
		return "REQUEST_FAILED"
	case ErrKindExchange:
		return "EXCHANGE_ERROR"
	case ErrKindParse:
		return "PARSE_ERROR"
	case ErrKindInvalidParameter:
		return "INVALID_PARAMETER"
	case ErrKindDataUnavailable:
		return "DATA_UNAVAILABLE"
	case ErrKindContentEncoding:
		return "CONTENT_ENCODING_NOT_SUPPORTED"
	default:
		return "UNKNOWN"
	}
}

// 거래소 에러 코드 중 요청 계층에서 별도로 인식하는 값들입니다
const (
	CodeOrderWouldTrigger    = -2021 // 트리거 가격이 이미 시장가를 지나침
	CodeMarginTypeNoChange   = -4046 // 마진 타입 변경 불필요
	CodePositionModeNoChange = -4059 // 포지션 모드 변경 불필요
)

// APIError는 거래소 API 호출 에러를 표현합니다
type APIError struct {
	Kind ErrorKind
	Code int64  // Kind가 ErrKindExchange인 경우 거래소 에러 코드
	Msg  string // 거래소가 전달한 메시지 또는 진단 텍스트
}

// Error는 error 인터페이스를 구현합니다
func (e *APIError) Error() string {
	if e.Kind == ErrKindExchange {
		return fmt.Sprintf("거래소 에러 [코드: %d]: %s", e.Code, e.Msg)
	}
	if e.Msg != "" {
		return fmt.Sprintf("API 에러 [%s]: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("API 에러 [%s]", e.Kind)
}

// NewAPIError는 새로운 APIError를 생성합니다
func NewAPIError(kind ErrorKind, msg string) *APIError {
	return &APIError{Kind: kind, Msg: msg}
}

// NewExchangeError는 거래소 에러 코드로부터 APIError를 생성합니다
func NewExchangeError(code int64, msg string) *APIError {
	return &APIError{Kind: ErrKindExchange, Code: code, Msg: msg}
}

// KindOf는 에러 체인에서 ErrorKind를 추출합니다
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrKindNone
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ErrKindRequestFailed
}

// IsWouldTrigger는 "주문이 즉시 체결될 것"(-2021) 에러인지 확인합니다
func IsWouldTrigger(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == ErrKindExchange && apiErr.Code == CodeOrderWouldTrigger
	}
	return false
}

// IsAmbiguous는 결과를 알 수 없는 에러(503)인지 확인합니다.
// 이 경우 요청이 실제로는 성공했을 수 있으므로 실패로 단정하면 안 됩니다.
func IsAmbiguous(err error) bool {
	return KindOf(err) == ErrKindAmbiguousTimeout
}
