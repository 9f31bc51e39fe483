// internal/exchange/binance/client.go
package binance

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	simplejson "github.com/bitly/go-simplejson"
	"go.uber.org/zap"

	"github.com/assist-by/falcon/internal/domain"
	"github.com/assist-by/falcon/internal/exchange"
)

const (
	liveBaseURL    = "https://fapi.binance.com"
	testnetBaseURL = "https://testnet.binancefuture.com"

	defaultRecvWindow   = 60 * time.Second
	defaultSafetyMargin = time.Second
	defaultWeightLimit  = 2400
)

// Client는 바이낸스 선물 REST API 클라이언트입니다.
// 서명이 필요한 요청에는 HMAC-SHA256 서명을 붙이고, 분당 요청 가중치
// 예산을 넘지 않도록 호출을 조율합니다.
type Client struct {
	apiKey     string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	limiter    *requestLimiter
	log        *zap.Logger

	recvWindow   time.Duration
	safetyMargin time.Duration

	// 거래소 서버 시각과 로컬 시각의 차이 (나노초)
	timeOffset atomic.Int64

	mu      sync.RWMutex
	symbols map[string]domain.SymbolInfo
}

// ClientOption은 Client 생성 옵션입니다
type ClientOption func(*Client)

// WithTestnet은 테스트넷 사용 여부를 설정합니다
func WithTestnet(useTestnet bool) ClientOption {
	return func(c *Client) {
		if useTestnet {
			c.baseURL = testnetBaseURL
		}
	}
}

// WithBaseURL은 기본 URL을 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout은 HTTP 요청 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRecvWindow는 서명 요청의 유효 시간 창을 설정합니다
func WithRecvWindow(window time.Duration) ClientOption {
	return func(c *Client) {
		if window > 0 {
			c.recvWindow = window
		}
	}
}

// WithWeightLimit은 분당 요청 가중치 한도의 초기값을 설정합니다
func WithWeightLimit(limit int64) ClientOption {
	return func(c *Client) {
		c.limiter.SetLimit(limit)
	}
}

// WithLogger는 로거를 설정합니다
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient는 새로운 바이낸스 클라이언트를 생성합니다
func NewClient(apiKey, secretKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:       apiKey,
		secretKey:    secretKey,
		baseURL:      liveBaseURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		limiter:      newRequestLimiter(defaultWeightLimit),
		log:          zap.NewNop(),
		recvWindow:   defaultRecvWindow,
		safetyMargin: defaultSafetyMargin,
		symbols:      make(map[string]domain.SymbolInfo),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTimeOffset은 거래소 서버 시각과의 차이를 갱신합니다.
// 웹소켓 이벤트 타임스탬프 기반 추정값을 주기적으로 반영하는 용도입니다.
func (c *Client) SetTimeOffset(offset time.Duration) {
	c.timeOffset.Store(int64(offset))
}

// TimeOffset은 현재 적용 중인 서버 시각 오프셋을 반환합니다
func (c *Client) TimeOffset() time.Duration {
	return time.Duration(c.timeOffset.Load())
}

// ServerTime은 오프셋이 반영된 거래소 기준 현재 시각을 반환합니다
func (c *Client) ServerTime() time.Time {
	return time.Now().Add(c.TimeOffset())
}

// sign은 요청 파라미터에 대한 HMAC-SHA256 서명을 생성합니다
func (c *Client) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// signedTimestamp는 서명에 사용할 밀리초 타임스탬프를 반환합니다.
// 로컬 시계가 서버보다 앞서 있을 때 요청이 거부되지 않도록
// 오프셋에 더해 1초의 안전 여유를 둡니다.
func (c *Client) signedTimestamp() int64 {
	return time.Now().Add(c.TimeOffset() + c.safetyMargin).UnixMilli()
}

// Call은 API 호출을 수행하고 응답 본문을 반환합니다.
// weight만큼 분당 예산을 소비하며, 예산 초과 시 분이 바뀔 때까지 대기합니다.
func (c *Client) Call(ctx context.Context, method, endpoint string, params url.Values, weight int64, needSign bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}

	if needSign {
		params.Set("recvWindow", strconv.FormatInt(c.recvWindow.Milliseconds(), 10))
		params.Set("timestamp", strconv.FormatInt(c.signedTimestamp(), 10))
	}

	// url.Values.Encode는 키를 정렬하므로 서명 대상 문자열이 항상 일정합니다
	query := params.Encode()
	if needSign {
		query += "&signature=" + c.sign(query)
	}

	reqURL := c.baseURL + endpoint
	if query != "" {
		reqURL += "?" + query
	}

	if err := c.limiter.Wait(ctx, weight); err != nil {
		return nil, fmt.Errorf("요청 한도 대기 실패: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, exchange.NewAPIError(exchange.ErrKindTransportInit, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, exchange.NewAPIError(exchange.ErrKindTransportInit, err.Error())
	}
	defer resp.Body.Close()

	// 상태 코드별 제한 조건을 먼저 분류합니다
	switch resp.StatusCode {
	case http.StatusForbidden:
		return nil, exchange.NewAPIError(exchange.ErrKindWAFLimit, "WAF 제한에 걸렸습니다")
	case http.StatusTooManyRequests:
		return nil, exchange.NewAPIError(exchange.ErrKindRateLimited, "요청 속도 제한을 초과했습니다")
	case http.StatusTeapot:
		return nil, exchange.NewAPIError(exchange.ErrKindIPBanned, "반복된 제한 위반으로 IP가 차단되었습니다")
	case http.StatusServiceUnavailable:
		return nil, exchange.NewAPIError(exchange.ErrKindAmbiguousTimeout, "요청 결과를 알 수 없습니다. 성공했을 수도 있습니다")
	}

	body, err := decodeBody(resp)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, exchange.NewAPIError(exchange.ErrKindRequestFailed,
				fmt.Sprintf("HTTP %d 응답 본문을 읽을 수 없습니다", resp.StatusCode))
		}
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyErrorBody(resp.StatusCode, body)
	}

	return body, nil
}

// decodeBody는 Content-Encoding에 따라 응답 본문을 해제합니다
func decodeBody(resp *http.Response) ([]byte, error) {
	switch enc := resp.Header.Get("Content-Encoding"); enc {
	case "", "identity":
		return io.ReadAll(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, exchange.NewAPIError(exchange.ErrKindParse, "gzip 해제 실패: "+err.Error())
		}
		defer gz.Close()
		return io.ReadAll(gz)
	default:
		return nil, exchange.NewAPIError(exchange.ErrKindContentEncoding,
			"지원하지 않는 Content-Encoding: "+enc)
	}
}

// classifyErrorBody는 에러 응답 본문에서 거래소 에러 코드를 추출합니다
func classifyErrorBody(status int, body []byte) error {
	js, err := simplejson.NewJson(bytes.TrimSpace(body))
	if err == nil {
		if code, codeErr := js.Get("code").Int64(); codeErr == nil && code != 0 {
			msg, _ := js.Get("msg").String()
			return exchange.NewExchangeError(code, msg)
		}
	}
	return exchange.NewAPIError(exchange.ErrKindRequestFailed,
		fmt.Sprintf("HTTP %d: %s", status, string(body)))
}
