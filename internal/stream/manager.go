// internal/stream/manager.go
package stream

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/assist-by/falcon/internal/domain"
)

const (
	liveStreamURL    = "wss://fstream.binance.com/stream"
	testnetStreamURL = "wss://stream.binancefuture.com/stream"

	defaultReconnectDelay = time.Second
	connectedPollInterval = 10 * time.Millisecond
	readLimit             = 2 * 1024 * 1024
)

// State는 웹소켓 연결 상태를 정의합니다
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

// String은 State의 문자열 표현을 반환합니다
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// CandleHandler는 캔들 수신 시 호출되는 콜백입니다.
// serverTime은 오프셋이 반영된 거래소 기준 수신 시각입니다.
type CandleHandler func(candle domain.Candle, closed bool, serverTime time.Time)

// Manager는 하나의 웹소켓 연결로 여러 캔들 스트림을 구독합니다.
// 연결이 끊어지면 일정한 간격으로 재접속하며, 재접속 후에는 기존 구독
// 목록 전체를 다시 구독합니다.
type Manager struct {
	url            string
	reconnectDelay time.Duration
	log            *zap.Logger

	store *Store
	clock *ClockEstimator

	onCandle CandleHandler

	mu    sync.Mutex
	state State
	conn  *websocket.Conn
	subs  map[subscription]struct{}

	// gorilla 연결은 동시 쓰기를 허용하지 않습니다
	writeMu sync.Mutex

	msgID  atomic.Uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// ManagerOption은 Manager 생성 옵션입니다
type ManagerOption func(*Manager)

// WithStreamURL은 웹소켓 엔드포인트를 설정합니다
func WithStreamURL(url string) ManagerOption {
	return func(m *Manager) {
		m.url = url
	}
}

// WithTestnetStream은 테스트넷 스트림 사용 여부를 설정합니다
func WithTestnetStream(useTestnet bool) ManagerOption {
	return func(m *Manager) {
		if useTestnet {
			m.url = testnetStreamURL
		}
	}
}

// WithReconnectDelay는 재접속 간격을 설정합니다
func WithReconnectDelay(delay time.Duration) ManagerOption {
	return func(m *Manager) {
		if delay > 0 {
			m.reconnectDelay = delay
		}
	}
}

// WithCandleHandler는 캔들 수신 콜백을 설정합니다
func WithCandleHandler(handler CandleHandler) ManagerOption {
	return func(m *Manager) {
		m.onCandle = handler
	}
}

// WithStreamLogger는 로거를 설정합니다
func WithStreamLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager는 새로운 캔들 스트림 매니저를 생성합니다
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		url:            liveStreamURL,
		reconnectDelay: defaultReconnectDelay,
		log:            zap.NewNop(),
		store:          NewStore(),
		clock:          NewClockEstimator(),
		state:          StateDisconnected,
		subs:           make(map[subscription]struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store는 캔들 저장소를 반환합니다
func (m *Manager) Store() *Store {
	return m.store
}

// Clock은 시각 오프셋 추정기를 반환합니다
func (m *Manager) Clock() *ClockEstimator {
	return m.clock
}

// State는 현재 연결 상태를 반환합니다
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start는 연결 유지 루프를 시작합니다
func (m *Manager) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.run(runCtx)
}

// Stop은 연결을 종료하고 루프가 끝날 때까지 기다립니다
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	<-m.done
}

// WaitUntilConnected는 연결이 수립될 때까지 짧은 간격으로 상태를 확인합니다
func (m *Manager) WaitUntilConnected(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if m.State() == StateConnected {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("웹소켓 연결 대기 시간이 초과되었습니다")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectedPollInterval):
		}
	}
}

// Subscribe는 캔들 스트림 구독을 추가합니다.
// 연결이 없는 상태라면 구독 목록에만 기록해 두었다가 연결 시점에 반영합니다.
func (m *Manager) Subscribe(symbol string, interval domain.TimeInterval) error {
	if !interval.Valid() {
		return fmt.Errorf("지원하지 않는 간격 코드: %s", interval)
	}
	sub := subscription{Symbol: symbol, Interval: interval}

	m.mu.Lock()
	if _, exists := m.subs[sub]; exists {
		m.mu.Unlock()
		return nil
	}
	m.subs[sub] = struct{}{}
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	return m.sendControl(conn, "SUBSCRIBE", []string{sub.channelName()})
}

// Unsubscribe는 캔들 스트림 구독을 해제합니다
func (m *Manager) Unsubscribe(symbol string, interval domain.TimeInterval) error {
	sub := subscription{Symbol: symbol, Interval: interval}

	m.mu.Lock()
	if _, exists := m.subs[sub]; !exists {
		m.mu.Unlock()
		return nil
	}
	delete(m.subs, sub)
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	return m.sendControl(conn, "UNSUBSCRIBE", []string{sub.channelName()})
}

// Subscriptions는 현재 구독 목록을 반환합니다
func (m *Manager) Subscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	channels := make([]string, 0, len(m.subs))
	for sub := range m.subs {
		channels = append(channels, sub.channelName())
	}
	return channels
}

// run은 연결이 끊어져도 일정한 간격으로 재접속하는 유지 루프입니다
func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	defer m.setState(StateClosed)

	delay := backoff.NewConstantBackOff(m.reconnectDelay)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.setState(StateConnecting)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.url, nil)
		if err != nil {
			m.setState(StateDisconnected)
			m.log.Warn("웹소켓 연결 실패",
				zap.String("url", m.url),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay.NextBackOff()):
				continue
			}
		}
		conn.SetReadLimit(readLimit)

		m.mu.Lock()
		m.conn = conn
		m.state = StateConnected
		m.mu.Unlock()

		m.log.Info("웹소켓 연결 완료", zap.String("url", m.url))

		// 재접속 후 기존 구독 전체 복구
		if channels := m.Subscriptions(); len(channels) > 0 {
			if err := m.sendControl(conn, "SUBSCRIBE", channels); err != nil {
				m.log.Warn("구독 복구 실패", zap.Error(err))
			}
		}

		// ReadMessage는 연결이 닫혀야 풀리므로 취소 신호를 연결 종료로 전달합니다
		readDone := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-readDone:
			}
		}()

		err = m.readLoop(ctx, conn)
		close(readDone)

		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
		}
		m.state = StateDisconnected
		m.mu.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		m.log.Warn("웹소켓 연결 끊김, 재접속 예정",
			zap.Error(err),
			zap.Duration("delay", m.reconnectDelay),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay.NextBackOff()):
		}
	}
}

// readLoop는 연결이 끊어질 때까지 수신 프레임을 처리합니다
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		m.handleMessage(message)
	}
}

// handleMessage는 수신 프레임을 파싱하여 캔들 저장소에 반영합니다
func (m *Manager) handleMessage(message []byte) {
	var frame streamFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		m.log.Debug("수신 프레임 파싱 실패", zap.Error(err))
		return
	}
	// stream 필드가 없으면 제어 응답이므로 무시합니다
	if frame.Stream == "" || len(frame.Data) == 0 {
		return
	}

	var event klineEvent
	if err := json.Unmarshal(frame.Data, &event); err != nil || event.Type != "kline" {
		return
	}

	interval := domain.TimeInterval(event.Kline.Interval)
	if !interval.Valid() {
		return
	}

	candle := domain.Candle{
		OpenTime: time.UnixMilli(event.Kline.StartTime),
		Open:     parseField(event.Kline.Open),
		High:     parseField(event.Kline.High),
		Low:      parseField(event.Kline.Low),
		Close:    parseField(event.Kline.Close),
		Volume:   parseField(event.Kline.Volume),
		Symbol:   event.Kline.Symbol,
		Interval: interval,
	}

	// 오프셋 추정기는 이벤트 시각이 단조 증가하는 표본만 받습니다.
	// 여러 심볼의 프레임이 같은 밀리초를 공유할 수 있으므로 표본이
	// 거부되더라도 캔들 자체는 항상 반영합니다.
	eventTime := time.UnixMilli(event.EventTime)
	m.clock.Update(eventTime, time.Now())

	m.store.Upsert(candle)

	if m.onCandle != nil {
		m.onCandle(candle, event.Kline.Closed, m.clock.ServerTime())
	}
}

// sendControl은 구독 변경 프레임을 전송합니다
func (m *Manager) sendControl(conn *websocket.Conn, method string, channels []string) error {
	req := controlRequest{
		Method: method,
		Params: channels,
		ID:     m.msgID.Add(1),
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("제어 프레임 직렬화 실패: %w", err)
	}
	m.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	m.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("제어 프레임 전송 실패 (%s): %w", method, err)
	}
	m.log.Debug("제어 프레임 전송",
		zap.String("method", method),
		zap.Strings("channels", channels),
		zap.Uint64("id", req.ID),
	)
	return nil
}

func (m *Manager) setState(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

// parseField는 문자열 숫자 필드를 float64로 변환합니다
func parseField(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
