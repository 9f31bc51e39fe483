package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/falcon/internal/domain"
)

// wsTestServer는 제어 프레임을 수집하고 데이터 프레임을 내려보내는 테스트 서버입니다
type wsTestServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []controlRequest
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	ts := &wsTestServer{}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ts.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.mu.Lock()
		ts.conns = append(ts.conns, conn)
		ts.mu.Unlock()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req controlRequest
			if json.Unmarshal(message, &req) == nil {
				ts.mu.Lock()
				ts.received = append(ts.received, req)
				ts.mu.Unlock()
			}
		}
	}))
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *wsTestServer) url() string {
	return strings.Replace(ts.server.URL, "http", "ws", 1) + "/stream"
}

func (ts *wsTestServer) requests() []controlRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]controlRequest{}, ts.received...)
}

func (ts *wsTestServer) connCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.conns)
}

func (ts *wsTestServer) send(t *testing.T, payload string) {
	t.Helper()
	ts.mu.Lock()
	conn := ts.conns[len(ts.conns)-1]
	ts.mu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func (ts *wsTestServer) dropConnections() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, conn := range ts.conns {
		conn.Close()
	}
}

// waitFor는 조건이 참이 될 때까지 잠시 기다립니다
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

const klineFrame = `{
	"stream": "btcusdt@kline_1m",
	"data": {
		"e": "kline", "E": 1717243205000, "s": "BTCUSDT",
		"k": {
			"t": 1717243200000, "s": "BTCUSDT", "i": "1m",
			"o": "68000.1", "h": "68100.5", "l": "67900.0", "c": "68050.3",
			"v": "123.45", "x": false
		}
	}
}`

func startTestManager(t *testing.T, ts *wsTestServer, opts ...ManagerOption) *Manager {
	t.Helper()
	opts = append([]ManagerOption{
		WithStreamURL(ts.url()),
		WithReconnectDelay(10 * time.Millisecond),
	}, opts...)
	m := NewManager(opts...)
	m.Start(context.Background())
	t.Cleanup(m.Stop)
	require.NoError(t, m.WaitUntilConnected(context.Background(), 3*time.Second))
	return m
}

func TestManagerSubscribe(t *testing.T) {
	ts := newWSTestServer(t)
	m := startTestManager(t, ts)

	require.NoError(t, m.Subscribe("BTCUSDT", domain.Interval1m))
	require.NoError(t, m.Subscribe("ETHUSDT", domain.Interval5m))
	// 중복 구독은 제어 프레임을 다시 보내지 않습니다
	require.NoError(t, m.Subscribe("BTCUSDT", domain.Interval1m))

	waitFor(t, func() bool { return len(ts.requests()) == 2 }, "구독 프레임이 도착하지 않았습니다")

	reqs := ts.requests()
	assert.Equal(t, "SUBSCRIBE", reqs[0].Method)
	assert.Equal(t, []string{"btcusdt@kline_1m"}, reqs[0].Params)
	assert.Equal(t, []string{"ethusdt@kline_5m"}, reqs[1].Params)
	assert.Less(t, reqs[0].ID, reqs[1].ID)
}

func TestManagerUnsubscribe(t *testing.T) {
	ts := newWSTestServer(t)
	m := startTestManager(t, ts)

	require.NoError(t, m.Subscribe("BTCUSDT", domain.Interval1m))
	require.NoError(t, m.Unsubscribe("BTCUSDT", domain.Interval1m))
	// 구독하지 않은 채널 해제는 무시됩니다
	require.NoError(t, m.Unsubscribe("XRPUSDT", domain.Interval1m))

	waitFor(t, func() bool { return len(ts.requests()) == 2 }, "제어 프레임이 도착하지 않았습니다")
	reqs := ts.requests()
	assert.Equal(t, "UNSUBSCRIBE", reqs[1].Method)
	assert.Empty(t, m.Subscriptions())
}

func TestManagerCandleDelivery(t *testing.T) {
	ts := newWSTestServer(t)

	var mu sync.Mutex
	var got []domain.Candle
	m := startTestManager(t, ts, WithCandleHandler(func(candle domain.Candle, closed bool, serverTime time.Time) {
		mu.Lock()
		got = append(got, candle)
		mu.Unlock()
	}))

	require.NoError(t, m.Subscribe("BTCUSDT", domain.Interval1m))
	ts.send(t, klineFrame)

	waitFor(t, func() bool {
		return m.Store().Count("BTCUSDT", domain.Interval1m) == 1
	}, "캔들이 저장소에 반영되지 않았습니다")

	last, ok := m.Store().Last("BTCUSDT", domain.Interval1m)
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1717243200000), last.OpenTime)
	assert.Equal(t, 68050.3, last.Close)
	assert.Equal(t, domain.Interval1m, last.Interval)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "BTCUSDT", got[0].Symbol)

	// 이벤트 시각이 오프셋 추정기에 반영되어야 합니다
	assert.Equal(t, time.UnixMilli(1717243205000), m.Clock().LastEventTime())
}

func TestManagerEqualEventTimeStillApplied(t *testing.T) {
	calls := 0
	m := NewManager(WithCandleHandler(func(domain.Candle, bool, time.Time) {
		calls++
	}))

	m.handleMessage([]byte(klineFrame))
	require.Equal(t, 1, m.Store().Count("BTCUSDT", domain.Interval1m))

	// 같은 이벤트 시각의 프레임도 캔들 갱신과 콜백은 그대로 수행되어야 합니다.
	// 오프셋 추정기 표본으로만 쓰이지 않습니다.
	update := strings.Replace(klineFrame, `"c": "68050.3"`, `"c": "68060.0"`, 1)
	m.handleMessage([]byte(update))

	price, ok := m.Store().Price("BTCUSDT", domain.Interval1m)
	require.True(t, ok)
	assert.Equal(t, 68060.0, price)
	assert.Equal(t, 2, calls)
	assert.Equal(t, time.UnixMilli(1717243205000), m.Clock().LastEventTime())
}

func TestManagerSharedEventTimeAcrossSymbols(t *testing.T) {
	m := NewManager()

	m.handleMessage([]byte(klineFrame))

	// 두 심볼의 프레임이 같은 밀리초 이벤트 시각을 공유하는 경우
	eth := strings.ReplaceAll(klineFrame, "btcusdt", "ethusdt")
	eth = strings.ReplaceAll(eth, "BTCUSDT", "ETHUSDT")
	m.handleMessage([]byte(eth))

	assert.Equal(t, 1, m.Store().Count("BTCUSDT", domain.Interval1m))
	assert.Equal(t, 1, m.Store().Count("ETHUSDT", domain.Interval1m))
}

func TestManagerControlResponseIgnored(t *testing.T) {
	m := NewManager()
	m.handleMessage([]byte(`{"result":null,"id":1}`))
	m.handleMessage([]byte(`not-json`))
	assert.Equal(t, 0, m.Store().Count("BTCUSDT", domain.Interval1m))
}

func TestManagerStopUnblocksIdleConnection(t *testing.T) {
	ts := newWSTestServer(t)
	m := NewManager(WithStreamURL(ts.url()))
	m.Start(context.Background())
	require.NoError(t, m.WaitUntilConnected(context.Background(), 3*time.Second))

	// 프레임이 전혀 오지 않는 유휴 연결에서도 Stop이 바로 풀려야 합니다
	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("유휴 연결에서 Stop이 반환되지 않았습니다")
	}
	assert.Equal(t, StateClosed, m.State())
}

func TestManagerReconnectReplaysSubscriptions(t *testing.T) {
	ts := newWSTestServer(t)
	m := startTestManager(t, ts)

	require.NoError(t, m.Subscribe("BTCUSDT", domain.Interval1m))
	require.NoError(t, m.Subscribe("ETHUSDT", domain.Interval5m))
	waitFor(t, func() bool { return len(ts.requests()) == 2 }, "초기 구독이 도착하지 않았습니다")

	ts.dropConnections()
	waitFor(t, func() bool { return ts.connCount() >= 2 }, "재접속이 일어나지 않았습니다")
	require.NoError(t, m.WaitUntilConnected(context.Background(), 3*time.Second))

	// 재접속 후 구독 전체가 하나의 프레임으로 복구되어야 합니다
	waitFor(t, func() bool { return len(ts.requests()) >= 3 }, "구독 복구 프레임이 도착하지 않았습니다")
	reqs := ts.requests()
	replay := reqs[len(reqs)-1]
	assert.Equal(t, "SUBSCRIBE", replay.Method)
	assert.ElementsMatch(t, []string{"btcusdt@kline_1m", "ethusdt@kline_5m"}, replay.Params)
}
