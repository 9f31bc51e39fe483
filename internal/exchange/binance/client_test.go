package binance

import (
	"compress/gzip"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/falcon/internal/domain"
	"github.com/assist-by/falcon/internal/exchange"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-api-key", "test-secret-key", WithBaseURL(server.URL))
}

func TestCallSigning(t *testing.T) {
	var gotQuery url.Values
	var gotAPIKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAPIKey = r.Header.Get("X-MBX-APIKEY")
		w.Write([]byte(`{}`))
	})

	params := url.Values{}
	params.Set("symbol", "BTCUSDT")
	_, err := client.Call(context.Background(), http.MethodGet, "/fapi/v1/test", params, 1, true)
	require.NoError(t, err)

	assert.Equal(t, "test-api-key", gotAPIKey)
	assert.Equal(t, "BTCUSDT", gotQuery.Get("symbol"))
	assert.NotEmpty(t, gotQuery.Get("timestamp"))
	assert.Equal(t, "60000", gotQuery.Get("recvWindow"))

	// 서명은 signature를 제외한 정렬된 쿼리 문자열에 대한 HMAC-SHA256입니다
	signature := gotQuery.Get("signature")
	require.NotEmpty(t, signature)
	signed := url.Values{}
	for k, v := range gotQuery {
		if k != "signature" {
			signed[k] = v
		}
	}
	mac := hmac.New(sha256.New, []byte("test-secret-key"))
	mac.Write([]byte(signed.Encode()))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), signature)
}

func TestCallStatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind exchange.ErrorKind
	}{
		{"403은 WAF 제한", http.StatusForbidden, "", exchange.ErrKindWAFLimit},
		{"429는 요청 속도 제한", http.StatusTooManyRequests, "", exchange.ErrKindRateLimited},
		{"418은 IP 차단", http.StatusTeapot, "", exchange.ErrKindIPBanned},
		{"503은 결과 불명", http.StatusServiceUnavailable, "", exchange.ErrKindAmbiguousTimeout},
		{"에러 코드 없는 400", http.StatusBadRequest, `{"detail":"oops"}`, exchange.ErrKindRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Call(context.Background(), http.MethodGet, "/fapi/v1/test", nil, 1, false)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, exchange.KindOf(err))
		})
	}
}

func TestCallExchangeErrorCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-2021,"msg":"Order would immediately trigger."}`))
	})

	_, err := client.Call(context.Background(), http.MethodPost, "/fapi/v1/order", nil, 1, true)
	require.Error(t, err)
	assert.Equal(t, exchange.ErrKindExchange, exchange.KindOf(err))
	assert.True(t, exchange.IsWouldTrigger(err))
}

func TestCallGzipResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(`{"serverTime":1717243200000}`))
		gz.Close()
	})
	// httptest의 기본 Transport가 gzip을 대신 풀지 않도록 수동 설정
	client.httpClient.Transport = &http.Transport{DisableCompression: true}

	body, err := client.Call(context.Background(), http.MethodGet, "/fapi/v1/time", nil, 1, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"serverTime":1717243200000}`, string(body))
}

func TestCallUnsupportedEncoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Write([]byte("compressed"))
	})

	_, err := client.Call(context.Background(), http.MethodGet, "/fapi/v1/test", nil, 1, false)
	require.Error(t, err)
	assert.Equal(t, exchange.ErrKindContentEncoding, exchange.KindOf(err))
}

func TestSyncTime(t *testing.T) {
	serverTime := time.Now().Add(3 * time.Second)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"serverTime":` + formatMilli(serverTime) + `}`))
	})

	require.NoError(t, client.SyncTime(context.Background()))
	assert.InDelta(t, (3 * time.Second).Seconds(), client.TimeOffset().Seconds(), 1)
}

func formatMilli(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func TestGetKlinesRange(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[
			[1717243200000,"68000.1","68100.5","67900.0","68050.3","123.45",1717243259999,"0",100,"0","0","0"],
			[1717243260000,"68050.3","68200.0","68000.0","68150.7","98.76",1717243319999,"0",90,"0","0","0"]
		]`))
	})

	start := time.UnixMilli(1717243200000)
	end := time.UnixMilli(1717243320000)
	candles, err := client.GetKlinesRange(context.Background(), "BTCUSDT", domain.Interval1m, start, end, 500)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, "BTCUSDT", gotQuery.Get("symbol"))
	assert.Equal(t, "1m", gotQuery.Get("interval"))
	assert.Equal(t, "1717243200000", gotQuery.Get("startTime"))
	assert.Equal(t, "1717243320000", gotQuery.Get("endTime"))

	first := candles[0]
	assert.Equal(t, time.UnixMilli(1717243200000), first.OpenTime)
	assert.Equal(t, 68000.1, first.Open)
	assert.Equal(t, 68050.3, first.Close)
	assert.Equal(t, domain.Interval1m, first.Interval)

	last, ok := candles.GetLastCandle()
	require.True(t, ok)
	assert.Equal(t, 68150.7, last.Close)
}

func TestGetKlinesInvalidInterval(t *testing.T) {
	client := NewClient("k", "s")
	_, err := client.GetKlines(context.Background(), "BTCUSDT", domain.TimeInterval("7m"), 100)
	require.Error(t, err)
	assert.Equal(t, exchange.ErrKindInvalidParameter, exchange.KindOf(err))
}

func TestRefreshExchangeInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"rateLimits":[{"rateLimitType":"REQUEST_WEIGHT","interval":"MINUTE","limit":1200}],
			"symbols":[{
				"symbol":"BTCUSDT","status":"TRADING","pricePrecision":2,"quantityPrecision":3,
				"filters":[
					{"filterType":"LOT_SIZE","stepSize":"0.001"},
					{"filterType":"PRICE_FILTER","tickSize":"0.10"},
					{"filterType":"MIN_NOTIONAL","notional":"100"}
				]
			}]
		}`))
	})

	require.NoError(t, client.RefreshExchangeInfo(context.Background()))

	_, limit := client.limiter.Usage()
	assert.Equal(t, int64(1200), limit)

	si, err := client.GetSymbolInfo(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, si.Tradeable)
	assert.Equal(t, 0.001, si.StepSize)
	assert.Equal(t, 0.10, si.TickSize)
	assert.Equal(t, 100.0, si.MinNotional)
	assert.Equal(t, 2, si.PricePrecision)
	assert.Equal(t, 3, si.QuantityPrecision)
}

func TestPlaceOrderValidation(t *testing.T) {
	client := NewClient("k", "s")

	tests := []struct {
		name  string
		order domain.OrderRequest
	}{
		{"심볼 없음", domain.OrderRequest{Side: domain.Buy, Type: domain.Market, Quantity: 1}},
		{"방향 없음", domain.OrderRequest{Symbol: "BTCUSDT", Type: domain.Market, Quantity: 1}},
		{"시장가 수량 없음", domain.OrderRequest{Symbol: "BTCUSDT", Side: domain.Buy, Type: domain.Market}},
		{"지정가 가격 없음", domain.OrderRequest{Symbol: "BTCUSDT", Side: domain.Buy, Type: domain.Limit, Quantity: 1}},
		{"트리거 가격 없음", domain.OrderRequest{Symbol: "BTCUSDT", Side: domain.Sell, Type: domain.StopMarket, Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.PlaceOrder(context.Background(), tt.order)
			require.Error(t, err)
			assert.Equal(t, exchange.ErrKindInvalidParameter, exchange.KindOf(err))
		})
	}
}

func TestPlaceOrderStopMarket(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{
			"orderId":123456,"symbol":"BTCUSDT","status":"NEW","clientOrderId":"tp-1",
			"price":"0","avgPrice":"0","origQty":"0.5","executedQty":"0",
			"side":"SELL","positionSide":"LONG","type":"TAKE_PROFIT_MARKET","updateTime":1717243200000
		}`))
	})

	resp, err := client.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:        "BTCUSDT",
		Side:          domain.Sell,
		PositionSide:  domain.LongPosition,
		Type:          domain.TakeProfitMarket,
		Quantity:      0.5,
		StopPrice:     70000,
		ClientOrderID: "tp-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "70000", gotQuery.Get("stopPrice"))
	assert.Equal(t, "0.5", gotQuery.Get("quantity"))
	assert.Equal(t, "LONG", gotQuery.Get("positionSide"))
	assert.Equal(t, "tp-1", gotQuery.Get("newClientOrderId"))
	assert.Empty(t, gotQuery.Get("reduceOnly"))

	assert.Equal(t, int64(123456), resp.OrderID)
	assert.Equal(t, "NEW", resp.Status)
	assert.Equal(t, time.UnixMilli(1717243200000), resp.UpdateTime)
}

func TestPlaceOrderAdjustsToSymbolRules(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fapi/v1/exchangeInfo" {
			w.Write([]byte(`{
				"symbols":[{
					"symbol":"BTCUSDT","status":"TRADING","pricePrecision":2,"quantityPrecision":3,
					"filters":[
						{"filterType":"LOT_SIZE","stepSize":"0.001"},
						{"filterType":"PRICE_FILTER","tickSize":"0.10"}
					]
				}]
			}`))
			return
		}
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"orderId":1,"symbol":"BTCUSDT","status":"NEW","updateTime":1717243200000}`))
	})
	require.NoError(t, client.RefreshExchangeInfo(context.Background()))

	// stepSize/tickSize 배수가 아닌 원시 값은 보정 후 전송되어야 합니다
	_, err := client.PlaceOrder(context.Background(), domain.OrderRequest{
		Symbol:    "BTCUSDT",
		Side:      domain.Sell,
		Type:      domain.StopMarket,
		Quantity:  0.12349,
		StopPrice: 68000.17,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.123", gotQuery.Get("quantity"))
	assert.Equal(t, "68000.2", gotQuery.Get("stopPrice"))
}

func TestSetPositionModeNoChange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-4059,"msg":"No need to change position side."}`))
	})

	assert.NoError(t, client.SetPositionMode(context.Background(), domain.HedgeMode))
}

func TestSetMarginTypeNoChange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-4046,"msg":"No need to change margin type."}`))
	})

	assert.NoError(t, client.SetMarginType(context.Background(), "BTCUSDT", "CROSSED"))

	err := client.SetMarginType(context.Background(), "BTCUSDT", "NONE")
	assert.Equal(t, exchange.ErrKindInvalidParameter, exchange.KindOf(err))
}

func TestUserDataStream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.Write([]byte(`{"listenKey":"abc123"}`))
		default:
			w.Write([]byte(`{}`))
		}
	})

	key, err := client.StartUserDataStream(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)

	assert.NoError(t, client.KeepAliveUserDataStream(context.Background()))
	assert.NoError(t, client.CloseUserDataStream(context.Background()))
}
