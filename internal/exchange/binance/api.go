// internal/exchange/binance/api.go
package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	simplejson "github.com/bitly/go-simplejson"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/assist-by/falcon/internal/domain"
	"github.com/assist-by/falcon/internal/exchange"
)

// Exchange 인터페이스 구현을 컴파일 시점에 확인합니다
var _ exchange.Exchange = (*Client)(nil)

// Ping은 거래소 서버와의 연결 상태를 확인합니다
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, http.MethodGet, "/fapi/v1/ping", nil, 1, false)
	if err != nil {
		return fmt.Errorf("핑 실패: %w", err)
	}
	return nil
}

// SyncTime은 거래소 서버 시각을 조회하여 로컬 시각과의 오프셋을 갱신합니다
func (c *Client) SyncTime(ctx context.Context) error {
	before := time.Now()
	body, err := c.Call(ctx, http.MethodGet, "/fapi/v1/time", nil, 1, false)
	if err != nil {
		return fmt.Errorf("서버 시간 조회 실패: %w", err)
	}

	var result struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return exchange.NewAPIError(exchange.ErrKindParse, "서버 시간 응답 파싱 실패: "+err.Error())
	}
	if result.ServerTime == 0 {
		return exchange.NewAPIError(exchange.ErrKindDataUnavailable, "서버 시간 필드가 없습니다")
	}

	serverTime := time.UnixMilli(result.ServerTime)
	offset := serverTime.Sub(before)
	c.SetTimeOffset(offset)
	c.log.Debug("서버 시간 동기화 완료",
		zap.Time("serverTime", serverTime),
		zap.Duration("offset", offset),
	)
	return nil
}

// RefreshExchangeInfo는 심볼 거래 규칙과 요청 가중치 한도를 갱신합니다
func (c *Client) RefreshExchangeInfo(ctx context.Context) error {
	body, err := c.Call(ctx, http.MethodGet, "/fapi/v1/exchangeInfo", nil, 1, false)
	if err != nil {
		return fmt.Errorf("거래소 정보 조회 실패: %w", err)
	}

	var info struct {
		RateLimits []struct {
			RateLimitType string `json:"rateLimitType"`
			Interval      string `json:"interval"`
			Limit         int64  `json:"limit"`
		} `json:"rateLimits"`
		Symbols []struct {
			Symbol            string `json:"symbol"`
			Status            string `json:"status"`
			PricePrecision    int    `json:"pricePrecision"`
			QuantityPrecision int    `json:"quantityPrecision"`
			Filters           []struct {
				FilterType  string `json:"filterType"`
				StepSize    string `json:"stepSize"`
				TickSize    string `json:"tickSize"`
				MinNotional string `json:"notional"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return exchange.NewAPIError(exchange.ErrKindParse, "거래소 정보 파싱 실패: "+err.Error())
	}

	for _, rl := range info.RateLimits {
		if rl.RateLimitType == "REQUEST_WEIGHT" && rl.Interval == "MINUTE" {
			c.limiter.SetLimit(rl.Limit)
		}
	}

	symbols := make(map[string]domain.SymbolInfo, len(info.Symbols))
	for _, s := range info.Symbols {
		si := domain.SymbolInfo{
			Symbol:            s.Symbol,
			Tradeable:         s.Status == "TRADING",
			PricePrecision:    s.PricePrecision,
			QuantityPrecision: s.QuantityPrecision,
		}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "LOT_SIZE":
				si.StepSize, _ = strconv.ParseFloat(f.StepSize, 64)
			case "PRICE_FILTER":
				si.TickSize, _ = strconv.ParseFloat(f.TickSize, 64)
			case "MIN_NOTIONAL":
				si.MinNotional, _ = strconv.ParseFloat(f.MinNotional, 64)
			}
		}
		symbols[s.Symbol] = si
	}

	c.mu.Lock()
	c.symbols = symbols
	c.mu.Unlock()

	c.log.Debug("거래소 정보 갱신 완료", zap.Int("symbols", len(symbols)))
	return nil
}

// GetSymbolInfo는 심볼의 거래 규칙을 반환합니다.
// 캐시에 없으면 거래소 정보를 한 번 갱신한 뒤 다시 조회합니다.
func (c *Client) GetSymbolInfo(ctx context.Context, symbol string) (*domain.SymbolInfo, error) {
	c.mu.RLock()
	si, ok := c.symbols[symbol]
	c.mu.RUnlock()
	if ok {
		return &si, nil
	}

	if err := c.RefreshExchangeInfo(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	si, ok = c.symbols[symbol]
	c.mu.RUnlock()
	if !ok {
		return nil, exchange.NewAPIError(exchange.ErrKindDataUnavailable,
			fmt.Sprintf("심볼 정보를 찾을 수 없습니다: %s", symbol))
	}
	return &si, nil
}

// GetKlines는 최근 캔들 데이터를 조회합니다
func (c *Client) GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error) {
	return c.GetKlinesRange(ctx, symbol, interval, time.Time{}, time.Time{}, limit)
}

// GetKlinesRange는 시간 범위를 지정하여 캔들 데이터를 조회합니다.
// start/end가 0 값이면 범위 제한 없이 최근 데이터를 가져옵니다.
func (c *Client) GetKlinesRange(ctx context.Context, symbol string, interval domain.TimeInterval, start, end time.Time, limit int) (domain.CandleList, error) {
	if !interval.Valid() {
		return nil, exchange.NewAPIError(exchange.ErrKindInvalidParameter,
			fmt.Sprintf("지원하지 않는 간격 코드: %s", interval))
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", string(interval))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if !start.IsZero() {
		params.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	}
	if !end.IsZero() {
		params.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	}

	body, err := c.Call(ctx, http.MethodGet, "/fapi/v1/klines", params, klinesWeight(limit), false)
	if err != nil {
		return nil, fmt.Errorf("캔들 데이터 조회 실패: %w", err)
	}

	var rows [][]interface{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, exchange.NewAPIError(exchange.ErrKindParse, "캔들 데이터 파싱 실패: "+err.Error())
	}

	candles := make(domain.CandleList, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		openTime, ok := row[0].(float64)
		if !ok {
			continue
		}
		candles = append(candles, domain.Candle{
			OpenTime: time.UnixMilli(int64(openTime)),
			Open:     parseColumn(row[1]),
			High:     parseColumn(row[2]),
			Low:      parseColumn(row[3]),
			Close:    parseColumn(row[4]),
			Volume:   parseColumn(row[5]),
			Symbol:   symbol,
			Interval: interval,
		})
	}
	return candles, nil
}

// klinesWeight는 조회 개수에 따른 요청 가중치를 반환합니다
func klinesWeight(limit int) int64 {
	switch {
	case limit <= 0 || limit >= 1000:
		return 10
	case limit >= 500:
		return 5
	case limit >= 100:
		return 2
	default:
		return 1
	}
}

// parseColumn은 캔들 응답의 문자열 숫자 컬럼을 float64로 변환합니다
func parseColumn(v interface{}) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// GetBalances는 계정의 자산별 잔고를 조회합니다
func (c *Client) GetBalances(ctx context.Context) (map[string]domain.Balance, error) {
	body, err := c.Call(ctx, http.MethodGet, "/fapi/v2/balance", nil, 5, true)
	if err != nil {
		return nil, fmt.Errorf("잔고 조회 실패: %w", err)
	}

	var rows []struct {
		Asset              string `json:"asset"`
		Balance            string `json:"balance"`
		CrossWalletBalance string `json:"crossWalletBalance"`
		AvailableBalance   string `json:"availableBalance"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, exchange.NewAPIError(exchange.ErrKindParse, "잔고 응답 파싱 실패: "+err.Error())
	}

	balances := make(map[string]domain.Balance, len(rows))
	for _, row := range rows {
		wallet, _ := strconv.ParseFloat(row.Balance, 64)
		cross, _ := strconv.ParseFloat(row.CrossWalletBalance, 64)
		available, _ := strconv.ParseFloat(row.AvailableBalance, 64)
		balances[row.Asset] = domain.Balance{
			Asset:              row.Asset,
			WalletBalance:      wallet,
			CrossWalletBalance: cross,
			Available:          available,
		}
	}
	return balances, nil
}

// GetPositions는 수량이 0이 아닌 포지션 목록을 조회합니다
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	body, err := c.Call(ctx, http.MethodGet, "/fapi/v2/positionRisk", nil, 5, true)
	if err != nil {
		return nil, fmt.Errorf("포지션 조회 실패: %w", err)
	}

	var rows []struct {
		Symbol           string `json:"symbol"`
		PositionSide     string `json:"positionSide"`
		PositionAmt      string `json:"positionAmt"`
		EntryPrice       string `json:"entryPrice"`
		MarkPrice        string `json:"markPrice"`
		UnrealizedProfit string `json:"unRealizedProfit"`
		Leverage         string `json:"leverage"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, exchange.NewAPIError(exchange.ErrKindParse, "포지션 응답 파싱 실패: "+err.Error())
	}

	positions := make([]domain.Position, 0, len(rows))
	for _, row := range rows {
		quantity, _ := strconv.ParseFloat(row.PositionAmt, 64)
		if quantity == 0 {
			continue
		}
		entryPrice, _ := strconv.ParseFloat(row.EntryPrice, 64)
		markPrice, _ := strconv.ParseFloat(row.MarkPrice, 64)
		pnl, _ := strconv.ParseFloat(row.UnrealizedProfit, 64)
		leverage, _ := strconv.Atoi(row.Leverage)
		positions = append(positions, domain.Position{
			Symbol:        row.Symbol,
			PositionSide:  domain.PositionSide(row.PositionSide),
			Quantity:      quantity,
			EntryPrice:    entryPrice,
			MarkPrice:     markPrice,
			UnrealizedPnL: pnl,
			Leverage:      leverage,
		})
	}
	return positions, nil
}

// GetOpenOrders는 미체결 주문 목록을 조회합니다.
// symbol이 비어 있으면 전체 심볼을 대상으로 합니다.
func (c *Client) GetOpenOrders(ctx context.Context, symbol string) ([]domain.OrderResponse, error) {
	params := url.Values{}
	weight := int64(40)
	if symbol != "" {
		params.Set("symbol", symbol)
		weight = 1
	}

	body, err := c.Call(ctx, http.MethodGet, "/fapi/v1/openOrders", params, weight, true)
	if err != nil {
		return nil, fmt.Errorf("미체결 주문 조회 실패: %w", err)
	}

	var rows []rawOrder
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, exchange.NewAPIError(exchange.ErrKindParse, "미체결 주문 파싱 실패: "+err.Error())
	}

	orders := make([]domain.OrderResponse, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toDomain())
	}
	return orders, nil
}

// PlaceOrder는 주문을 실행합니다.
// 수량과 가격은 심볼의 stepSize/tickSize에 맞춰 보정한 뒤 전송합니다.
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	c.adjustOrder(&order)
	params, err := buildOrderParams(order)
	if err != nil {
		return nil, err
	}

	body, err := c.Call(ctx, http.MethodPost, "/fapi/v1/order", params, 1, true)
	if err != nil {
		return nil, fmt.Errorf("주문 실행 실패: %w", err)
	}

	var row rawOrder
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, exchange.NewAPIError(exchange.ErrKindParse, "주문 응답 파싱 실패: "+err.Error())
	}
	if row.Status == "" {
		return nil, exchange.NewAPIError(exchange.ErrKindDataUnavailable, "주문 응답에 상태 필드가 없습니다")
	}

	resp := row.toDomain()
	c.log.Info("주문 접수 완료",
		zap.String("symbol", resp.Symbol),
		zap.String("side", string(resp.Side)),
		zap.String("type", string(resp.Type)),
		zap.String("status", resp.Status),
		zap.Int64("orderID", resp.OrderID),
	)
	return &resp, nil
}

// adjustOrder는 캐시된 심볼 거래 규칙에 맞춰 수량과 가격을 보정합니다.
// 규칙이 캐시에 없으면 원본 값을 그대로 사용합니다.
func (c *Client) adjustOrder(order *domain.OrderRequest) {
	c.mu.RLock()
	si, ok := c.symbols[order.Symbol]
	c.mu.RUnlock()
	if !ok {
		return
	}

	if order.Quantity > 0 {
		order.Quantity = domain.AdjustQuantity(order.Quantity, si.StepSize, si.QuantityPrecision)
	}
	if order.Price > 0 {
		order.Price = domain.AdjustPrice(order.Price, si.TickSize, si.PricePrecision)
	}
	if order.StopPrice > 0 {
		order.StopPrice = domain.AdjustPrice(order.StopPrice, si.TickSize, si.PricePrecision)
	}
}

// buildOrderParams는 주문 요청을 API 파라미터로 변환합니다
func buildOrderParams(order domain.OrderRequest) (url.Values, error) {
	if order.Symbol == "" {
		return nil, exchange.NewAPIError(exchange.ErrKindInvalidParameter, "심볼이 비어 있습니다")
	}
	if order.Side != domain.Buy && order.Side != domain.Sell {
		return nil, exchange.NewAPIError(exchange.ErrKindInvalidParameter, "주문 방향이 올바르지 않습니다")
	}

	params := url.Values{}
	params.Set("symbol", order.Symbol)
	params.Set("side", string(order.Side))
	params.Set("type", string(order.Type))
	if order.PositionSide != domain.NonePosition {
		params.Set("positionSide", string(order.PositionSide))
	}
	if order.ClientOrderID != "" {
		params.Set("newClientOrderId", order.ClientOrderID)
	}

	switch order.Type {
	case domain.Market:
		if order.Quantity <= 0 {
			return nil, exchange.NewAPIError(exchange.ErrKindInvalidParameter, "시장가 주문에는 수량이 필요합니다")
		}
		params.Set("quantity", formatFloat(order.Quantity))

	case domain.Limit:
		if order.Quantity <= 0 || order.Price <= 0 {
			return nil, exchange.NewAPIError(exchange.ErrKindInvalidParameter, "지정가 주문에는 수량과 가격이 필요합니다")
		}
		params.Set("quantity", formatFloat(order.Quantity))
		params.Set("price", formatFloat(order.Price))
		tif := order.TimeInForce
		if tif == "" {
			tif = "GTC"
		}
		params.Set("timeInForce", tif)

	case domain.StopMarket, domain.TakeProfitMarket:
		if order.StopPrice <= 0 {
			return nil, exchange.NewAPIError(exchange.ErrKindInvalidParameter, "트리거 주문에는 트리거 가격이 필요합니다")
		}
		params.Set("stopPrice", formatFloat(order.StopPrice))
		params.Set("workingType", "CONTRACT_PRICE")
		if order.ClosePosition {
			params.Set("closePosition", "true")
		} else {
			if order.Quantity <= 0 {
				return nil, exchange.NewAPIError(exchange.ErrKindInvalidParameter, "트리거 주문에는 수량이 필요합니다")
			}
			params.Set("quantity", formatFloat(order.Quantity))
		}

	default:
		return nil, exchange.NewAPIError(exchange.ErrKindInvalidParameter,
			fmt.Sprintf("지원하지 않는 주문 유형: %s", order.Type))
	}

	// 헤지 모드에서는 positionSide가 청산 방향을 결정하므로 reduceOnly를 함께 쓸 수 없습니다
	if order.ReduceOnly && order.PositionSide == domain.BothPosition {
		params.Set("reduceOnly", "true")
	}

	return params, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CancelOrder는 클라이언트 주문 ID로 주문을 취소합니다
func (c *Client) CancelOrder(ctx context.Context, symbol, clientOrderID string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("origClientOrderId", clientOrderID)

	body, err := c.Call(ctx, http.MethodDelete, "/fapi/v1/order", params, 1, true)
	if err != nil {
		return fmt.Errorf("주문 취소 실패: %w", err)
	}

	var row rawOrder
	if err := json.Unmarshal(body, &row); err != nil {
		return exchange.NewAPIError(exchange.ErrKindParse, "주문 취소 응답 파싱 실패: "+err.Error())
	}
	if row.Status != "CANCELED" {
		return exchange.NewAPIError(exchange.ErrKindDataUnavailable,
			fmt.Sprintf("주문 취소가 확인되지 않았습니다 (상태: %s)", row.Status))
	}
	return nil
}

// CancelAllOrders는 심볼의 모든 미체결 주문을 취소합니다
func (c *Client) CancelAllOrders(ctx context.Context, symbol string) error {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := c.Call(ctx, http.MethodDelete, "/fapi/v1/allOpenOrders", params, 1, true)
	if err != nil {
		return fmt.Errorf("전체 주문 취소 실패: %w", err)
	}

	js, err := simplejson.NewJson(body)
	if err != nil {
		return exchange.NewAPIError(exchange.ErrKindParse, "전체 주문 취소 응답 파싱 실패: "+err.Error())
	}
	if code, _ := js.Get("code").Int64(); code != 200 {
		return exchange.NewAPIError(exchange.ErrKindDataUnavailable, "전체 주문 취소가 확인되지 않았습니다")
	}
	return nil
}

// AutoCancelAllOrders는 카운트다운 이후 모든 주문이 자동 취소되도록 예약합니다.
// countdown이 0이면 기존 예약을 해제합니다.
func (c *Client) AutoCancelAllOrders(ctx context.Context, symbol string, countdown time.Duration) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("countdownTime", strconv.FormatInt(countdown.Milliseconds(), 10))

	body, err := c.Call(ctx, http.MethodPost, "/fapi/v1/countdownCancelAll", params, 10, true)
	if err != nil {
		return fmt.Errorf("자동 취소 예약 실패: %w", err)
	}

	js, err := simplejson.NewJson(body)
	if err != nil {
		return exchange.NewAPIError(exchange.ErrKindParse, "자동 취소 응답 파싱 실패: "+err.Error())
	}
	if echo, _ := js.Get("symbol").String(); echo != symbol {
		return exchange.NewAPIError(exchange.ErrKindDataUnavailable, "자동 취소 예약이 확인되지 않았습니다")
	}
	return nil
}

// SetLeverage는 심볼의 레버리지를 설정합니다
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if leverage < 1 || leverage > 125 {
		return exchange.NewAPIError(exchange.ErrKindInvalidParameter,
			fmt.Sprintf("레버리지 범위를 벗어났습니다: %d", leverage))
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))

	body, err := c.Call(ctx, http.MethodPost, "/fapi/v1/leverage", params, 1, true)
	if err != nil {
		return fmt.Errorf("레버리지 설정 실패: %w", err)
	}

	js, err := simplejson.NewJson(body)
	if err != nil {
		return exchange.NewAPIError(exchange.ErrKindParse, "레버리지 응답 파싱 실패: "+err.Error())
	}
	echoSymbol, _ := js.Get("symbol").String()
	echoLeverage, _ := js.Get("leverage").Int()
	if echoSymbol != symbol || echoLeverage != leverage {
		return exchange.NewAPIError(exchange.ErrKindDataUnavailable, "레버리지 설정이 확인되지 않았습니다")
	}
	return nil
}

// SetMarginType은 심볼의 마진 타입(ISOLATED/CROSSED)을 설정합니다.
// 이미 원하는 타입인 경우(-4046)는 성공으로 처리합니다.
func (c *Client) SetMarginType(ctx context.Context, symbol, marginType string) error {
	if marginType != "ISOLATED" && marginType != "CROSSED" {
		return exchange.NewAPIError(exchange.ErrKindInvalidParameter,
			fmt.Sprintf("지원하지 않는 마진 타입: %s", marginType))
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("marginType", marginType)

	_, err := c.Call(ctx, http.MethodPost, "/fapi/v1/marginType", params, 1, true)
	if err != nil {
		var apiErr *exchange.APIError
		if errors.As(err, &apiErr) && apiErr.Code == exchange.CodeMarginTypeNoChange {
			return nil
		}
		return fmt.Errorf("마진 타입 설정 실패: %w", err)
	}
	return nil
}

// SetPositionMode는 계정의 포지션 모드를 설정합니다.
// 이미 원하는 모드인 경우(-4059)는 성공으로 처리합니다.
func (c *Client) SetPositionMode(ctx context.Context, mode domain.PositionMode) error {
	params := url.Values{}
	if mode == domain.HedgeMode {
		params.Set("dualSidePosition", "true")
	} else {
		params.Set("dualSidePosition", "false")
	}

	_, err := c.Call(ctx, http.MethodPost, "/fapi/v1/positionSide/dual", params, 1, true)
	if err != nil {
		var apiErr *exchange.APIError
		if errors.As(err, &apiErr) && apiErr.Code == exchange.CodePositionModeNoChange {
			return nil
		}
		return fmt.Errorf("포지션 모드 설정 실패: %w", err)
	}
	return nil
}

// StartUserDataStream은 사용자 데이터 스트림 키를 발급받습니다
func (c *Client) StartUserDataStream(ctx context.Context) (string, error) {
	body, err := c.Call(ctx, http.MethodPost, "/fapi/v1/listenKey", nil, 1, true)
	if err != nil {
		return "", fmt.Errorf("리슨 키 발급 실패: %w", err)
	}

	js, err := simplejson.NewJson(body)
	if err != nil {
		return "", exchange.NewAPIError(exchange.ErrKindParse, "리슨 키 응답 파싱 실패: "+err.Error())
	}
	key, _ := js.Get("listenKey").String()
	if key == "" {
		return "", exchange.NewAPIError(exchange.ErrKindDataUnavailable, "리슨 키 필드가 없습니다")
	}
	return key, nil
}

// KeepAliveUserDataStream은 리슨 키의 유효 기간을 연장합니다
func (c *Client) KeepAliveUserDataStream(ctx context.Context) error {
	if _, err := c.Call(ctx, http.MethodPut, "/fapi/v1/listenKey", nil, 1, true); err != nil {
		return fmt.Errorf("리슨 키 연장 실패: %w", err)
	}
	return nil
}

// CloseUserDataStream은 리슨 키를 폐기합니다
func (c *Client) CloseUserDataStream(ctx context.Context) error {
	if _, err := c.Call(ctx, http.MethodDelete, "/fapi/v1/listenKey", nil, 1, true); err != nil {
		return fmt.Errorf("리슨 키 폐기 실패: %w", err)
	}
	return nil
}

// rawOrder는 주문 관련 응답의 원본 형태입니다
type rawOrder struct {
	OrderID       int64  `json:"orderId"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	ClientOrderID string `json:"clientOrderId"`
	Price         string `json:"price"`
	AvgPrice      string `json:"avgPrice"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	Side          string `json:"side"`
	PositionSide  string `json:"positionSide"`
	Type          string `json:"type"`
	UpdateTime    int64  `json:"updateTime"`
}

func (r rawOrder) toDomain() domain.OrderResponse {
	price, _ := strconv.ParseFloat(r.Price, 64)
	avgPrice, _ := strconv.ParseFloat(r.AvgPrice, 64)
	origQty, _ := strconv.ParseFloat(r.OrigQty, 64)
	executedQty, _ := strconv.ParseFloat(r.ExecutedQty, 64)
	return domain.OrderResponse{
		OrderID:          r.OrderID,
		Symbol:           r.Symbol,
		Status:           r.Status,
		ClientOrderID:    r.ClientOrderID,
		Price:            price,
		AvgPrice:         avgPrice,
		OrigQuantity:     origQty,
		ExecutedQuantity: executedQty,
		Side:             domain.OrderSide(r.Side),
		PositionSide:     domain.PositionSide(r.PositionSide),
		Type:             domain.OrderType(r.Type),
		UpdateTime:       time.UnixMilli(r.UpdateTime),
	}
}
