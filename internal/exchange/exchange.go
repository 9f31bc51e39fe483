// internal/exchange/exchange.go
package exchange

import (
	"context"
	"time"

	"github.com/assist-by/falcon/internal/domain"
)

// Exchange는 거래소와의 상호작용을 위한 인터페이스입니다.
type Exchange interface {
	// 연결 상태/시간 동기화
	Ping(ctx context.Context) error
	SyncTime(ctx context.Context) error

	// 시장 데이터 조회
	RefreshExchangeInfo(ctx context.Context) error
	GetSymbolInfo(ctx context.Context, symbol string) (*domain.SymbolInfo, error)
	GetKlines(ctx context.Context, symbol string, interval domain.TimeInterval, limit int) (domain.CandleList, error)
	GetKlinesRange(ctx context.Context, symbol string, interval domain.TimeInterval, start, end time.Time, limit int) (domain.CandleList, error)

	// 계정 데이터 조회
	GetBalances(ctx context.Context) (map[string]domain.Balance, error)
	GetPositions(ctx context.Context) ([]domain.Position, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]domain.OrderResponse, error)

	// 거래 기능
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)
	CancelOrder(ctx context.Context, symbol, clientOrderID string) error
	CancelAllOrders(ctx context.Context, symbol string) error
	AutoCancelAllOrders(ctx context.Context, symbol string, countdown time.Duration) error

	// 설정 기능
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	SetMarginType(ctx context.Context, symbol, marginType string) error
	SetPositionMode(ctx context.Context, mode domain.PositionMode) error

	// 사용자 데이터 스트림 키 관리
	StartUserDataStream(ctx context.Context) (string, error)
	KeepAliveUserDataStream(ctx context.Context) error
	CloseUserDataStream(ctx context.Context) error
}
