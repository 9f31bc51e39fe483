// internal/account/refresher.go
package account

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/assist-by/falcon/internal/domain"
)

// Reader는 갱신 작업이 필요로 하는 거래소 조회 기능입니다
type Reader interface {
	GetPositions(ctx context.Context) ([]domain.Position, error)
	GetBalances(ctx context.Context) (map[string]domain.Balance, error)
}

// Refresher는 거래소에서 포지션과 잔고 스냅샷을 내려받아 저장소를 갱신하는
// 스케줄러 작업입니다. 주문 쪽 감시 루프는 REST를 직접 때리지 않고 이
// 스냅샷만 읽습니다.
type Refresher struct {
	ex    Reader
	store *Store
	log   *zap.Logger
}

// NewRefresher는 새로운 계정 갱신 작업을 생성합니다
func NewRefresher(ex Reader, store *Store, log *zap.Logger) *Refresher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Refresher{ex: ex, store: store, log: log}
}

// Execute는 scheduler.Task 인터페이스를 구현합니다
func (r *Refresher) Execute(ctx context.Context) error {
	positions, err := r.ex.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("포지션 갱신 실패: %w", err)
	}
	r.store.SetPositions(positions)

	balances, err := r.ex.GetBalances(ctx)
	if err != nil {
		return fmt.Errorf("잔고 갱신 실패: %w", err)
	}
	r.store.SetBalances(balances)

	r.log.Debug("계정 스냅샷 갱신 완료",
		zap.Int("positions", len(positions)),
		zap.Int("balances", len(balances)),
	)
	return nil
}
