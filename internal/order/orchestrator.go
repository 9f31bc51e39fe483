// internal/order/orchestrator.go
package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/assist-by/falcon/internal/domain"
)

const (
	defaultFlattenRetries    = 10
	defaultFlattenRetryDelay = time.Second
	defaultPollInterval      = 10 * time.Millisecond
)

// OrderAPI는 오케스트레이터가 필요로 하는 거래소 주문 기능입니다
type OrderAPI interface {
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)
	CancelAllOrders(ctx context.Context, symbol string) error
}

// PositionFeed는 외부에서 갱신되는 포지션 스냅샷의 읽기 전용 창구입니다
type PositionFeed interface {
	GetPosition(symbol string, side domain.PositionSide) (domain.Position, bool)
}

// Clock은 거래소 기준 현재 시각을 제공합니다
type Clock interface {
	ServerTime() time.Time
}

// Orchestrator는 브래킷 주문(진입 + 이익 실현 + 손절)을 실행하고
// 종료까지 추적합니다. 심볼별로 동시에 하나의 작업만 허용합니다.
type Orchestrator struct {
	api   OrderAPI
	feed  PositionFeed
	clock Clock
	log   *zap.Logger

	flattenRetries    int
	flattenRetryDelay time.Duration
	pollInterval      time.Duration
	statusCallback    StatusCallback

	mu     sync.Mutex
	active map[string]*Task

	wg       conc.WaitGroup
	shutdown chan struct{}
	stopOnce sync.Once
}

// Option은 Orchestrator 생성 옵션입니다
type Option func(*Orchestrator)

// WithFlattenRetries는 강제 청산의 최대 재시도 횟수를 설정합니다
func WithFlattenRetries(retries int) Option {
	return func(o *Orchestrator) {
		if retries > 0 {
			o.flattenRetries = retries
		}
	}
}

// WithFlattenRetryDelay는 강제 청산 재시도 간격을 설정합니다
func WithFlattenRetryDelay(delay time.Duration) Option {
	return func(o *Orchestrator) {
		if delay > 0 {
			o.flattenRetryDelay = delay
		}
	}
}

// WithPollInterval은 포지션 감시 루프의 확인 간격을 설정합니다
func WithPollInterval(interval time.Duration) Option {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

// WithStatusCallback은 모든 작업의 상태 변화를 수신하는 기본 콜백을 설정합니다.
// 요청별 콜백이 있으면 둘 다 호출됩니다.
func WithStatusCallback(cb StatusCallback) Option {
	return func(o *Orchestrator) {
		o.statusCallback = cb
	}
}

// WithOrchestratorLogger는 로거를 설정합니다
func WithOrchestratorLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// NewOrchestrator는 새로운 브래킷 주문 오케스트레이터를 생성합니다
func NewOrchestrator(api OrderAPI, feed PositionFeed, clock Clock, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:               api,
		feed:              feed,
		clock:             clock,
		log:               zap.NewNop(),
		flattenRetries:    defaultFlattenRetries,
		flattenRetryDelay: defaultFlattenRetryDelay,
		pollInterval:      defaultPollInterval,
		active:            make(map[string]*Task),
		shutdown:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OpenBracket은 브래킷 주문 작업을 시작합니다.
// 검증은 동기적으로 수행하고, 실제 주문 흐름은 작업 고루틴에서 진행됩니다.
// 같은 심볼의 작업이 이미 진행 중이면 시작하지 않습니다.
func (o *Orchestrator) OpenBracket(req BracketRequest) (*Task, error) {
	if err := o.validate(req); err != nil {
		return nil, err
	}

	task := newTask(req, o.clock.ServerTime())
	task.notify = o.statusCallback

	o.mu.Lock()
	select {
	case <-o.shutdown:
		o.mu.Unlock()
		return nil, errors.New("오케스트레이터가 종료 중입니다")
	default:
	}
	if existing, ok := o.active[req.Symbol]; ok && !existing.Finished() {
		o.mu.Unlock()
		return nil, fmt.Errorf("심볼 %s의 브래킷 작업이 이미 진행 중입니다", req.Symbol)
	}
	o.active[req.Symbol] = task
	o.mu.Unlock()

	o.wg.Go(func() {
		defer o.release(req.Symbol, task)
		o.run(task)
	})
	return task, nil
}

// validate는 작업 시작 전에 동기적으로 요청을 검증합니다
func (o *Orchestrator) validate(req BracketRequest) error {
	if o.api == nil || o.feed == nil || o.clock == nil {
		return errors.New("오케스트레이터 의존성이 초기화되지 않았습니다")
	}
	if req.Symbol == "" {
		return errors.New("심볼이 비어 있습니다")
	}
	if req.Side != domain.LongPosition && req.Side != domain.ShortPosition {
		return fmt.Errorf("포지션 방향은 LONG 또는 SHORT여야 합니다: %q", req.Side)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("수량은 0보다 커야 합니다: %f", req.Quantity)
	}
	if req.TakeProfitPrice <= 0 || req.StopLossPrice <= 0 {
		return errors.New("이익 실현가와 손절가가 모두 필요합니다")
	}
	if !req.UseAbsoluteExpiration && req.Expiration <= 0 {
		return errors.New("만료 시간이 필요합니다")
	}
	if req.UseAbsoluteExpiration && req.AbsoluteExpiration.IsZero() {
		return errors.New("절대 만료 시각이 필요합니다")
	}
	return nil
}

// release는 종료된 작업을 활성 목록에서 제거합니다
func (o *Orchestrator) release(symbol string, task *Task) {
	o.mu.Lock()
	if o.active[symbol] == task {
		delete(o.active, symbol)
	}
	o.mu.Unlock()
}

// ActiveTask는 심볼의 진행 중인 작업을 반환합니다
func (o *Orchestrator) ActiveTask(symbol string) (*Task, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	task, ok := o.active[symbol]
	if !ok || task.Finished() {
		return nil, false
	}
	return task, true
}

// Shutdown은 전역 종료를 알리고 모든 작업이 끝날 때까지 기다립니다.
// 진행 중인 작업들은 만료와 동일하게 취급되어 강제 청산 경로를 밟습니다.
func (o *Orchestrator) Shutdown() {
	o.stopOnce.Do(func() {
		close(o.shutdown)
	})
	o.wg.Wait()
}

// Flatten은 심볼의 포지션을 정리하고 남은 주문을 모두 취소합니다.
// 청산 주문 실패가 취소 실패보다 우선하여 반환됩니다.
func (o *Orchestrator) Flatten(ctx context.Context, symbol string) error {
	closeErr := o.closePositions(ctx, symbol)
	cancelErr := o.api.CancelAllOrders(ctx, symbol)
	if closeErr != nil {
		return closeErr
	}
	return cancelErr
}

// closePositions는 심볼의 모든 방향 포지션에 반대 방향 시장가 주문을 냅니다
func (o *Orchestrator) closePositions(ctx context.Context, symbol string) error {
	var errs []error
	for _, side := range []domain.PositionSide{domain.LongPosition, domain.ShortPosition, domain.BothPosition} {
		pos, ok := o.feed.GetPosition(symbol, side)
		if !ok || pos.Quantity == 0 {
			continue
		}
		if err := o.placeExitOrder(ctx, symbol, side, pos.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("%s 포지션 청산 실패: %w", side, err))
		}
	}
	return errors.Join(errs...)
}

// placeExitOrder는 기존 포지션을 없애는 반대 방향 시장가 주문을 냅니다
func (o *Orchestrator) placeExitOrder(ctx context.Context, symbol string, side domain.PositionSide, quantity float64) error {
	exitSide := side.ExitSide()
	if side == domain.BothPosition {
		// 단방향 모드에서는 수량 부호가 방향을 나타냅니다
		if quantity > 0 {
			exitSide = domain.Sell
		} else {
			exitSide = domain.Buy
		}
	}

	req := domain.OrderRequest{
		Symbol:       symbol,
		Side:         exitSide,
		PositionSide: side,
		Type:         domain.Market,
		Quantity:     abs(quantity),
	}
	if side == domain.BothPosition {
		req.ReduceOnly = true
	}

	_, err := o.api.PlaceOrder(ctx, req)
	return err
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
