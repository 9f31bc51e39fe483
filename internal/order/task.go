// internal/order/task.go
package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assist-by/falcon/internal/domain"
	"github.com/assist-by/falcon/internal/exchange"
)

// BracketRequest는 브래킷 주문 작업의 입력입니다.
// 작업은 이 구조체의 복사본을 소유하므로 호출자가 이후에 값을 바꿔도
// 진행 중인 작업에는 영향이 없습니다.
type BracketRequest struct {
	Symbol          string
	Side            domain.PositionSide // LONG 또는 SHORT
	Mode            domain.PositionMode
	Quantity        float64
	TakeProfitPrice float64
	StopLossPrice   float64

	// 만료 조건: 상대 시간(진입 시각 기준) 또는 절대 시각
	Expiration            time.Duration
	AbsoluteExpiration    time.Time
	UseAbsoluteExpiration bool

	Callback StatusCallback
}

// positionSide는 포지션 모드에 따라 주문에 실을 포지션 방향을 반환합니다
func (r BracketRequest) positionSide() domain.PositionSide {
	if r.Mode == domain.HedgeMode {
		return r.Side
	}
	return domain.BothPosition
}

// Task는 하나의 브래킷 주문 작업 핸들입니다.
// 호출자는 Done 채널이나 Wait로 완료를 기다리고 최종 결과를 조회할 수 있습니다.
type Task struct {
	req     BracketRequest
	created time.Time
	notify  StatusCallback // 오케스트레이터 공통 콜백

	mu       sync.Mutex
	finished bool
	result   Event

	done chan struct{}
}

func newTask(req BracketRequest, now time.Time) *Task {
	return &Task{
		req:     req,
		created: now,
		done:    make(chan struct{}),
	}
}

// Symbol은 작업 대상 심볼을 반환합니다
func (t *Task) Symbol() string {
	return t.req.Symbol
}

// Done은 작업이 끝나면 닫히는 채널을 반환합니다
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Finished는 작업이 끝났는지 여부를 반환합니다
func (t *Task) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

// Result는 최종 이벤트를 반환합니다. 아직 진행 중이면 false를 반환합니다.
func (t *Task) Result() (Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.finished
}

// Wait는 작업 완료 또는 ctx 취소까지 대기합니다
func (t *Task) Wait(ctx context.Context) (Event, error) {
	select {
	case <-t.done:
		result, _ := t.Result()
		return result, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// emit은 중간 상태 이벤트를 콜백으로 전달합니다
func (t *Task) emit(event Event) {
	if t.notify != nil {
		t.notify(event)
	}
	if t.req.Callback != nil {
		t.req.Callback(event)
	}
}

// finish는 최종 이벤트를 기록하고 Done 채널을 닫습니다
func (t *Task) finish(event Event) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	t.result = event
	t.mu.Unlock()

	t.emit(event)
	close(t.done)
}

// run은 브래킷 주문 작업의 전체 흐름입니다:
// 기존 포지션 정리 → 진입 → 보호 주문 2건 → 종료 감시.
func (o *Orchestrator) run(t *Task) {
	ctx := context.Background()
	req := t.req
	posSide := req.positionSide()
	log := o.log.With(
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
	)

	// 1단계: 기존 포지션과 잔여 주문 정리
	if err := o.Flatten(ctx, req.Symbol); err != nil {
		log.Error("기존 포지션 정리 실패", zap.Error(err))
		t.finish(Event{
			Symbol:     req.Symbol,
			Status:     StatusFailedBeforeOpen,
			Timestamp:  o.clock.ServerTime(),
			Diagnostic: &Diagnostic{Step: "flatten", Err: err},
		})
		return
	}

	// 2단계: 진입 주문
	entryResp, err := o.api.PlaceOrder(ctx, domain.OrderRequest{
		Symbol:        req.Symbol,
		Side:          req.Side.EntrySide(),
		PositionSide:  posSide,
		Type:          domain.Market,
		Quantity:      req.Quantity,
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		log.Error("진입 주문 실패", zap.Error(err))
		t.finish(Event{
			Symbol:     req.Symbol,
			Status:     StatusFailedBeforeOpen,
			Timestamp:  o.clock.ServerTime(),
			Diagnostic: &Diagnostic{Step: "entry", Err: err},
		})
		return
	}

	entryTime := entryResp.UpdateTime
	if entryTime.IsZero() {
		entryTime = o.clock.ServerTime()
	}
	log.Info("진입 주문 접수", zap.Time("entryTime", entryTime))
	t.emit(Event{Symbol: req.Symbol, Status: StatusOpened, Timestamp: entryTime})

	// 3단계: 보호 주문 2건. 한쪽이 실패해도 다른 쪽 결과까지 확인합니다.
	exitSide := req.Side.ExitSide()
	_, tpErr := o.api.PlaceOrder(ctx, protectiveOrder(req, exitSide, posSide, domain.TakeProfitMarket, req.TakeProfitPrice))
	_, slErr := o.api.PlaceOrder(ctx, protectiveOrder(req, exitSide, posSide, domain.StopMarket, req.StopLossPrice))

	if tpErr != nil || slErr != nil {
		diag := protectiveDiagnostic(tpErr, slErr)
		log.Error("보호 주문 실패, 진입 되돌리기 시작",
			zap.String("step", diag.Step),
			zap.Bool("wouldTrigger", exchange.IsWouldTrigger(diag.Err)),
			zap.Error(diag.Err),
		)

		if err := o.forceFlatten(ctx, req, posSide, log); err != nil {
			log.Error("강제 청산 재시도 소진", zap.Error(err))
		}
		if err := o.api.CancelAllOrders(ctx, req.Symbol); err != nil {
			log.Warn("잔여 주문 취소 실패", zap.Error(err))
		}
		t.finish(Event{
			Symbol:     req.Symbol,
			Status:     StatusClosedPrematurely,
			Timestamp:  o.clock.ServerTime(),
			Diagnostic: diag,
		})
		return
	}

	// 4단계: 포지션 종료 감시
	o.watch(ctx, t, posSide, entryTime, log)
}

// watch는 보호 주문 체결, 만료, 전역 종료 중 하나가 발생할 때까지
// 포지션 스냅샷을 짧은 간격으로 확인합니다.
func (o *Orchestrator) watch(ctx context.Context, t *Task, posSide domain.PositionSide, entryTime time.Time, log *zap.Logger) {
	req := t.req
	deadline := entryTime.Add(req.Expiration)
	if req.UseAbsoluteExpiration {
		deadline = req.AbsoluteExpiration
	}

	// 포지션 스냅샷은 주기적으로만 갱신되므로 진입 직후에는 아직
	// 비어 있을 수 있습니다. 포지션이 한 번이라도 관측된 뒤의 청산만
	// 보호 주문 체결로 간주합니다.
	observed := false

	for {
		pos, ok := o.feed.GetPosition(req.Symbol, posSide)
		flat := !ok || pos.Quantity == 0
		if !flat {
			observed = true
		}
		if flat && observed {
			// 보호 주문 중 하나가 체결됨: 남아 있는 쪽을 취소합니다
			if err := o.api.CancelAllOrders(ctx, req.Symbol); err != nil {
				log.Warn("잔여 보호 주문 취소 실패", zap.Error(err))
			}
			log.Info("보호 주문 체결로 포지션 종료")
			t.finish(Event{Symbol: req.Symbol, Status: StatusClosedByTrigger, Timestamp: o.clock.ServerTime()})
			return
		}

		expired := !o.clock.ServerTime().Before(deadline)
		shuttingDown := false
		select {
		case <-o.shutdown:
			shuttingDown = true
		default:
		}

		if expired || shuttingDown {
			if err := o.forceFlatten(ctx, req, posSide, log); err != nil {
				log.Error("만료 청산 재시도 소진", zap.Error(err))
			}
			if err := o.api.CancelAllOrders(ctx, req.Symbol); err != nil {
				log.Warn("잔여 주문 취소 실패", zap.Error(err))
			}
			log.Info("만료로 포지션 강제 종료", zap.Bool("shutdown", shuttingDown))
			t.finish(Event{Symbol: req.Symbol, Status: StatusClosedByExpiration, Timestamp: o.clock.ServerTime()})
			return
		}

		time.Sleep(o.pollInterval)
	}
}

// forceFlatten은 제한된 횟수만큼 반대 방향 시장가 주문을 재시도합니다.
// 포지션 스냅샷이 아직 갱신 전이면 요청 수량을 기준으로 청산합니다.
func (o *Orchestrator) forceFlatten(ctx context.Context, req BracketRequest, posSide domain.PositionSide, log *zap.Logger) error {
	quantity := req.Quantity
	if posSide == domain.BothPosition && req.Side == domain.ShortPosition {
		quantity = -quantity
	}
	if pos, ok := o.feed.GetPosition(req.Symbol, posSide); ok && pos.Quantity != 0 {
		quantity = pos.Quantity
	}

	var lastErr error
	for attempt := 1; attempt <= o.flattenRetries; attempt++ {
		err := o.placeExitOrder(ctx, req.Symbol, posSide, quantity)
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("강제 청산 주문 실패",
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", o.flattenRetries),
			zap.Error(err),
		)
		if attempt < o.flattenRetries {
			time.Sleep(o.flattenRetryDelay)
		}
	}
	return fmt.Errorf("강제 청산이 %d회 모두 실패했습니다: %w", o.flattenRetries, lastErr)
}

// protectiveOrder는 보호 주문(이익 실현/손절) 요청을 만듭니다
func protectiveOrder(req BracketRequest, side domain.OrderSide, posSide domain.PositionSide, orderType domain.OrderType, triggerPrice float64) domain.OrderRequest {
	out := domain.OrderRequest{
		Symbol:        req.Symbol,
		Side:          side,
		PositionSide:  posSide,
		Type:          orderType,
		Quantity:      req.Quantity,
		StopPrice:     triggerPrice,
		ClientOrderID: uuid.NewString(),
	}
	// 단방향 모드에서만 reduceOnly 플래그가 허용됩니다
	if posSide == domain.BothPosition {
		out.ReduceOnly = true
	}
	return out
}

// protectiveDiagnostic은 실패한 보호 주문 단계를 식별합니다
func protectiveDiagnostic(tpErr, slErr error) *Diagnostic {
	switch {
	case tpErr != nil && slErr != nil:
		return &Diagnostic{Step: "protective_legs", Err: errors.Join(tpErr, slErr)}
	case tpErr != nil:
		return &Diagnostic{Step: "take_profit", Err: tpErr}
	default:
		return &Diagnostic{Step: "stop_loss", Err: slErr}
	}
}
