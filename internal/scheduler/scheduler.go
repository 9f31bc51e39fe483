// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc는 함수를 Task로 사용할 수 있게 합니다
type TaskFunc func(ctx context.Context) error

// Execute는 Task 인터페이스를 구현합니다
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Scheduler는 간격 경계에 맞춰 작업을 반복 실행합니다.
// 예를 들어 간격이 1분이면 매분 정각에 실행됩니다.
type Scheduler struct {
	name     string
	interval time.Duration
	task     Task
	log      *zap.Logger
	stopCh   chan struct{}
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(name string, interval time.Duration, task Task, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		task:     task,
		log:      log.With(zap.String("task", name)),
		stopCh:   make(chan struct{}),
	}
}

// Start는 스케줄러를 시작합니다. ctx가 취소되거나 Stop이 호출될 때까지 반환하지 않습니다.
func (s *Scheduler) Start(ctx context.Context) error {
	now := time.Now()
	nextRun := now.Truncate(s.interval).Add(s.interval)

	s.log.Debug("스케줄러 시작",
		zap.Duration("interval", s.interval),
		zap.Time("nextRun", nextRun),
	)

	timer := time.NewTimer(nextRun.Sub(now))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.stopCh:
			return nil

		case <-timer.C:
			// 에러가 발생해도 다음 주기에 계속 실행합니다
			if err := s.task.Execute(ctx); err != nil {
				s.log.Warn("작업 실행 실패", zap.Error(err))
			}

			now := time.Now()
			nextRun = now.Truncate(s.interval).Add(s.interval)
			timer.Reset(nextRun.Sub(now))
		}
	}
}

// Stop은 스케줄러를 중지합니다
func (s *Scheduler) Stop() {
	close(s.stopCh)
}
