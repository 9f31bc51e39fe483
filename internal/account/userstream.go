// internal/account/userstream.go
package account

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// StreamKeyAPI는 리슨 키 수명 관리에 필요한 거래소 기능입니다
type StreamKeyAPI interface {
	StartUserDataStream(ctx context.Context) (string, error)
	KeepAliveUserDataStream(ctx context.Context) error
	CloseUserDataStream(ctx context.Context) error
}

// UserStream은 사용자 데이터 스트림의 리슨 키 수명을 관리합니다.
// 리슨 키는 60분 뒤 만료되므로 주기적으로 연장해야 합니다.
type UserStream struct {
	ex  StreamKeyAPI
	log *zap.Logger

	mu        sync.Mutex
	listenKey string
}

// NewUserStream은 새로운 리슨 키 관리자를 생성합니다
func NewUserStream(ex StreamKeyAPI, log *zap.Logger) *UserStream {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserStream{ex: ex, log: log}
}

// Start는 리슨 키를 발급받습니다
func (us *UserStream) Start(ctx context.Context) error {
	key, err := us.ex.StartUserDataStream(ctx)
	if err != nil {
		return fmt.Errorf("사용자 데이터 스트림 시작 실패: %w", err)
	}

	us.mu.Lock()
	us.listenKey = key
	us.mu.Unlock()

	us.log.Info("사용자 데이터 스트림 시작")
	return nil
}

// ListenKey는 현재 리슨 키를 반환합니다
func (us *UserStream) ListenKey() string {
	us.mu.Lock()
	defer us.mu.Unlock()
	return us.listenKey
}

// Execute는 scheduler.Task 인터페이스를 구현합니다.
// 리슨 키가 만료된 경우에는 새로 발급받습니다.
func (us *UserStream) Execute(ctx context.Context) error {
	if us.ListenKey() == "" {
		return us.Start(ctx)
	}
	if err := us.ex.KeepAliveUserDataStream(ctx); err != nil {
		us.log.Warn("리슨 키 연장 실패, 재발급 시도", zap.Error(err))
		return us.Start(ctx)
	}
	return nil
}

// Close는 리슨 키를 폐기합니다
func (us *UserStream) Close(ctx context.Context) error {
	if us.ListenKey() == "" {
		return nil
	}
	if err := us.ex.CloseUserDataStream(ctx); err != nil {
		return fmt.Errorf("사용자 데이터 스트림 종료 실패: %w", err)
	}

	us.mu.Lock()
	us.listenKey = ""
	us.mu.Unlock()
	return nil
}
