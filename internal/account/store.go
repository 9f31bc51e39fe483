// internal/account/store.go
package account

import (
	"sync"
	"time"

	"github.com/assist-by/falcon/internal/domain"
)

// positionKey는 포지션을 식별하는 (심볼, 방향) 쌍입니다
type positionKey struct {
	symbol string
	side   domain.PositionSide
}

// Store는 계정의 포지션과 잔고 스냅샷을 보관합니다.
// 갱신 태스크가 주기적으로 채우고, 주문 쪽에서는 잠금 없이 기다리지 않고
// 조회만 합니다.
type Store struct {
	mu        sync.RWMutex
	positions map[positionKey]domain.Position
	balances  map[string]domain.Balance
	updatedAt time.Time
}

// NewStore는 새로운 계정 저장소를 생성합니다
func NewStore() *Store {
	return &Store{
		positions: make(map[positionKey]domain.Position),
		balances:  make(map[string]domain.Balance),
	}
}

// SetPositions는 포지션 스냅샷 전체를 교체합니다
func (s *Store) SetPositions(positions []domain.Position) {
	next := make(map[positionKey]domain.Position, len(positions))
	for _, p := range positions {
		next[positionKey{symbol: p.Symbol, side: p.PositionSide}] = p
	}

	s.mu.Lock()
	s.positions = next
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// SetBalances는 잔고 스냅샷 전체를 교체합니다
func (s *Store) SetBalances(balances map[string]domain.Balance) {
	next := make(map[string]domain.Balance, len(balances))
	for asset, b := range balances {
		next[asset] = b
	}

	s.mu.Lock()
	s.balances = next
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// GetPosition은 (심볼, 방향)의 포지션을 반환합니다.
// 스냅샷에 없으면 수량 0인 포지션으로 간주합니다.
func (s *Store) GetPosition(symbol string, side domain.PositionSide) (domain.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[positionKey{symbol: symbol, side: side}]
	return p, ok
}

// HasOpenPosition은 해당 심볼에 수량이 0이 아닌 포지션이 있는지 확인합니다
func (s *Store) HasOpenPosition(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, p := range s.positions {
		if key.symbol == symbol && p.Quantity != 0 {
			return true
		}
	}
	return false
}

// Positions는 현재 스냅샷의 모든 포지션을 반환합니다
func (s *Store) Positions() []domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	return out
}

// GetBalance는 자산의 잔고를 반환합니다
func (s *Store) GetBalance(asset string) (domain.Balance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.balances[asset]
	return b, ok
}

// UpdatedAt은 마지막 스냅샷 갱신 시각을 반환합니다
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
