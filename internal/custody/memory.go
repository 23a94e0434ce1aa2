package custody

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeclub/escrow-backend/internal/models"
)

// Ошибки кастодиального адаптера. Общие для всех реализаций леджера.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrHoldNotFound      = errors.New("hold not found")
	// ErrAlreadySettled возвращается при повторном Release/Refund: резерв
	// терминален, второго движения средств не происходит.
	ErrAlreadySettled = errors.New("hold already settled")
)

// MemoryLedger — леджер в памяти. Используется в тестах движка и в
// development-режиме без отдельной базы кошельков. Контракт идентичен
// SQL-реализации: Reserve идемпотентен по deal_id, Release/Refund
// терминальны и выполняются ровно один раз.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]*models.UserBalance
	holds    map[uuid.UUID]*models.Hold
	journal  []models.Transaction

	reserveCalls int
	releaseCalls int
	refundCalls  int
}

// NewMemoryLedger создаёт пустой леджер.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[uuid.UUID]*models.UserBalance),
		holds:    make(map[uuid.UUID]*models.Hold),
	}
}

// Deposit пополняет баланс пользователя.
func (l *MemoryLedger) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.balance(userID)
	b.Available = b.Available.Add(amount)
	b.UpdatedAt = time.Now()
	l.record(userID, nil, models.TransactionTypeDeposit, amount)
	return nil
}

// GetBalance возвращает баланс пользователя.
func (l *MemoryLedger) GetBalance(ctx context.Context, userID uuid.UUID) (*models.UserBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.balance(userID)
	copied := *b
	return &copied, nil
}

// ListTransactions возвращает движения по счёту пользователя, новые первыми.
func (l *MemoryLedger) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.Transaction
	for i := len(l.journal) - 1; i >= 0; i-- {
		if l.journal[i].UserID == userID {
			out = append(out, l.journal[i])
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Reserve замораживает средства покупателя под сделку. Атомарно с проверкой
// баланса: овердрафт невозможен и при конкурентных резервах одного
// пользователя. Повторный вызов с тем же deal_id возвращает существующий
// резерв без второй заморозки.
func (l *MemoryLedger) Reserve(ctx context.Context, dealID, buyerID uuid.UUID, amount decimal.Decimal) (*models.Hold, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.reserveCalls++

	if h, ok := l.holds[dealID]; ok {
		if h.Status == models.HoldStatusHeld && h.BuyerID == buyerID {
			copied := *h
			return &copied, nil
		}
		return nil, ErrAlreadySettled
	}

	b := l.balance(buyerID)
	if b.Available.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	b.Available = b.Available.Sub(amount)
	b.Frozen = b.Frozen.Add(amount)
	b.UpdatedAt = time.Now()

	h := &models.Hold{
		ID:        uuid.New(),
		DealID:    dealID,
		BuyerID:   buyerID,
		Amount:    amount,
		Status:    models.HoldStatusHeld,
		CreatedAt: time.Now(),
	}
	l.holds[dealID] = h
	l.record(buyerID, &dealID, models.TransactionTypeHold, amount)

	copied := *h
	return &copied, nil
}

// Release переводит резерв продавцу за вычетом комиссии площадки одним
// атомарным движением. Повторный вызов по решённому резерву — безопасный
// no-op с ErrAlreadySettled.
func (l *MemoryLedger) Release(ctx context.Context, dealID, sellerID uuid.UUID, net decimal.Decimal, feeAccount uuid.UUID, fee decimal.Decimal) (*models.Hold, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.releaseCalls++

	h, ok := l.holds[dealID]
	if !ok {
		return nil, ErrHoldNotFound
	}
	if h.Status != models.HoldStatusHeld {
		return nil, ErrAlreadySettled
	}

	buyer := l.balance(h.BuyerID)
	buyer.Frozen = buyer.Frozen.Sub(h.Amount)
	buyer.UpdatedAt = time.Now()

	seller := l.balance(sellerID)
	seller.Available = seller.Available.Add(net)
	seller.UpdatedAt = time.Now()

	platform := l.balance(feeAccount)
	platform.Available = platform.Available.Add(fee)
	platform.UpdatedAt = time.Now()

	now := time.Now()
	h.Status = models.HoldStatusReleased
	h.ReleasedAt = &now
	l.record(sellerID, &dealID, models.TransactionTypeRelease, net)
	l.record(feeAccount, &dealID, models.TransactionTypeFee, fee)

	copied := *h
	return &copied, nil
}

// Refund возвращает резерв покупателю целиком. Комиссия при возврате не
// взимается. Терминален так же, как Release.
func (l *MemoryLedger) Refund(ctx context.Context, dealID uuid.UUID) (*models.Hold, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refundCalls++

	h, ok := l.holds[dealID]
	if !ok {
		return nil, ErrHoldNotFound
	}
	if h.Status != models.HoldStatusHeld {
		return nil, ErrAlreadySettled
	}

	buyer := l.balance(h.BuyerID)
	buyer.Frozen = buyer.Frozen.Sub(h.Amount)
	buyer.Available = buyer.Available.Add(h.Amount)
	buyer.UpdatedAt = time.Now()

	now := time.Now()
	h.Status = models.HoldStatusRefunded
	h.ReleasedAt = &now
	l.record(h.BuyerID, &dealID, models.TransactionTypeRefund, h.Amount)

	copied := *h
	return &copied, nil
}

// GetHold возвращает резерв по сделке.
func (l *MemoryLedger) GetHold(ctx context.Context, dealID uuid.UUID) (*models.Hold, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holds[dealID]
	if !ok {
		return nil, ErrHoldNotFound
	}
	copied := *h
	return &copied, nil
}

// ReserveCalls возвращает число вызовов Reserve (для проверок в тестах).
func (l *MemoryLedger) ReserveCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserveCalls
}

// ReleaseCalls возвращает число вызовов Release.
func (l *MemoryLedger) ReleaseCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.releaseCalls
}

// RefundCalls возвращает число вызовов Refund.
func (l *MemoryLedger) RefundCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refundCalls
}

func (l *MemoryLedger) balance(userID uuid.UUID) *models.UserBalance {
	b, ok := l.balances[userID]
	if !ok {
		b = &models.UserBalance{
			UserID:    userID,
			Available: decimal.Zero,
			Frozen:    decimal.Zero,
			UpdatedAt: time.Now(),
		}
		l.balances[userID] = b
	}
	return b
}

func (l *MemoryLedger) record(userID uuid.UUID, dealID *uuid.UUID, txType string, amount decimal.Decimal) {
	now := time.Now()
	l.journal = append(l.journal, models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		DealID:      dealID,
		Type:        txType,
		Amount:      amount,
		Status:      models.TransactionStatusCompleted,
		CreatedAt:   now,
		CompletedAt: &now,
	})
}
