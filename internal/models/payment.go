package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статусы резерва средств. Резерв терминален: released или refunded
// выставляются ровно один раз, повторный перевод невозможен.
const (
	HoldStatusHeld     = "held"
	HoldStatusReleased = "released"
	HoldStatusRefunded = "refunded"
)

// Типы транзакций кошелька
const (
	TransactionTypeDeposit = "deposit"
	TransactionTypeHold    = "hold"
	TransactionTypeRelease = "release"
	TransactionTypeRefund  = "refund"
	TransactionTypeFee     = "fee"
)

// Статусы транзакций
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// UserBalance представляет баланс пользователя в леджере.
// Available — свободные средства, Frozen — зарезервированные под сделки.
type UserBalance struct {
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Available decimal.Decimal `db:"available" json:"available"`
	Frozen    decimal.Decimal `db:"frozen" json:"frozen"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Hold представляет резерв средств покупателя под конкретную сделку.
// DealID уникален: на сделку существует не более одного резерва, и он же
// служит ключом идемпотентности для Reserve/Release/Refund.
type Hold struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	DealID     uuid.UUID       `db:"deal_id" json:"deal_id"`
	BuyerID    uuid.UUID       `db:"buyer_id" json:"buyer_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Status     string          `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	ReleasedAt *time.Time      `db:"released_at" json:"released_at,omitempty"`
}

// IsTerminal сообщает, была ли судьба резерва уже решена.
func (h *Hold) IsTerminal() bool {
	return h.Status == HoldStatusReleased || h.Status == HoldStatusRefunded
}

// Transaction представляет запись журнала движений средств.
type Transaction struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	DealID      *uuid.UUID      `db:"deal_id" json:"deal_id,omitempty"`
	Type        string          `db:"type" json:"type"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      string          `db:"status" json:"status"`
	Description *string         `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}
