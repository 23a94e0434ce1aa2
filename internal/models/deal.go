package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статусы сделки
const (
	DealStatusOpen       = "open"
	DealStatusInProgress = "in_progress"
	DealStatusDisputed   = "disputed"
	DealStatusCompleted  = "completed"
	DealStatusCancelled  = "cancelled"
)

// Шаги сделки внутри статуса in_progress: чей сейчас ход.
const (
	DealStepSellerSending   = "seller_sending"
	DealStepBuyerConfirming = "buyer_confirming"
)

// ValidDealStatuses список валидных статусов сделок
var ValidDealStatuses = map[string]struct{}{
	DealStatusOpen:       {},
	DealStatusInProgress: {},
	DealStatusDisputed:   {},
	DealStatusCompleted:  {},
	DealStatusCancelled:  {},
}

// Deal описывает P2P сделку под защитой эскроу.
// Цена и ставка комиссии фиксируются при создании и больше не меняются.
type Deal struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	SellerID        uuid.UUID       `db:"seller_id" json:"seller_id"`
	BuyerID         *uuid.UUID      `db:"buyer_id" json:"buyer_id,omitempty"`
	Title           string          `db:"title" json:"title"`
	Description     string          `db:"description" json:"description"`
	Price           decimal.Decimal `db:"price" json:"price"`
	CommissionRate  decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	Status          string          `db:"status" json:"status"`
	Step            *string         `db:"step" json:"step,omitempty"`
	DisputeReason   *string         `db:"dispute_reason" json:"dispute_reason,omitempty"`
	DisputeOpenedBy *uuid.UUID      `db:"dispute_opened_by" json:"dispute_opened_by,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
	CompletedAt     *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	Version         int64           `db:"version" json:"version"`
}

// IsTerminal сообщает, достигла ли сделка конечного состояния.
// Завершённые и отменённые сделки доступны только для чтения.
func (d *Deal) IsTerminal() bool {
	return d.Status == DealStatusCompleted || d.Status == DealStatusCancelled
}

// StepIs сравнивает текущий шаг сделки с ожидаемым.
func (d *Deal) StepIs(step string) bool {
	return d.Step != nil && *d.Step == step
}

// IsParticipant проверяет, что пользователь — сторона сделки.
func (d *Deal) IsParticipant(userID uuid.UUID) bool {
	if d.SellerID == userID {
		return true
	}
	return d.BuyerID != nil && *d.BuyerID == userID
}
