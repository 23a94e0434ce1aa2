package dto

import (
	"github.com/shopspring/decimal"
)

// Действия, принимаемые диспетчером POST /api/escrow. Синонимы
// (buyer_pay/join_deal, seller_sent/seller_confirm) достались от двух
// поколений клиентов и обязаны работать одинаково.
const (
	ActionCreateDeal    = "create_deal"
	ActionBuyerPay      = "buyer_pay"
	ActionJoinDeal      = "join_deal"
	ActionSellerSent    = "seller_sent"
	ActionSellerConfirm = "seller_confirm"
	ActionBuyerConfirm  = "buyer_confirm"
	ActionOpenDispute   = "open_dispute"
	ActionSendMessage   = "send_message"
	ActionCancelDeal    = "cancel_deal"
)

// EscrowActionRequest represents a dispatched escrow action.
// Only the fields relevant to the action are expected to be set.
type EscrowActionRequest struct {
	Action      string          `json:"action" binding:"required"`
	DealID      string          `json:"deal_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Reason      string          `json:"reason"`
	Message     string          `json:"message"`
}

// ResolveDisputeRequest represents the admin verdict on a disputed deal
type ResolveDisputeRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Note    string `json:"note"`
}

// DepositRequest represents a wallet top-up
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}
