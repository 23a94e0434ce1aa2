package dto

import (
	"github.com/tradeclub/escrow-backend/internal/models"
)

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ActionResponse is the envelope of a dispatched escrow action
type ActionResponse struct {
	Success bool      `json:"success"`
	Deal    *DealView `json:"deal,omitempty"`
}

// DealView represents a deal as served to clients. On top of the canonical
// fields it carries the vocabulary of the older UI surface
// (open/in_progress/dispute/completed), so both client generations read
// the same state machine.
type DealView struct {
	*models.Deal
	LegacyStatus string `json:"legacy_status"`
}

// NewDealView creates a DealView from a deal
func NewDealView(deal *models.Deal) *DealView {
	return &DealView{
		Deal:         deal,
		LegacyStatus: LegacyStatus(deal.Status),
	}
}

// LegacyStatus maps a canonical deal status to the older UI vocabulary.
func LegacyStatus(status string) string {
	if status == models.DealStatusDisputed {
		return "dispute"
	}
	return status
}

// CanonicalStatus maps a list filter from either client vocabulary to the
// canonical one. "my_deals" is handled by the caller, not here.
func CanonicalStatus(status string) string {
	if status == "dispute" {
		return models.DealStatusDisputed
	}
	return status
}

// DealWithMessagesResponse represents a deal together with its journal
type DealWithMessagesResponse struct {
	Deal     *DealView        `json:"deal"`
	Messages []models.Message `json:"messages"`
}

// DealListResponse represents a filtered deal listing
type DealListResponse struct {
	Deals []*DealView `json:"deals"`
}

// NewDealListResponse creates a DealListResponse from deals
func NewDealListResponse(deals []models.Deal) *DealListResponse {
	views := make([]*DealView, 0, len(deals))
	for i := range deals {
		views = append(views, NewDealView(&deals[i]))
	}
	return &DealListResponse{Deals: views}
}

// BalanceResponse represents a user's wallet state
type BalanceResponse struct {
	Available string `json:"available"`
	Frozen    string `json:"frozen"`
}

// NewBalanceResponse creates a BalanceResponse from a balance
func NewBalanceResponse(b *models.UserBalance) *BalanceResponse {
	return &BalanceResponse{
		Available: b.Available.StringFixed(2),
		Frozen:    b.Frozen.StringFixed(2),
	}
}
