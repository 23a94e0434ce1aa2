package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeclub/escrow-backend/internal/dto"
	"github.com/tradeclub/escrow-backend/internal/http/handlers/common"
	"github.com/tradeclub/escrow-backend/internal/models"
)

// Wallet — читающая и пополняющая часть леджера. Резерв и расчёты идут
// только через машину состояний, этим маршрутам они недоступны.
type Wallet interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*models.UserBalance, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// WalletHandler обслуживает маршруты кошелька.
type WalletHandler struct {
	wallet Wallet
}

func NewWalletHandler(wallet Wallet) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

// GetBalance GET /api/wallet/balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	balance, err := h.wallet.GetBalance(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBalanceResponse(balance))
}

// Deposit POST /api/wallet/deposit
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Amount.IsPositive() {
		common.RespondBadRequest(c, "сумма должна быть положительной")
		return
	}

	if err := h.wallet.Deposit(c.Request.Context(), userID, req.Amount.Round(2)); err != nil {
		common.RespondAppError(c, err)
		return
	}

	balance, err := h.wallet.GetBalance(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBalanceResponse(balance))
}

// ListTransactions GET /api/wallet/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	transactions, err := h.wallet.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}
