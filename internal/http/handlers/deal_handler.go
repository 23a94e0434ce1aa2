package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradeclub/escrow-backend/internal/dto"
	"github.com/tradeclub/escrow-backend/internal/http/handlers/common"
	"github.com/tradeclub/escrow-backend/internal/models"
	"github.com/tradeclub/escrow-backend/internal/service"
)

// DealHandler обслуживает диспетчерский эндпоинт сделок: клиенты шлют
// действия одним POST с полем action, чтение идёт через GET с тем же
// полем в query. Контракт унаследован от старых клиентов и сохранён
// дословно, включая синонимы действий.
type DealHandler struct {
	escrow   *service.EscrowService
	messages *service.MessageService
}

func NewDealHandler(escrow *service.EscrowService, messages *service.MessageService) *DealHandler {
	return &DealHandler{escrow: escrow, messages: messages}
}

// Dispatch POST /api/escrow
func (h *DealHandler) Dispatch(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.EscrowActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	ctx := c.Request.Context()

	if req.Action == dto.ActionCreateDeal {
		deal, err := h.escrow.CreateDeal(ctx, userID, req.Title, req.Description, req.Price)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ActionResponse{Success: true, Deal: dto.NewDealView(deal)})
		return
	}

	dealID, err := uuid.Parse(req.DealID)
	if err != nil {
		common.RespondBadRequest(c, "deal_id должен быть валидным UUID")
		return
	}

	switch req.Action {
	case dto.ActionBuyerPay, dto.ActionJoinDeal:
		deal, err := h.escrow.JoinAndPay(ctx, userID, dealID)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ActionResponse{Success: true, Deal: dto.NewDealView(deal)})

	case dto.ActionSellerSent, dto.ActionSellerConfirm:
		if _, err := h.escrow.SellerMarkSent(ctx, userID, dealID); err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ActionResponse{Success: true})

	case dto.ActionBuyerConfirm:
		if _, err := h.escrow.BuyerConfirmReceipt(ctx, userID, dealID); err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ActionResponse{Success: true})

	case dto.ActionOpenDispute:
		if _, err := h.escrow.OpenDispute(ctx, userID, dealID, req.Reason); err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ActionResponse{Success: true})

	case dto.ActionSendMessage:
		if _, err := h.messages.Send(ctx, userID, dealID, req.Message); err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ActionResponse{Success: true})

	case dto.ActionCancelDeal:
		if _, err := h.escrow.CancelOpenDeal(ctx, userID, dealID); err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ActionResponse{Success: true})

	default:
		common.RespondBadRequest(c, "неизвестное действие: "+req.Action)
	}
}

// Query GET /api/escrow?action=list|deal
func (h *DealHandler) Query(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	switch c.Query("action") {
	case "list":
		h.list(c, userID)
	case "deal":
		h.deal(c)
	default:
		common.RespondBadRequest(c, "action должен быть list или deal")
	}
}

func (h *DealHandler) list(c *gin.Context, userID uuid.UUID) {
	limit, offset := common.GetPagination(c)

	status := c.Query("status")
	var requester *uuid.UUID
	if status == "my_deals" {
		status = ""
		requester = &userID
	} else {
		status = dto.CanonicalStatus(status)
	}
	if status == "" && requester == nil {
		status = models.DealStatusOpen
	}

	deals, err := h.escrow.ListDeals(c.Request.Context(), status, requester, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDealListResponse(deals))
}

func (h *DealHandler) deal(c *gin.Context) {
	dealID, err := uuid.Parse(c.Query("id"))
	if err != nil {
		common.RespondBadRequest(c, "id должен быть валидным UUID")
		return
	}

	deal, messages, err := h.escrow.GetDeal(c.Request.Context(), dealID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DealWithMessagesResponse{
		Deal:     dto.NewDealView(deal),
		Messages: messages,
	})
}
