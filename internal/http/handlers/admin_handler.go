package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradeclub/escrow-backend/internal/dto"
	"github.com/tradeclub/escrow-backend/internal/http/handlers/common"
	"github.com/tradeclub/escrow-backend/internal/models"
	"github.com/tradeclub/escrow-backend/internal/service"
)

// AdminHandler обслуживает маршруты арбитража. Права оператора проверяет
// middleware, хэндлер только передаёт вердикт машине состояний.
type AdminHandler struct {
	escrow *service.EscrowService
}

func NewAdminHandler(escrow *service.EscrowService) *AdminHandler {
	return &AdminHandler{escrow: escrow}
}

// ListDisputes GET /api/admin/disputes
func (h *AdminHandler) ListDisputes(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	deals, err := h.escrow.ListDeals(c.Request.Context(), models.DealStatusDisputed, nil, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDealListResponse(deals))
}

// GetDispute GET /api/admin/disputes/:id — сделка вместе с журналом,
// который с момента открытия спора служит доказательной базой.
func (h *AdminHandler) GetDispute(c *gin.Context) {
	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
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

// ResolveDispute POST /api/admin/disputes/:id/resolve
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "outcome обязателен")
		return
	}

	deal, err := h.escrow.AdminResolveDispute(c.Request.Context(), adminID, dealID, service.Outcome(req.Outcome), req.Note)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ActionResponse{Success: true, Deal: dto.NewDealView(deal)})
}
