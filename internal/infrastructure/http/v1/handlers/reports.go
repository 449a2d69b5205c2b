package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"erpcore/internal/domain/reports"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// reportRange reads from/to. A missing to means today.
func (h *ReportsHandler) reportRange(c *gin.Context) (reports.Range, bool) {
	from, ok := h.QueryDate(c, "from")
	if !ok {
		return reports.Range{}, false
	}
	to, ok := h.QueryDate(c, "to")
	if !ok {
		return reports.Range{}, false
	}
	r := reports.Range{To: time.Now().UTC().Truncate(24 * time.Hour)}
	if from != nil {
		r.From = *from
	}
	if to != nil {
		r.To = *to
	}
	return r, true
}

// Balances handles GET /reports/balances?from=&to=&groupBy=month|year
// Without groupBy it returns per-account turnover.
func (h *ReportsHandler) Balances(c *gin.Context) {
	ctx := c.Request.Context()
	r, ok := h.reportRange(c)
	if !ok {
		return
	}

	groupBy := c.Query("groupBy")
	if groupBy == "" {
		list, err := h.service.AccountBalances(ctx, r.From, r.To)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.NewListResponse(list))
		return
	}

	list, err := h.service.AccountTypeBalances(ctx, r, reports.Period(groupBy))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// Ratios handles GET /reports/ratios?from=&to=
func (h *ReportsHandler) Ratios(c *gin.Context) {
	r, ok := h.reportRange(c)
	if !ok {
		return
	}
	ratios, err := h.service.FinancialRatios(c.Request.Context(), r)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ratios)
}

// Inventory handles GET /reports/inventory?warehouseId=
func (h *ReportsHandler) Inventory(c *gin.Context) {
	warehouseID, ok := h.QueryID(c, "warehouseId")
	if !ok {
		return
	}
	levels, err := h.service.InventoryLevels(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(levels))
}
