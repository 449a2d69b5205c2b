package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/vouchers"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// VoucherHandler handles HTTP requests for vouchers and account ledgers.
type VoucherHandler struct {
	*BaseHandler
	engine  *vouchers.Engine
	finance *finance.Service
}

// NewVoucherHandler creates a new voucher handler.
func NewVoucherHandler(base *BaseHandler, engine *vouchers.Engine, fin *finance.Service) *VoucherHandler {
	return &VoucherHandler{BaseHandler: base, engine: engine, finance: fin}
}

// Create handles POST /vouchers. The voucher is tagged with the active year.
func (h *VoucherHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}
	year, err := h.finance.GetActive(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	v, err := h.engine.CreateWithEntries(ctx, req.ToInput(h.Actor(c), h.Branch(c), &year.ID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, v)
}

// Get handles GET /vouchers/:id
func (h *VoucherHandler) Get(c *gin.Context) {
	voucherID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	v, err := h.engine.Get(c.Request.Context(), voucherID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// List handles GET /vouchers
func (h *VoucherHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	filter := vouchers.ListFilter{Limit: page.PageSize, Offset: page.Offset()}
	if t := c.Query("type"); t != "" {
		vt := vouchers.Type(t)
		if !vt.Valid() {
			h.Error(c, apperror.NewValidation("unknown voucher type").WithDetail("type", t))
			return
		}
		filter.Type = &vt
	}
	if s := c.Query("status"); s != "" {
		st := vouchers.Status(s)
		filter.Status = &st
	}
	var ok bool
	if filter.FinancialYearID, ok = h.QueryID(c, "financialYearId"); !ok {
		return
	}
	if filter.FromDate, ok = h.QueryDate(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.QueryDate(c, "to"); !ok {
		return
	}

	list, err := h.engine.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// Approve handles POST /vouchers/:id/approve
func (h *VoucherHandler) Approve(c *gin.Context) {
	h.transition(c, h.engine.Approve)
}

// Reject handles POST /vouchers/:id/reject
func (h *VoucherHandler) Reject(c *gin.Context) {
	h.transition(c, h.engine.Reject)
}

func (h *VoucherHandler) transition(c *gin.Context, move func(ctx context.Context, voucherID id.ID, actor string) (*vouchers.Voucher, error)) {
	voucherID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	v, err := move(c.Request.Context(), voucherID, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// ReplaceEntries handles PUT /vouchers/:id/entries
func (h *VoucherHandler) ReplaceEntries(c *gin.Context) {
	voucherID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.ReplaceEntriesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	v, err := h.engine.ReplaceEntries(c.Request.Context(), voucherID, dto.EntryInputs(req.Entries))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Ledger handles GET /accounts/:id/ledger?from=&to=
func (h *VoucherHandler) Ledger(c *gin.Context) {
	accountID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	from, ok := h.QueryDate(c, "from")
	if !ok {
		return
	}
	to, ok := h.QueryDate(c, "to")
	if !ok {
		return
	}
	ledger, err := h.engine.AccountLedger(c.Request.Context(), accountID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ledger)
}
