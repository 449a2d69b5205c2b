package handlers

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/domain/documents"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/payroll"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// FinanceHandler handles financial years, payroll postings and installment
// settlement.
type FinanceHandler struct {
	*BaseHandler
	service    *finance.Service
	closer     *finance.Closer
	payroll    *payroll.Service
	documents  *documents.Service
	equityCode string
}

// FinanceDeps groups the services behind FinanceHandler.
type FinanceDeps struct {
	Finance   *finance.Service
	Closer    *finance.Closer
	Payroll   *payroll.Service
	Documents *documents.Service
	// EquityCode is used when a close request names no equity account.
	EquityCode string
}

// NewFinanceHandler creates a new finance handler.
func NewFinanceHandler(base *BaseHandler, d FinanceDeps) *FinanceHandler {
	return &FinanceHandler{
		BaseHandler: base,
		service:     d.Finance,
		closer:      d.Closer,
		payroll:     d.Payroll,
		documents:   d.Documents,
		equityCode:  d.EquityCode,
	}
}

// Active handles GET /financial-years/active. A calendar year is created
// when none is active.
func (h *FinanceHandler) Active(c *gin.Context) {
	y, err := h.service.GetActive(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, y)
}

// List handles GET /financial-years
func (h *FinanceHandler) List(c *gin.Context) {
	years, err := h.service.Years(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(years))
}

// Create handles POST /financial-years
func (h *FinanceHandler) Create(c *gin.Context) {
	var req dto.CreateYearRequest
	if !h.BindJSON(c, &req) {
		return
	}
	y, err := h.service.CreateYear(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, y)
}

// Activate handles POST /financial-years/:id/activate
func (h *FinanceHandler) Activate(c *gin.Context) {
	yearID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	y, err := h.service.Activate(c.Request.Context(), yearID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, y)
}

// Close handles POST /financial-years/:id/close
func (h *FinanceHandler) Close(c *gin.Context) {
	yearID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	// The body is optional.
	var req dto.CloseYearRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	if req.EquityCode == "" {
		req.EquityCode = h.equityCode
	}
	res, err := h.closer.Close(c.Request.Context(), finance.CloseInput{
		YearID:     yearID,
		EquityCode: req.EquityCode,
		Actor:      h.Actor(c),
		OpenNext:   req.OpenNext,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Payroll handles POST /payroll
func (h *FinanceHandler) Payroll(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.PayrollRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pc, err := h.service.PostingContextFor(ctx, h.Actor(c), h.Branch(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	v, err := h.payroll.Post(ctx, req.ToInput(pc))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, v)
}

// SettleInstallment handles POST /payment-schedules/:id/settle
func (h *FinanceHandler) SettleInstallment(c *gin.Context) {
	ctx := c.Request.Context()
	scheduleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	pc, err := h.service.PostingContextFor(ctx, h.Actor(c), h.Branch(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	sched, err := h.documents.SettleInstallment(ctx, scheduleID, pc)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sched)
}
