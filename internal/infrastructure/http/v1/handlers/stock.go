package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"erpcore/internal/domain/stock"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the batch ledger.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// In handles POST /stock/in
func (h *StockHandler) In(c *gin.Context) {
	var req dto.StockInRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.service.StockIn(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b)
}

// Out handles POST /stock/out
func (h *StockHandler) Out(c *gin.Context) {
	var req dto.StockOutRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.service.StockOut(c.Request.Context(), req.ProductID, req.Quantity, req.Reason,
		stock.OutOptions{WarehouseID: req.WarehouseID})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Return handles POST /stock/return
func (h *StockHandler) Return(c *gin.Context) {
	var req dto.StockReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.service.StockReturn(c.Request.Context(), req.ProductID, req.Quantity, req.BatchNumber, req.Reason, nil)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Audit handles POST /stock/audit
func (h *StockHandler) Audit(c *gin.Context) {
	var req dto.StockAuditRequest
	if !h.BindJSON(c, &req) {
		return
	}
	results, err := h.service.StockAudit(c.Request.Context(), req.Entries, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(results))
}

// Batches handles GET /stock/batches?productId=&warehouseId=&nonEmpty=
func (h *StockHandler) Batches(c *gin.Context) {
	var (
		filter stock.BatchFilter
		ok     bool
	)
	if filter.ProductID, ok = h.QueryID(c, "productId"); !ok {
		return
	}
	if filter.WarehouseID, ok = h.QueryID(c, "warehouseId"); !ok {
		return
	}
	filter.NonEmpty = c.Query("nonEmpty") == "true"

	list, err := h.service.Batches(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// Batch handles GET /stock/batches/:id
func (h *StockHandler) Batch(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.Batch(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Reconcile handles GET /stock/batches/:id/reconcile
func (h *StockHandler) Reconcile(c *gin.Context) {
	batchID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	rec, err := h.service.Reconcile(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// Movements handles GET /stock/movements?batchId=&productId=&type=&from=&to=&limit=
func (h *StockHandler) Movements(c *gin.Context) {
	var (
		filter stock.MovementFilter
		ok     bool
	)
	if filter.BatchID, ok = h.QueryID(c, "batchId"); !ok {
		return
	}
	if filter.ProductID, ok = h.QueryID(c, "productId"); !ok {
		return
	}
	if t := c.Query("type"); t != "" {
		mt := stock.MovementType(t)
		filter.Type = &mt
	}
	if filter.FromDate, ok = h.QueryDate(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.QueryDate(c, "to"); !ok {
		return
	}
	filter.Limit = h.ParseIntQuery(c, "limit", 200)

	list, err := h.service.Movements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// Expiring handles GET /stock/expiring?before=YYYY-MM-DD. It defaults to
// 30 days from today.
func (h *StockHandler) Expiring(c *gin.Context) {
	before, ok := h.QueryDate(c, "before")
	if !ok {
		return
	}
	date := time.Now().UTC().AddDate(0, 0, 30)
	if before != nil {
		date = *before
	}
	list, err := h.service.ExpiringBefore(c.Request.Context(), date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}
