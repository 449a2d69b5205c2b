package handlers

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/domain/documents"
	"erpcore/internal/domain/finance"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// DocumentHandler serves one document kind. The router mounts one per kind.
type DocumentHandler struct {
	*BaseHandler
	kind    documents.Kind
	service *documents.Service
	finance *finance.Service
}

// NewDocumentHandler creates a handler for documents of kind.
func NewDocumentHandler(base *BaseHandler, kind documents.Kind, service *documents.Service, fin *finance.Service) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, kind: kind, service: service, finance: fin}
}

// Create handles POST /documents/{kind}
func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Create(c.Request.Context(), req.ToInput(h.kind, h.Actor(c), h.Branch(c)))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Get handles GET /documents/{kind}/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.GetOfKind(c.Request.Context(), h.kind, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// List handles GET /documents/{kind}?partyId=&confirmed=&from=&to=
func (h *DocumentHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	kind := h.kind
	filter := documents.ListFilter{Kind: &kind, Limit: page.PageSize, Offset: page.Offset()}
	var ok bool
	if filter.PartyID, ok = h.QueryID(c, "partyId"); !ok {
		return
	}
	if v := c.Query("confirmed"); v != "" {
		confirmed := v == "true"
		filter.Confirmed = &confirmed
	}
	if filter.FromDate, ok = h.QueryDate(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.QueryDate(c, "to"); !ok {
		return
	}

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// Confirm handles POST /documents/{kind}/:id/confirm. Confirming twice
// returns the same document and voucher.
func (h *DocumentHandler) Confirm(c *gin.Context) {
	ctx := c.Request.Context()
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	pc, err := h.finance.PostingContextFor(ctx, h.Actor(c), h.Branch(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	doc, err := h.service.Confirm(ctx, h.kind, docID, pc)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Schedules handles GET /documents/{kind}/:id/schedules
func (h *DocumentHandler) Schedules(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	list, err := h.finance.Schedules(c.Request.Context(), string(h.kind), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}
