package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"erpcore/internal/core/id"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves create, get and list for a reference entity
// (accounts, parties, warehouses, payment terms).
type CatalogHandler[T any, In any] struct {
	*BaseHandler
	cfg CatalogHandlerConfig[T, In]
}

// CatalogHandlerConfig binds a catalog handler to its service.
type CatalogHandlerConfig[T any, In any] struct {
	Create func(ctx context.Context, in In) (T, error)
	Get    func(ctx context.Context, entityID id.ID) (T, error)
	// List receives the gin context so it can read its own filters.
	List func(c *gin.Context) ([]T, error)
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T any, In any](base *BaseHandler, cfg CatalogHandlerConfig[T, In]) *CatalogHandler[T, In] {
	return &CatalogHandler[T, In]{BaseHandler: base, cfg: cfg}
}

// Create handles POST /{entity}.
func (h *CatalogHandler[T, In]) Create(c *gin.Context) {
	var in In
	if !h.BindJSON(c, &in) {
		return
	}
	out, err := h.cfg.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, out)
}

// Get handles GET /{entity}/:id.
func (h *CatalogHandler[T, In]) Get(c *gin.Context) {
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	out, err := h.cfg.Get(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, out)
}

// List handles GET /{entity}.
func (h *CatalogHandler[T, In]) List(c *gin.Context) {
	items, err := h.cfg.List(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}
