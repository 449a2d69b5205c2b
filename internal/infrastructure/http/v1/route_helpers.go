// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler defines the interface for reference entity handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
}

// DocumentRouteHandler defines the interface for document handlers.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Confirm(c *gin.Context)
}

// DocumentScheduleHandler is an optional interface for documents that carry
// installment schedules.
type DocumentScheduleHandler interface {
	Schedules(c *gin.Context)
}

// RegisterCatalogRoutes registers the create, get and list routes of a catalog.
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
}

// RegisterDocumentRoutes registers the draft and confirmation routes of a
// document kind. If the handler also implements DocumentScheduleHandler, the
// schedules route is registered too.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.POST("/:id/confirm", handler.Confirm)

	if sh, ok := handler.(DocumentScheduleHandler); ok {
		group.GET("/:id/schedules", sh.Schedules)
	}
}
