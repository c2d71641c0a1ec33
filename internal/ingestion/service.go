package ingestion

import (
	"github.com/aevon-lab/salescube/internal/warehouse"
	"github.com/gin-gonic/gin"
)

// Service accepts dimension versions and sales over HTTP.
type Service struct {
	wh               *warehouse.Warehouse
	maxBodySizeBytes int
}

func NewService(wh *warehouse.Warehouse, maxBodySizeMB int) *Service {
	if wh == nil {
		panic("ingestion: warehouse must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		wh:               wh,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/dimensions/:dimension/versions", s.UpsertVersionHandler)
	r.GET("/v1/dimensions/:dimension/:natural_key", s.CurrentVersionHandler)
	r.GET("/v1/dimensions/:dimension/:natural_key/history", s.HistoryHandler)

	r.POST("/v1/sales", s.RecordSaleHandler)
}
