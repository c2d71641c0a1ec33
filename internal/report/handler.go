package report

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/aevon-lab/salescube/internal/api/v1"
	httperr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/warehouse"
)

// RegisterRoutes registers the report API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/reports/query", s.HandleQuery)
	r.GET("/v1/reports", s.HandleList)
	r.GET("/v1/reports/:name", s.HandleRun)
}

// HandleQuery handles POST /v1/reports/query.
func (s *Service) HandleQuery(c *gin.Context) {
	var req v1.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
			Details:   err.Error(),
		})
		return
	}

	q, err := req.Validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidGroupingSpec,
			Message:   "Invalid query",
			Details:   err.Error(),
		})
		return
	}

	resp, err := s.Execute(c.Request.Context(), q)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleList handles GET /v1/reports.
func (s *Service) HandleList(c *gin.Context) {
	defs, err := s.List(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, defs)
}

// HandleRun handles GET /v1/reports/:name
// Query parameters: from, to (YYYY-MM-DD, optional)
func (s *Service) HandleRun(c *gin.Context) {
	var query struct {
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	sel := warehouse.Selection{}
	var err error
	if sel.From, err = v1.ParseOptionalDay("from", query.From); err != nil {
		writeDateError(c, err)
		return
	}
	if sel.To, err = v1.ParseOptionalDay("to", query.To); err != nil {
		writeDateError(c, err)
		return
	}

	resp, err := s.Run(c.Request.Context(), c.Param("name"), sel)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func writeDateError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidDate,
		Message:   "Invalid query parameters",
		Details:   err.Error(),
	})
}

func writeDomainError(c *gin.Context, err error) {
	status, errorType := httperr.HTTPStatus(err)
	resp := httperr.ErrorResponse{
		ErrorType: errorType,
		Message:   err.Error(),
	}
	if status == http.StatusInternalServerError {
		resp.Message = "Failed to evaluate report"
		resp.Details = err.Error()
	} else if id := httperr.IdentifierOf(err); id != "" {
		resp.Details = map[string]string{"identifier": id}
	}
	c.JSON(status, resp)
}
