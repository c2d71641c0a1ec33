package ingestion

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	v1 "github.com/aevon-lab/salescube/internal/api/v1"
	"github.com/aevon-lab/salescube/internal/core/dimension"
	httperr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgWriteFailed    = "Failed to record change"
	msgDecodeFailed   = "Failed to decode dimension attributes"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// UpsertVersionHandler handles POST /v1/dimensions/:dimension/versions.
func (s *Service) UpsertVersionHandler(c *gin.Context) {
	dim := c.Param("dimension")

	var req v1.DimensionVersionRequest
	if ierr := s.bindBody(c, &req); ierr != nil {
		writeError(c, ierr)
		return
	}
	effective, err := req.Validate()
	if err != nil {
		slog.Warn("[Ingestion] Dimension version validation failed", "dimension", dim, "error", err)
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidRecord,
			message:    err.Error(),
		})
		return
	}

	change, err := s.wh.UpsertDimension(c.Request.Context(), dim, req.NaturalKey, req.Attributes, effective)
	if err != nil {
		writeError(c, domainError(err, msgWriteFailed))
		return
	}

	current, ierr := s.decode(change.Current)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	resp := v1.DimensionVersionResponse{
		Version: current,
		Created: change.Created,
		Updated: change.Updated,
	}
	if change.Closed != nil {
		sk := change.Closed.SurrogateKey
		resp.ClosedSurrogateKey = &sk
	}

	slog.Info("[Ingestion] Dimension version recorded",
		"dimension", dim,
		"natural_key", req.NaturalKey,
		"surrogate_key", change.Current.SurrogateKey,
		"created", change.Created,
		"updated", change.Updated)

	status := http.StatusOK
	if change.Created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

// CurrentVersionHandler handles GET /v1/dimensions/:dimension/:natural_key.
// An optional as_of=YYYY-MM-DD query returns the version valid on that date.
func (s *Service) CurrentVersionHandler(c *gin.Context) {
	dim, key := c.Param("dimension"), c.Param("natural_key")
	if _, ok := s.wh.Star().Dimension(dim); !ok {
		writeError(c, &ingestionError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpNotFound,
			message:    "unknown dimension",
			details:    map[string]string{"dimension": dim},
		})
		return
	}

	var (
		sk  int64
		err error
	)
	if asOf := c.Query("as_of"); asOf != "" {
		day, perr := schema.ParseDay(asOf)
		if perr != nil {
			writeError(c, &ingestionError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpInvalidDate,
				message:    "as_of must be YYYY-MM-DD",
			})
			return
		}
		sk, err = s.wh.Dimensions().Resolve(dim, key, day)
	} else {
		sk, err = s.wh.Dimensions().Current(dim, key)
	}
	if err != nil {
		writeError(c, domainError(err, msgWriteFailed))
		return
	}

	v, ok := s.wh.Dimensions().Lookup(sk)
	if !ok {
		writeError(c, &ingestionError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpNotFound,
			message:    "unknown surrogate key",
		})
		return
	}
	out, ierr := s.decode(v)
	if ierr != nil {
		writeError(c, ierr)
		return
	}
	c.JSON(http.StatusOK, out)
}

// HistoryHandler handles GET /v1/dimensions/:dimension/:natural_key/history.
func (s *Service) HistoryHandler(c *gin.Context) {
	dim, key := c.Param("dimension"), c.Param("natural_key")

	versions, err := s.wh.Dimensions().History(dim, key)
	if err != nil {
		writeError(c, domainError(err, msgWriteFailed))
		return
	}

	out := make([]v1.DimensionVersion, 0, len(versions))
	for _, v := range versions {
		dv, ierr := s.decode(v)
		if ierr != nil {
			writeError(c, ierr)
			return
		}
		out = append(out, dv)
	}
	c.JSON(http.StatusOK, out)
}

// RecordSaleHandler handles POST /v1/sales.
func (s *Service) RecordSaleHandler(c *gin.Context) {
	var req v1.SaleRequest
	if ierr := s.bindBody(c, &req); ierr != nil {
		writeError(c, ierr)
		return
	}
	sale, err := req.Validate()
	if err != nil {
		slog.Warn("[Ingestion] Sale validation failed", "error", err)
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidRecord,
			message:    err.Error(),
		})
		return
	}

	row, err := s.wh.RecordSale(c.Request.Context(), sale)
	if err != nil {
		writeError(c, domainError(err, msgWriteFailed))
		return
	}

	slog.Info("[Ingestion] Sale recorded",
		"fact_id", row.ID,
		"business_date", req.BusinessDate,
		"store", req.Store)

	c.JSON(http.StatusCreated, v1.SaleResponse{
		FactID:       row.ID,
		BusinessDate: row.BusinessDate.Format(schema.DateLayout),
		Keys:         row.Keys,
		Measures:     row.Measures,
	})
}

// bindBody reads the size-limited request body and binds it into dst.
func (s *Service) bindBody(c *gin.Context, dst interface{}) *ingestionError {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return nil
}

// decode converts a version to its API shape with sensitive attributes opened.
func (s *Service) decode(v dimension.Version) (v1.DimensionVersion, *ingestionError) {
	attrs, err := s.wh.Dimensions().Materialize(v.SurrogateKey)
	if err != nil {
		slog.Error("[Ingestion] Failed to decode attributes", "surrogate_key", v.SurrogateKey, "error", err)
		return v1.DimensionVersion{}, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgDecodeFailed,
		}
	}
	return v1.NewDimensionVersion(v, attrs), nil
}

// domainError maps a warehouse error onto the HTTP error shape.
// Errors outside the taxonomy are logged and reported with fallback.
func domainError(err error, fallback string) *ingestionError {
	status, errorType := httperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("[Ingestion] Write failed", "error", err)
		return &ingestionError{statusCode: status, errorType: errorType, message: fallback}
	}

	var details interface{}
	if id := httperr.IdentifierOf(err); id != "" {
		details = map[string]string{"identifier": id}
	}
	return &ingestionError{
		statusCode: status,
		errorType:  errorType,
		message:    err.Error(),
		details:    details,
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
