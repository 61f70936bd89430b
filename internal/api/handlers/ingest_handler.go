package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/orders/internal/services"
	"example.com/backstage/services/orders/internal/tracing"
)

// IngestHandler handles incoming order event requests
type IngestHandler struct {
	ingestService *services.IngestService
	tracer        tracing.Tracer
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(ingestService *services.IngestService, tracer tracing.Tracer) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
		tracer:        tracer,
	}
}

// IngestResponse is the body returned for every ingest outcome
type IngestResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
	ItemCount     int    `json:"item_count,omitempty"`
}

// HandleIngest accepts one raw order event per request and runs it
// through the pipeline. The body is read raw since validation must see
// the payload before any struct binding.
func (h *IngestHandler) HandleIngest(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-ingest-order-event")
	defer h.tracer.EndTransaction(txn)

	raw, err := c.GetRawData()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read request body")
		h.tracer.RecordError(txn, err)
		c.JSON(http.StatusBadRequest, IngestResponse{
			Status:  "error",
			Message: "unable to read request body",
		})
		return
	}

	result := h.ingestService.Ingest(c.Request.Context(), raw)

	switch result.Status {
	case services.StatusAccepted:
		c.JSON(http.StatusOK, IngestResponse{
			Status:        "success",
			Message:       "Event processed successfully",
			TransactionID: result.TransactionID,
			ItemCount:     result.ItemCount,
		})

	case services.StatusRejected:
		status := http.StatusBadRequest
		if result.RejectCode == services.RejectNormalizationError {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, IngestResponse{
			Status:  "error",
			Message: result.Reason,
		})

	case services.StatusDuplicate:
		c.JSON(http.StatusConflict, IngestResponse{
			Status:        "duplicate",
			Message:       "Event already processed",
			TransactionID: result.TransactionID,
		})

	default:
		h.tracer.RecordError(txn, errorFromResult(result))
		c.JSON(http.StatusInternalServerError, IngestResponse{
			Status:  "error",
			Message: "Failed to persist event",
		})
	}
}

// RegisterRoutes registers the handler's routes
func (h *IngestHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/ingest", h.HandleIngest)
}

type resultError struct {
	reason string
}

func (e resultError) Error() string {
	return e.reason
}

func errorFromResult(result services.Result) error {
	return resultError{reason: result.Reason}
}
