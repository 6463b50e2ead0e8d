package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admitguard-api/internal/models"
	"github.com/noah-isme/admitguard-api/pkg/response"
)

type batchService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req models.CreateBatchRequest) (*models.Batch, error)
	List(ctx context.Context, actor *models.JWTClaims) ([]models.Batch, error)
}

// BatchHandler serves batch endpoints. Single-batch reads rely on the
// batch scope middleware having resolved the batch.
type BatchHandler struct {
	service batchService
}

// NewBatchHandler constructs the handler.
func NewBatchHandler(svc batchService) *BatchHandler {
	return &BatchHandler{service: svc}
}

// Create godoc
// @Summary Create batch
// @Description Creates an admission batch owned by the caller. A missing rules_config receives the default.
// @Tags Batches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateBatchRequest true "Batch payload"
// @Success 201 {object} response.Envelope{data=models.Batch}
// @Failure 401 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req models.CreateBatchRequest
	if !bindJSON(c, &req, "invalid batch payload") {
		return
	}

	batch, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, batch)
}

// List godoc
// @Summary List batches
// @Description Lists the batches visible to the caller, newest first
// @Tags Batches
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Batch}
// @Failure 401 {object} response.Envelope
// @Router /batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	batches, err := h.service.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, batches, nil)
}

// Get godoc
// @Summary Get batch
// @Tags Batches
// @Produce json
// @Security BearerAuth
// @Param batch_id path string true "Batch ID"
// @Success 200 {object} response.Envelope{data=models.Batch}
// @Failure 404 {object} response.Envelope
// @Router /batches/{batch_id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	batch := requireBatch(c)
	if batch == nil {
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}
