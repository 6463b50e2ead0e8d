package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admitguard-api/internal/models"
	"github.com/noah-isme/admitguard-api/internal/service"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
	"github.com/noah-isme/admitguard-api/pkg/response"
)

// CandidateParam is the route parameter naming the candidate.
const CandidateParam = "candidate_id"

type candidateService interface {
	List(ctx context.Context, batch *models.Batch) ([]models.Candidate, error)
	Get(ctx context.Context, batch *models.Batch, id string) (*models.Candidate, error)
	Create(ctx context.Context, batch *models.Batch, req models.CandidateRequest) (*models.Candidate, error)
	Update(ctx context.Context, batch *models.Batch, id string, req models.CandidateRequest) (*models.Candidate, error)
	Review(ctx context.Context, batch *models.Batch, id string, actor *models.JWTClaims, req models.ReviewRequest) (*models.Candidate, error)
}

type rosterExporter interface {
	Roster(ctx context.Context, batch *models.Batch, format service.ExportFormat) (*service.ExportFile, error)
}

// CandidateHandler serves the candidate routes nested under a batch.
type CandidateHandler struct {
	service  candidateService
	exporter rosterExporter
}

// NewCandidateHandler constructs the handler.
func NewCandidateHandler(svc candidateService, exporter rosterExporter) *CandidateHandler {
	return &CandidateHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List candidates
// @Description Lists the batch's candidates, newest first
// @Tags Candidates
// @Produce json
// @Security BearerAuth
// @Param batch_id path string true "Batch ID"
// @Success 200 {object} response.Envelope{data=[]models.Candidate}
// @Failure 404 {object} response.Envelope
// @Router /batches/{batch_id}/candidates [get]
func (h *CandidateHandler) List(c *gin.Context) {
	batch := requireBatch(c)
	if batch == nil {
		return
	}

	candidates, err := h.service.List(c.Request.Context(), batch)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, candidates, nil)
}

// Get godoc
// @Summary Get candidate
// @Tags Candidates
// @Produce json
// @Security BearerAuth
// @Param batch_id path string true "Batch ID"
// @Param candidate_id path string true "Candidate ID"
// @Success 200 {object} response.Envelope{data=models.Candidate}
// @Failure 404 {object} response.Envelope
// @Router /batches/{batch_id}/candidates/{candidate_id} [get]
func (h *CandidateHandler) Get(c *gin.Context) {
	batch := requireBatch(c)
	if batch == nil {
		return
	}

	candidate, err := h.service.Get(c.Request.Context(), batch, c.Param(CandidateParam))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, candidate, nil)
}

// Create godoc
// @Summary Add candidate
// @Description Adds a candidate to the batch. Rejected interview status blocks the write.
// @Tags Candidates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batch_id path string true "Batch ID"
// @Param payload body models.CandidateRequest true "Candidate payload"
// @Success 201 {object} response.Envelope{data=models.Candidate}
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /batches/{batch_id}/candidates [post]
func (h *CandidateHandler) Create(c *gin.Context) {
	batch := requireBatch(c)
	if batch == nil {
		return
	}

	var req models.CandidateRequest
	if !bindJSON(c, &req, "invalid candidate payload") {
		return
	}

	candidate, err := h.service.Create(c.Request.Context(), batch, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, candidate)
}

// Update godoc
// @Summary Replace candidate
// @Description Replaces the candidate's intake fields. Review fields are preserved.
// @Tags Candidates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batch_id path string true "Batch ID"
// @Param candidate_id path string true "Candidate ID"
// @Param payload body models.CandidateRequest true "Candidate payload"
// @Success 200 {object} response.Envelope{data=models.Candidate}
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /batches/{batch_id}/candidates/{candidate_id} [put]
func (h *CandidateHandler) Update(c *gin.Context) {
	batch := requireBatch(c)
	if batch == nil {
		return
	}

	id := c.Param(CandidateParam)
	var req models.CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An unknown candidate is 404 whatever the body holds.
		if _, getErr := h.service.Get(c.Request.Context(), batch, id); getErr != nil {
			response.Error(c, getErr)
			return
		}
		response.Error(c, appErrors.Validation(err, "invalid candidate payload"))
		return
	}

	candidate, err := h.service.Update(c.Request.Context(), batch, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, candidate, nil)
}

// Review godoc
// @Summary Review candidate
// @Description Records an accept or reject decision. Admin or manager only.
// @Tags Candidates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batch_id path string true "Batch ID"
// @Param candidate_id path string true "Candidate ID"
// @Param payload body models.ReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope{data=models.Candidate}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /batches/{batch_id}/candidates/{candidate_id}/review [patch]
func (h *CandidateHandler) Review(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	batch := requireBatch(c)
	if batch == nil {
		return
	}

	var req models.ReviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}

	candidate, err := h.service.Review(c.Request.Context(), batch, c.Param(CandidateParam), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, candidate, nil)
}

// Export godoc
// @Summary Export roster
// @Description Downloads the batch roster as CSV (default) or PDF
// @Tags Candidates
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param batch_id path string true "Batch ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /batches/{batch_id}/candidates/export [get]
func (h *CandidateHandler) Export(c *gin.Context) {
	batch := requireBatch(c)
	if batch == nil {
		return
	}

	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	file, err := h.exporter.Roster(c.Request.Context(), batch, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
