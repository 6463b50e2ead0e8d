package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/admitguard-api/internal/models"
	"github.com/noah-isme/admitguard-api/pkg/export"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
)

// ExportFormat names a roster rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type rosterSource interface {
	ListByBatch(ctx context.Context, batchID string) ([]models.Candidate, error)
}

type rosterRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered roster ready to be served as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders batch rosters.
type ExportService struct {
	candidates rosterSource
	csv        rosterRenderer
	pdf        rosterRenderer
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the package defaults.
func NewExportService(candidates rosterSource, csv, pdf rosterRenderer, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{candidates: candidates, csv: csv, pdf: pdf, metrics: metrics, logger: logger}
}

var rosterHeaders = []string{"#", "Name", "Email", "Interview Status", "Test Score", "Offer Letter Sent", "Exception Count", "Flagged", "Review Status"}

// Roster renders the batch's candidates in the requested format.
func (s *ExportService) Roster(ctx context.Context, batch *models.Batch, format ExportFormat) (*ExportFile, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	candidates, err := s.candidates.ListByBatch(ctx, batch.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list candidates")
	}

	dataset := export.Dataset{
		Title:   fmt.Sprintf("%s (%s) - Students", batch.Name, batch.Program),
		Headers: rosterHeaders,
		Rows:    make([][]string, 0, len(candidates)),
	}
	for i, c := range candidates {
		dataset.Rows = append(dataset.Rows, []string{
			strconv.Itoa(i + 1),
			c.Name,
			c.Email,
			derefString((*string)(c.InterviewStatus)),
			formatScore(c.ScreeningScore),
			formatYesNo(c.OfferLetterSent),
			strconv.Itoa(c.ExceptionCount),
			formatYesNo(&c.Flagged),
			derefString((*string)(c.ReviewStatus)),
		})
	}

	file := &ExportFile{Filename: sanitizeFilename(batch.Name) + "_students." + string(format)}
	switch format {
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		file.Body, err = s.pdf.Render(dataset)
	default:
		file.ContentType = "text/csv; charset=utf-8"
		file.Body, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render roster")
	}

	s.metrics.RecordEvent(EventRosterExported)
	s.logger.Debug("roster exported", zap.String("batch_id", batch.ID), zap.String("format", string(format)), zap.Int("rows", len(candidates)))
	return file, nil
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}

func formatYesNo(v *bool) string {
	switch {
	case v == nil:
		return ""
	case *v:
		return "Yes"
	default:
		return "No"
	}
}

func sanitizeFilename(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "batch"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "\"", "", "..", ".")
	result := replacer.Replace(strings.TrimSpace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
