package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/admitguard-api/internal/models"
	"github.com/noah-isme/admitguard-api/pkg/export"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
)

func TestRosterCSV(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewExportService(seededCandidates(), nil, nil, metrics, zap.NewNop())

	file, err := svc.Roster(context.Background(), spring, "")
	require.NoError(t, err)
	assert.Equal(t, "Spring_students.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"#", "Name", "Email", "Interview Status", "Test Score", "Offer Letter Sent", "Exception Count", "Flagged", "Review Status"}, records[0])
	assert.Equal(t, []string{"1", "Cara", "c@x.com", "Cleared", "81", "Yes", "2", "Yes", ""}, records[1])

	assert.Contains(t, scrape(t, metrics), `admitguard_events_total{event="roster_exported"} 1`)
}

func TestRosterPDF(t *testing.T) {
	svc := NewExportService(seededCandidates(), nil, nil, nil, nil)

	file, err := svc.Roster(context.Background(), spring, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "Spring_students.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestRosterEmptyBatch(t *testing.T) {
	svc := NewExportService(newMockCandidateRepo(), nil, nil, nil, nil)

	file, err := svc.Roster(context.Background(), &models.Batch{ID: batchA, Name: "Cohort 3/2026"}, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Cohort_3-2026_students.csv", file.Filename)

	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRosterUnknownFormat(t *testing.T) {
	svc := NewExportService(seededCandidates(), nil, nil, nil, nil)

	_, err := svc.Roster(context.Background(), spring, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRosterStoreFailure(t *testing.T) {
	repo := newMockCandidateRepo()
	repo.listErr = errors.New("db down")
	svc := NewExportService(repo, nil, nil, nil, nil)

	_, err := svc.Roster(context.Background(), spring, ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

type failingRenderer struct{}

func (failingRenderer) Render(export.Dataset) ([]byte, error) {
	return nil, errors.New("font missing")
}

func TestRosterRenderFailure(t *testing.T) {
	svc := NewExportService(seededCandidates(), nil, failingRenderer{}, nil, nil)

	_, err := svc.Roster(context.Background(), spring, ExportFormatPDF)
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	file, err := svc.Roster(context.Background(), spring, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Spring_students.csv", file.Filename)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "batch", sanitizeFilename("   "))
	assert.Equal(t, "Fall_2026", sanitizeFilename(" Fall 2026 "))
	assert.Equal(t, "a-b-c", sanitizeFilename(`a/b\c`))
}
