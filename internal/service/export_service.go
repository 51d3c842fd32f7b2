package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/scheduling-api/internal/models"
	"github.com/careloop/scheduling-api/pkg/export"
	appErrors "github.com/careloop/scheduling-api/pkg/errors"
	"github.com/careloop/scheduling-api/pkg/storage"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportRendering is a rendered document plus its transport metadata.
type ExportRendering struct {
	Payload     []byte
	ContentType string
	Filename    string
}

// ArchivedExport references a rendering persisted on disk. The token is the
// only handle a client needs to download it later.
type ArchivedExport struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CapacityExportService renders capacity plans into downloadable CSV or
// PDF documents, optionally archiving them for tokenized download.
type CapacityExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
}

// NewCapacityExportService constructs the export service.
func NewCapacityExportService(csv csvRenderer, pdf pdfRenderer) *CapacityExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &CapacityExportService{csv: csv, pdf: pdf}
}

// WithArchive enables persisted exports backed by the given store and signer.
func (s *CapacityExportService) WithArchive(store *storage.LocalStorage, signer *storage.SignedURLSigner) *CapacityExportService {
	s.store = store
	s.signer = signer
	return s
}

// Render produces the document for the plan in the requested format.
func (s *CapacityExportService) Render(plan *models.ProviderCapacityPlan, format ExportFormat) (*ExportRendering, error) {
	if plan == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity plan is required")
	}

	dataset := buildCapacityDataset(plan)
	title := fmt.Sprintf("Capacity Plan %s", plan.ProviderID)
	filename := fmt.Sprintf("capacity_plan_%s_%s.%s",
		sanitizeFilename(plan.ProviderID),
		plan.GeneratedAt.UTC().Format("20060102_150405"),
		format)

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, fmt.Errorf("render capacity plan csv: %w", err)
		}
		return &ExportRendering{Payload: payload, ContentType: "text/csv", Filename: filename}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, fmt.Errorf("render capacity plan pdf: %w", err)
		}
		return &ExportRendering{Payload: payload, ContentType: "application/pdf", Filename: filename}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// Archive renders the plan, persists the document under the export
// directory and returns a signed download token.
func (s *CapacityExportService) Archive(plan *models.ProviderCapacityPlan, format ExportFormat) (*ArchivedExport, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export archive is not configured")
	}
	rendering, err := s.Render(plan, format)
	if err != nil {
		return nil, err
	}
	relPath := filepath.Join("capacity", rendering.Filename)
	if _, err := s.store.Save(relPath, rendering.Payload); err != nil {
		return nil, fmt.Errorf("archive capacity plan: %w", err)
	}
	token, expiresAt, err := s.signer.Generate(uuid.NewString(), relPath)
	if err != nil {
		return nil, fmt.Errorf("sign capacity export: %w", err)
	}
	return &ArchivedExport{Token: token, Filename: rendering.Filename, ExpiresAt: expiresAt}, nil
}

// OpenArchived validates the token and loads the referenced document.
func (s *CapacityExportService) OpenArchived(token string) (*ExportRendering, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export archive is not configured")
	}
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archived export no longer exists")
	}
	defer file.Close() //nolint:errcheck
	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read archived export: %w", err)
	}
	contentType := "text/csv"
	if strings.HasSuffix(relPath, ".pdf") {
		contentType = "application/pdf"
	}
	return &ExportRendering{
		Payload:     payload,
		ContentType: contentType,
		Filename:    filepath.Base(relPath),
	}, nil
}

// buildCapacityDataset flattens the plan into the tabular export shape:
// a key/value summary block plus one row per high-risk hour.
func buildCapacityDataset(plan *models.ProviderCapacityPlan) export.Dataset {
	summary := [][2]string{
		{"Provider ID", plan.ProviderID},
		{"Recommended Capacity (slots/day)", fmt.Sprintf("%d", plan.RecommendedCapacity)},
		{"Overbooking Enabled", fmt.Sprintf("%t", plan.Overbooking.Enabled)},
		{"Overbooking Percentage", fmt.Sprintf("%.1f%%", plan.Overbooking.Percentage*100)},
		{"Forecast Expected", fmt.Sprintf("%.1f%%", plan.Forecast.Expected*100)},
		{"Forecast Optimistic", fmt.Sprintf("%.1f%%", plan.Forecast.Optimistic*100)},
		{"Forecast Pessimistic", fmt.Sprintf("%.1f%%", plan.Forecast.Pessimistic*100)},
		{"Generated At", plan.GeneratedAt.UTC().Format(time.RFC3339)},
	}

	rows := make([]map[string]string, 0, len(plan.RiskMitigation.HighRiskHours))
	for _, hour := range plan.RiskMitigation.HighRiskHours {
		overbookTarget := "no"
		for _, target := range plan.Overbooking.TargetHours {
			if target == hour {
				overbookTarget = "yes"
				break
			}
		}
		rows = append(rows, map[string]string{
			"High-Risk Hour":   fmt.Sprintf("%02d:00", hour),
			"Overbook Target":  overbookTarget,
			"Mitigation Notes": strings.Join(plan.RiskMitigation.RecommendedActions, "; "),
		})
	}

	return export.Dataset{
		Summary: summary,
		Headers: []string{"High-Risk Hour", "Overbook Target", "Mitigation Notes"},
		Rows:    rows,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
