package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stylistiq/wardrobe-api/internal/models"
	appErrors "github.com/stylistiq/wardrobe-api/pkg/errors"
	"github.com/stylistiq/wardrobe-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportItemLister interface {
	ListOwned(ctx context.Context, owner models.Principal, filter models.ItemFilter) ([]models.ClothingItem, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is the rendered wardrobe inventory.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders a principal's wardrobe as a CSV inventory or a PDF
// lookbook.
type ExportService struct {
	items  exportItemLister
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService wires the export service.
func NewExportService(items exportItemLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{items: items, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the principal's full wardrobe in the requested format.
func (s *ExportService) Export(ctx context.Context, principal models.Principal, format ExportFormat) (*ExportResult, error) {
	items, _, err := s.items.ListOwned(ctx, principal, models.ItemFilter{Page: 1, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load wardrobe")
	}

	dataset := buildInventoryDataset(items)
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("wardrobe-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, "Wardrobe Lookbook")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("wardrobe-%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildInventoryDataset(items []models.ClothingItem) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		expires := ""
		if item.ExpiresAt != nil {
			expires = item.ExpiresAt.Format(time.RFC3339)
		}
		rows = append(rows, map[string]string{
			"ID":       item.ID,
			"Category": string(item.Category),
			"Colors":   strings.Join(item.ColorTags, ", "),
			"Styles":   strings.Join(item.StyleTags, ", "),
			"Seasons":  strings.Join(item.SeasonTags, ", "),
			"Pattern":  item.Pattern,
			"Created":  item.CreatedAt.Format(time.RFC3339),
			"Expires":  expires,
		})
	}
	return export.Dataset{
		Headers: []string{"ID", "Category", "Colors", "Styles", "Seasons", "Pattern", "Created", "Expires"},
		Rows:    rows,
	}
}
