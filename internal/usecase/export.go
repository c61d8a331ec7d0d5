package usecase

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-cv-fairness/internal/domain"
)

const timeLayout = time.RFC3339

// CSVHeader is the column order of the flat audit export.
var CSVHeader = []string{"batch_id", "created_at", "job_id", "candidate_id", "total_before", "total_after", "delta", "flag_types"}

// ExportService renders stored batches as JSON or CSV documents.
type ExportService struct {
	Batches domain.BatchRepository
}

// NewExportService constructs an ExportService with the given repository.
func NewExportService(b domain.BatchRepository) ExportService { return ExportService{Batches: b} }

// JSON returns the full batch record.
func (s ExportService) JSON(ctx domain.Context, batchID string) ([]byte, error) {
	ctx, span := otel.Tracer("usecase.export").Start(ctx, "export.JSON")
	defer span.End()
	b, err := s.Batches.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("op=export.json: %w", err)
	}
	return out, nil
}

// CSV returns one row per candidate with totals formatted to two decimals.
func (s ExportService) CSV(ctx domain.Context, batchID string) ([]byte, error) {
	ctx, span := otel.Tracer("usecase.export").Start(ctx, "export.CSV")
	defer span.End()
	b, err := s.Batches.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return EncodeCSV(b)
}

// EncodeCSV renders b in the flat CSV layout.
func EncodeCSV(b domain.Batch) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("op=export.csv: %w", err)
	}
	created := b.CreatedAt.UTC().Format(timeLayout)
	for _, c := range b.Candidates {
		row := []string{
			b.ID,
			created,
			b.JobID,
			c.CandidateID,
			formatScore(c.TotalBefore),
			formatScore(c.TotalAfter),
			formatScore(c.Delta),
			strings.Join(c.Flags, ","),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("op=export.csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("op=export.csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatScore(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
