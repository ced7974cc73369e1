package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/errors"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

// TransactionSink receives the normalized batch. internal/transactions
// satisfies it.
type TransactionSink interface {
	IngestBatch(ctx context.Context, orgID uuid.UUID, txns []models.UnifiedTransaction) (int, error)
}

// Report summarizes one workbook ingestion.
type Report struct {
	Format    string   `json:"format"`
	Accepted  int      `json:"accepted"`
	Rejected  int      `json:"rejected"`
	RowErrors []string `json:"row_errors,omitempty"`
}

// Service turns uploaded workbooks into stored unified transactions.
type Service interface {
	IngestWorkbook(ctx context.Context, orgID uuid.UUID, r io.Reader) (*Report, error)
}

type service struct {
	registry *Registry
	sink     TransactionSink
	log      *logger.Logger
}

// NewService wires workbook ingestion.
func NewService(registry *Registry, sink TransactionSink, log *logger.Logger) Service {
	return &service{registry: registry, sink: sink, log: log}
}

// IngestWorkbook parses, detects the source format, normalizes row by row
// and stores the batch. Malformed rows are rejected individually and
// reported; they never fail the workbook.
func (s *service) IngestWorkbook(ctx context.Context, orgID uuid.UUID, r io.Reader) (*Report, error) {
	if orgID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "org_id is required")
	}
	wb, err := ReadWorkbook(r)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "unreadable workbook")
	}
	normalizer := s.registry.Detect(wb.Headers)
	if normalizer == nil {
		return nil, errors.New(errors.CodeValidation,
			fmt.Sprintf("no known format matches headers [%s]", strings.Join(wb.Headers, ", "))).
			WithDetails(map[string]any{"headers": wb.Headers})
	}

	report := &Report{Format: normalizer.Name()}
	batch := make([]models.UnifiedTransaction, 0, len(wb.Rows))
	for i, row := range wb.Rows {
		txn, err := normalizer.Normalize(row)
		if err != nil {
			report.Rejected++
			report.RowErrors = append(report.RowErrors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		batch = append(batch, *txn)
	}

	accepted, err := s.sink.IngestBatch(ctx, orgID, batch)
	if err != nil {
		return nil, err
	}
	report.Accepted = accepted

	ctx = s.log.WithOrgID(ctx, orgID.String())
	s.log.Info(ctx, fmt.Sprintf("ingested workbook sheet %q as %s: %d accepted, %d rejected",
		wb.Sheet, report.Format, report.Accepted, report.Rejected))
	return report, nil
}
