package ingest

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

type fakeSink struct {
	batches [][]models.UnifiedTransaction
}

func (s *fakeSink) IngestBatch(_ context.Context, orgID uuid.UUID, txns []models.UnifiedTransaction) (int, error) {
	for i := range txns {
		txns[i].OrgID = orgID
	}
	s.batches = append(s.batches, txns)
	return len(txns), nil
}

func workbookBytes(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func testIngestService(sink TransactionSink) Service {
	log := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	return NewService(NewRegistry(), sink, log)
}

func TestIngestPurchaseOrderWorkbook(t *testing.T) {
	reader := workbookBytes(t, [][]any{
		{"SKU", "Planned Cost", "Committed Quantity", "PO Date", "Supplier"},
		{"WIDGET-001", "1000.00", "100", "2025-01-01", "Acme Corp"},
		{"GADGET-002", "$2,500.50", "40", "2025-01-05", "Acme Corp"},
	})

	sink := &fakeSink{}
	report, err := testIngestService(sink).IngestWorkbook(context.Background(), uuid.New(), reader)
	require.NoError(t, err)

	assert.Equal(t, "purchase_orders", report.Format)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 0, report.Rejected)

	require.Len(t, sink.batches, 1)
	batch := sink.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, enums.TransactionTypePurchase, batch[0].Type)
	assert.Equal(t, "WIDGET-001", batch[0].SKU)
	require.NotNil(t, batch[0].PlannedCost)
	assert.Equal(t, "1000", batch[0].PlannedCost.String())
	require.NotNil(t, batch[1].PlannedCost)
	assert.Equal(t, "2500.5", batch[1].PlannedCost.String())
	require.NotNil(t, batch[0].PODate)
	assert.Equal(t, "Acme Corp", batch[0].SupplierName)
}

func TestIngestRejectsMalformedRowsIndividually(t *testing.T) {
	reader := workbookBytes(t, [][]any{
		{"sku", "planned_cost", "po_date"},
		{"WIDGET-001", "1000", "2025-01-01"},
		{"GADGET-002", "not-a-number", "2025-01-02"},
		{"CABLE-003", "50", "sometime in march"},
	})

	sink := &fakeSink{}
	report, err := testIngestService(sink).IngestWorkbook(context.Background(), uuid.New(), reader)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, 2, report.Rejected)
	require.Len(t, report.RowErrors, 2)
	assert.Contains(t, report.RowErrors[0], "row 3")
	assert.Contains(t, report.RowErrors[1], "row 4")
}

func TestIngestUnknownFormat(t *testing.T) {
	reader := workbookBytes(t, [][]any{
		{"color", "size", "mood"},
		{"red", "xl", "fine"},
	})

	_, err := testIngestService(&fakeSink{}).IngestWorkbook(context.Background(), uuid.New(), reader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VALIDATION_ERROR")
}

func TestIngestShipmentWorkbook(t *testing.T) {
	reader := workbookBytes(t, [][]any{
		{"sku", "received_quantity", "ship_date", "received_date", "freight_cost"},
		{"WIDGET-001", "92", "2025-02-20", "2025-03-01", "150.00"},
	})

	sink := &fakeSink{}
	report, err := testIngestService(sink).IngestWorkbook(context.Background(), uuid.New(), reader)
	require.NoError(t, err)

	assert.Equal(t, "shipments", report.Format)
	batch := sink.batches[0]
	require.Len(t, batch, 1)
	assert.Equal(t, enums.TransactionTypeShipment, batch[0].Type)
	require.NotNil(t, batch[0].ReceivedQuantity)
	assert.Equal(t, float64(92), *batch[0].ReceivedQuantity)
	require.NotNil(t, batch[0].ShipDate)
	require.NotNil(t, batch[0].ReceivedDate)
}

func TestIngestGenericUnifiedWorkbook(t *testing.T) {
	reader := workbookBytes(t, [][]any{
		{"sku", "type", "actual_cost", "transaction_date", "confidence"},
		{"WIDGET-001", "invoice", "1250", "2025-01-20", "0.85"},
	})

	sink := &fakeSink{}
	report, err := testIngestService(sink).IngestWorkbook(context.Background(), uuid.New(), reader)
	require.NoError(t, err)

	assert.Equal(t, "unified", report.Format)
	batch := sink.batches[0]
	require.Len(t, batch, 1)
	assert.Equal(t, enums.TransactionTypeInvoice, batch[0].Type)
	require.NotNil(t, batch[0].DocumentConfidence)
	assert.Equal(t, 0.85, *batch[0].DocumentConfidence)
}

func TestRegistryDetectionPrecedence(t *testing.T) {
	registry := NewRegistry()

	po := registry.Detect([]string{"SKU", "Planned Cost", "PO Date", "Type"})
	require.NotNil(t, po)
	assert.Equal(t, "purchase_orders", po.Name(), "specific formats win over the generic one")

	assert.Nil(t, registry.Detect([]string{"a", "b"}))
}
