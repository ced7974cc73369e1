package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

// Normalizer turns one spreadsheet row of a known source format into a
// unified transaction. Implementations are registered once and selected
// by header detection.
type Normalizer interface {
	Name() string
	// Detect reports whether the header row looks like this format.
	Detect(headers []string) bool
	Normalize(row map[string]string) (*models.UnifiedTransaction, error)
}

// Registry holds the known source formats in registration order; the
// first matching normalizer wins.
type Registry struct {
	normalizers []Normalizer
}

// NewRegistry returns a registry preloaded with the built-in formats.
func NewRegistry() *Registry {
	return &Registry{normalizers: []Normalizer{
		purchaseOrderNormalizer{},
		invoiceNormalizer{},
		shipmentNormalizer{},
		genericNormalizer{},
	}}
}

// Register appends a custom format. Built-ins keep precedence.
func (r *Registry) Register(n Normalizer) {
	r.normalizers = append(r.normalizers, n)
}

// Detect picks the normalizer for a header row, or nil when no format
// claims it.
func (r *Registry) Detect(headers []string) Normalizer {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}
	for _, n := range r.normalizers {
		if n.Detect(normalized) {
			return n
		}
	}
	return nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

func hasHeaders(headers []string, required ...string) bool {
	present := map[string]bool{}
	for _, h := range headers {
		present[h] = true
	}
	for _, want := range required {
		if !present[want] {
			return false
		}
	}
	return true
}

// purchaseOrderNormalizer reads purchase order exports.
type purchaseOrderNormalizer struct{}

func (purchaseOrderNormalizer) Name() string { return "purchase_orders" }

func (purchaseOrderNormalizer) Detect(headers []string) bool {
	return hasHeaders(headers, "sku", "planned_cost", "po_date")
}

func (purchaseOrderNormalizer) Normalize(row map[string]string) (*models.UnifiedTransaction, error) {
	txn := &models.UnifiedTransaction{
		Type:         enums.TransactionTypePurchase,
		SKU:          strings.TrimSpace(row["sku"]),
		SupplierName: strings.TrimSpace(row["supplier"]),
		Currency:     currencyOrDefault(row["currency"]),
	}
	var err error
	if txn.PlannedCost, err = optionalDecimal(row["planned_cost"]); err != nil {
		return nil, fmt.Errorf("planned_cost: %w", err)
	}
	if txn.CommittedQuantity, err = optionalFloat(row["committed_quantity"]); err != nil {
		return nil, fmt.Errorf("committed_quantity: %w", err)
	}
	if txn.UnitCost, err = optionalDecimal(row["unit_cost"]); err != nil {
		return nil, fmt.Errorf("unit_cost: %w", err)
	}
	if txn.PODate, err = optionalDate(row["po_date"]); err != nil {
		return nil, fmt.Errorf("po_date: %w", err)
	}
	txn.TransactionDate = txn.PODate
	return txn, nil
}

// invoiceNormalizer reads supplier invoice exports.
type invoiceNormalizer struct{}

func (invoiceNormalizer) Name() string { return "invoices" }

func (invoiceNormalizer) Detect(headers []string) bool {
	return hasHeaders(headers, "sku", "actual_cost", "invoice_date")
}

func (invoiceNormalizer) Normalize(row map[string]string) (*models.UnifiedTransaction, error) {
	txn := &models.UnifiedTransaction{
		Type:         enums.TransactionTypeInvoice,
		SKU:          strings.TrimSpace(row["sku"]),
		SupplierName: strings.TrimSpace(row["supplier"]),
		Currency:     currencyOrDefault(row["currency"]),
	}
	var err error
	if txn.ActualCost, err = optionalDecimal(row["actual_cost"]); err != nil {
		return nil, fmt.Errorf("actual_cost: %w", err)
	}
	if txn.Quantity, err = optionalFloat(row["quantity"]); err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}
	if txn.TransactionDate, err = optionalDate(row["invoice_date"]); err != nil {
		return nil, fmt.Errorf("invoice_date: %w", err)
	}
	return txn, nil
}

// shipmentNormalizer reads freight and receiving exports.
type shipmentNormalizer struct{}

func (shipmentNormalizer) Name() string { return "shipments" }

func (shipmentNormalizer) Detect(headers []string) bool {
	return hasHeaders(headers, "sku", "received_quantity")
}

func (shipmentNormalizer) Normalize(row map[string]string) (*models.UnifiedTransaction, error) {
	txn := &models.UnifiedTransaction{
		Type:     enums.TransactionTypeShipment,
		SKU:      strings.TrimSpace(row["sku"]),
		Currency: currencyOrDefault(row["currency"]),
	}
	var err error
	if txn.ReceivedQuantity, err = optionalFloat(row["received_quantity"]); err != nil {
		return nil, fmt.Errorf("received_quantity: %w", err)
	}
	if txn.TotalCost, err = optionalDecimal(row["freight_cost"]); err != nil {
		return nil, fmt.Errorf("freight_cost: %w", err)
	}
	if txn.ShipDate, err = optionalDate(row["ship_date"]); err != nil {
		return nil, fmt.Errorf("ship_date: %w", err)
	}
	if txn.ReceivedDate, err = optionalDate(row["received_date"]); err != nil {
		return nil, fmt.Errorf("received_date: %w", err)
	}
	txn.TransactionDate = txn.ReceivedDate
	return txn, nil
}

// genericNormalizer reads pre-unified exports that carry their own type
// column. Registered last so the specific formats win detection.
type genericNormalizer struct{}

func (genericNormalizer) Name() string { return "unified" }

func (genericNormalizer) Detect(headers []string) bool {
	return hasHeaders(headers, "sku", "type")
}

func (genericNormalizer) Normalize(row map[string]string) (*models.UnifiedTransaction, error) {
	txnType, err := enums.ParseTransactionType(strings.ToUpper(strings.TrimSpace(row["type"])))
	if err != nil {
		return nil, err
	}
	txn := &models.UnifiedTransaction{
		Type:         txnType,
		SKU:          strings.TrimSpace(row["sku"]),
		SupplierName: strings.TrimSpace(row["supplier"]),
		Currency:     currencyOrDefault(row["currency"]),
	}
	if txn.Quantity, err = optionalFloat(row["quantity"]); err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}
	if txn.CommittedQuantity, err = optionalFloat(row["committed_quantity"]); err != nil {
		return nil, fmt.Errorf("committed_quantity: %w", err)
	}
	if txn.ReceivedQuantity, err = optionalFloat(row["received_quantity"]); err != nil {
		return nil, fmt.Errorf("received_quantity: %w", err)
	}
	if txn.PlannedCost, err = optionalDecimal(row["planned_cost"]); err != nil {
		return nil, fmt.Errorf("planned_cost: %w", err)
	}
	if txn.ActualCost, err = optionalDecimal(row["actual_cost"]); err != nil {
		return nil, fmt.Errorf("actual_cost: %w", err)
	}
	if txn.TotalCost, err = optionalDecimal(row["total_cost"]); err != nil {
		return nil, fmt.Errorf("total_cost: %w", err)
	}
	if txn.PODate, err = optionalDate(row["po_date"]); err != nil {
		return nil, fmt.Errorf("po_date: %w", err)
	}
	if txn.ShipDate, err = optionalDate(row["ship_date"]); err != nil {
		return nil, fmt.Errorf("ship_date: %w", err)
	}
	if txn.ReceivedDate, err = optionalDate(row["received_date"]); err != nil {
		return nil, fmt.Errorf("received_date: %w", err)
	}
	if txn.TransactionDate, err = optionalDate(row["transaction_date"]); err != nil {
		return nil, fmt.Errorf("transaction_date: %w", err)
	}
	if txn.DocumentConfidence, err = optionalFloat(row["confidence"]); err != nil {
		return nil, fmt.Errorf("confidence: %w", err)
	}
	return txn, nil
}

func currencyOrDefault(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return "USD"
	}
	return raw
}

func optionalDecimal(raw string) (*decimal.Decimal, error) {
	raw = cleanNumeric(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return &d, nil
}

func optionalFloat(raw string) (*float64, error) {
	raw = cleanNumeric(raw)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", raw)
	}
	return &f, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"1/2/06 15:04", // excelize default for date cells
}

func optionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", raw)
}

func cleanNumeric(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "$")
	return strings.ReplaceAll(raw, ",", "")
}
