package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

// Skip reasons for comparisons dropped over a data gap. Gaps are never
// failures; they are counted and reported so the caller can see what the
// run could not evaluate.
const (
	SkipCurrencyMismatch   = "currency_mismatch"
	SkipMissingPlannedCost = "missing_planned_cost"
	SkipMissingActualCost  = "missing_actual_cost"
	SkipMissingQuantity    = "missing_quantity"
	SkipMissingDate        = "missing_date"
	SkipUnlinkable         = "unlinkable"
)

// CostVariance is one planned-versus-actual divergence between a purchase
// commitment and its paired invoice.
type CostVariance struct {
	SKU          string           `json:"sku"`
	PurchaseID   uuid.UUID        `json:"purchase_transaction_id"`
	InvoiceID    uuid.UUID        `json:"invoice_transaction_id"`
	SupplierName string           `json:"supplier_name,omitempty"`
	PlannedCost  decimal.Decimal  `json:"planned_cost"`
	ActualCost   decimal.Decimal  `json:"actual_cost"`
	Variance     decimal.Decimal  `json:"variance"`
	VariancePct  float64          `json:"variance_percentage"`
	Currency     string           `json:"currency"`
}

// QuantityDiscrepancy is a committed-versus-received divergence between a
// purchase commitment and its paired receipt.
type QuantityDiscrepancy struct {
	SKU               string          `json:"sku"`
	PurchaseID        uuid.UUID       `json:"purchase_transaction_id"`
	ReceiptID         uuid.UUID       `json:"receipt_transaction_id"`
	SupplierName      string          `json:"supplier_name,omitempty"`
	CommittedQuantity float64         `json:"committed_quantity"`
	ReceivedQuantity  float64         `json:"received_quantity"`
	Discrepancy       float64         `json:"discrepancy"`
	// EstimatedImpact prices the missing or surplus units at the best
	// known unit cost; zero when no unit cost is resolvable.
	EstimatedImpact decimal.Decimal `json:"estimated_impact"`
}

// TimelineObservation is one resolvable supply interval for a SKU.
type TimelineObservation struct {
	SKU               string    `json:"sku"`
	PurchaseID        uuid.UUID `json:"purchase_transaction_id,omitempty"`
	ReceiptID         uuid.UUID `json:"receipt_transaction_id,omitempty"`
	POToReceiptDays   *int      `json:"po_to_receipt_days,omitempty"`
	ShipToReceiptDays *int      `json:"ship_to_receipt_days,omitempty"`
}

// FlagRequest asks the store layer to append one anomaly flag to a
// transaction. Appends are idempotent on (reason, detail), so the detail
// strings must be deterministic across runs.
type FlagRequest struct {
	TransactionID uuid.UUID
	Flag          models.AnomalyFlag
	// Compromised marks the transaction's inventory as compromised in
	// addition to flagging it.
	Compromised bool
}

// StatusUpdate asks the store layer to move a transaction's lifecycle or
// compliance state.
type StatusUpdate struct {
	TransactionID    uuid.UUID
	InventoryStatus  *enums.InventoryStatus
	ComplianceStatus *enums.ComplianceStatus
}

// PartitionResult is everything the linkage pass derived from one
// (org_id, sku) partition.
type PartitionResult struct {
	SKU                   string
	CostVariances         []CostVariance
	QuantityDiscrepancies []QuantityDiscrepancy
	TimelineObservations  []TimelineObservation
	FlagRequests          []FlagRequest
	Link                  *models.DocumentInventoryLink
	Skips                 map[string]int
	Unmatched             int
}

// Results is the merged output of all partitions of a run, ordered by SKU
// so the merge is independent of worker scheduling.
type Results struct {
	Partitions            []*PartitionResult
	CostVariances         []CostVariance
	QuantityDiscrepancies []QuantityDiscrepancy
	TimelineObservations  []TimelineObservation
	FlagRequests          []FlagRequest
	Links                 []*models.DocumentInventoryLink
	Skips                 map[string]int
	Unmatched             int
	IncompleteSKUs        []string
}

// Opportunity is a supplier-level aggregation of divergence impacts that
// crossed a materiality floor.
type Opportunity struct {
	Type              enums.OpportunityType `json:"type"`
	SupplierName      string                `json:"supplier_name"`
	ItemCount         int                   `json:"item_count"`
	TotalImpact       decimal.Decimal       `json:"total_impact"`
	PotentialSavings  decimal.Decimal       `json:"potential_savings"`
	RecommendedAction string                `json:"recommended_action"`
	Priority          enums.Severity        `json:"priority"`
}

// CompositeScore is the four-dimension health score with its harmonic-mean
// overall value and balance index.
type CompositeScore struct {
	ServiceScore  float64 `json:"service_score"`
	CostScore     float64 `json:"cost_score"`
	CapitalScore  float64 `json:"capital_score"`
	DocumentScore float64 `json:"document_score"`

	OverallScore float64 `json:"overall_score"`
	BalanceIndex float64 `json:"balance_index"`

	WeakestDimension   enums.ScoreDimension `json:"weakest_dimension"`
	StrongestDimension enums.ScoreDimension `json:"strongest_dimension"`
}

// Alert is one deduplicated, severity-ranked alert projected from the
// compromised anomalies of a run.
type Alert struct {
	Type              enums.AnomalyReason `json:"type"`
	Severity          enums.Severity      `json:"severity"`
	SKU               string              `json:"sku"`
	Title             string              `json:"title"`
	Message           string              `json:"message"`
	RecommendedAction string              `json:"recommended_action"`
	FinancialImpact   decimal.Decimal     `json:"financial_impact"`
	Timestamp         time.Time           `json:"timestamp"`
}

// CrossReferenceSummary reports what the linkage pass found and what it
// had to skip.
type CrossReferenceSummary struct {
	CostVariances         []CostVariance        `json:"cost_variances"`
	QuantityDiscrepancies []QuantityDiscrepancy `json:"quantity_discrepancies"`
	TimelineObservations  []TimelineObservation `json:"timeline_observations"`
	UnmatchedRecords      int                   `json:"unmatched_records"`
	SkippedComparisons    map[string]int        `json:"skipped_comparisons"`
}

// InventoryIntelligence summarizes inventory state after classification.
type InventoryIntelligence struct {
	TotalTracked     int            `json:"total_tracked"`
	CountsByStatus   map[string]int `json:"counts_by_status"`
	CompromisedSKUs  []string       `json:"compromised_skus"`
	CompromisedCount int            `json:"compromised_count"`
}

// CostIntelligence summarizes financial exposure and supplier
// opportunities.
type CostIntelligence struct {
	TotalVarianceImpact decimal.Decimal `json:"total_variance_impact"`
	Opportunities       []Opportunity   `json:"opportunities"`
}

// TimelineIntelligence summarizes supply timelines.
type TimelineIntelligence struct {
	AveragePOToReceiptDays   float64  `json:"average_po_to_receipt_days"`
	AverageShipToReceiptDays float64  `json:"average_ship_to_receipt_days"`
	DelayedSKUs              []string `json:"delayed_skus"`
}

// RunSummary reports run mechanics: what was processed and what did not
// finish.
type RunSummary struct {
	RunID                 uuid.UUID       `json:"run_id"`
	OrgID                 uuid.UUID       `json:"org_id"`
	Status                enums.RunStatus `json:"status"`
	TransactionsProcessed int             `json:"transactions_processed"`
	PartitionsProcessed   int             `json:"partitions_processed"`
	IncompleteSKUs        []string        `json:"incomplete_skus,omitempty"`
	StartedAt             time.Time       `json:"started_at"`
	FinishedAt            time.Time       `json:"finished_at"`
}

// ComprehensiveAnalysis is the full payload of one reconciliation run.
type ComprehensiveAnalysis struct {
	Run            RunSummary            `json:"run"`
	CrossReference CrossReferenceSummary `json:"cross_reference"`
	Inventory      InventoryIntelligence `json:"inventory"`
	Cost           CostIntelligence      `json:"cost"`
	Timeline       TimelineIntelligence  `json:"timeline"`
	Score          CompositeScore        `json:"score"`
	Alerts         []Alert               `json:"alerts"`
}
