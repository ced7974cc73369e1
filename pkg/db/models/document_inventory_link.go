package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentInventoryLink is the per-SKU rollup correlating document-sourced
// records. Created the first time two linked records share a SKU within an
// org, updated as further records arrive, never deleted (audit history).
type DocumentInventoryLink struct {
	ID    uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID uuid.UUID `gorm:"column:org_id;type:uuid;not null;uniqueIndex:uniq_links_org_sku,priority:1" json:"org_id"`
	SKU   string    `gorm:"column:sku;not null;uniqueIndex:uniq_links_org_sku,priority:2" json:"sku"`

	PurchaseTransactionID *uuid.UUID `gorm:"column:purchase_transaction_id;type:uuid" json:"purchase_transaction_id,omitempty"`
	InvoiceTransactionID  *uuid.UUID `gorm:"column:invoice_transaction_id;type:uuid" json:"invoice_transaction_id,omitempty"`
	ShipmentTransactionID *uuid.UUID `gorm:"column:shipment_transaction_id;type:uuid" json:"shipment_transaction_id,omitempty"`

	CommittedQuantity *float64 `gorm:"column:committed_quantity" json:"committed_quantity,omitempty"`
	InvoicedQuantity  *float64 `gorm:"column:invoiced_quantity" json:"invoiced_quantity,omitempty"`
	ReceivedQuantity  *float64 `gorm:"column:received_quantity" json:"received_quantity,omitempty"`

	PlannedUnitCost *decimal.Decimal `gorm:"column:planned_unit_cost;type:numeric" json:"planned_unit_cost,omitempty"`
	ActualUnitCost  *decimal.Decimal `gorm:"column:actual_unit_cost;type:numeric" json:"actual_unit_cost,omitempty"`
	// Landed cost: actual unit cost plus per-unit freight from the linked
	// shipment, when both are known.
	LandedUnitCost *decimal.Decimal `gorm:"column:landed_unit_cost;type:numeric" json:"landed_unit_cost,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the default pluralization.
func (DocumentInventoryLink) TableName() string {
	return "document_inventory_links"
}
