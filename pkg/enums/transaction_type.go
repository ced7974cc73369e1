package enums

import "fmt"

// TransactionType classifies a unified transaction record. Values match the
// wire contract used by the upstream normalizer and extraction services.
type TransactionType string

const (
	TransactionTypeSale      TransactionType = "SALE"
	TransactionTypePurchase  TransactionType = "PURCHASE"
	TransactionTypeInventory TransactionType = "INVENTORY"
	TransactionTypeShipment  TransactionType = "SHIPMENT"
	TransactionTypeInvoice   TransactionType = "INVOICE"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeSale,
	TransactionTypePurchase,
	TransactionTypeInventory,
	TransactionTypeShipment,
	TransactionTypeInvoice,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the transaction type is recognized.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts a raw string into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
