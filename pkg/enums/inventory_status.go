package enums

import "fmt"

// InventoryStatus tracks where a transaction's stock sits in its lifecycle.
type InventoryStatus string

const (
	InventoryStatusCommitted   InventoryStatus = "committed"
	InventoryStatusInTransit   InventoryStatus = "in_transit"
	InventoryStatusReceived    InventoryStatus = "received"
	InventoryStatusAvailable   InventoryStatus = "available"
	InventoryStatusCompromised InventoryStatus = "compromised"
)

var validInventoryStatuses = []InventoryStatus{
	InventoryStatusCommitted,
	InventoryStatusInTransit,
	InventoryStatusReceived,
	InventoryStatusAvailable,
	InventoryStatusCompromised,
}

// IsValid reports whether the status is recognized.
func (s InventoryStatus) IsValid() bool {
	for _, candidate := range validInventoryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInventoryStatus converts raw input into an InventoryStatus.
func ParseInventoryStatus(value string) (InventoryStatus, error) {
	for _, candidate := range validInventoryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory status %q", value)
}
