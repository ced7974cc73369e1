package enums

import "fmt"

// OpportunityType distinguishes the supplier-level rollups the aggregator emits.
type OpportunityType string

const (
	OpportunityTypeRecovery         OpportunityType = "recovery"
	OpportunityTypeCostOptimization OpportunityType = "cost_optimization"
)

var validOpportunityTypes = []OpportunityType{
	OpportunityTypeRecovery,
	OpportunityTypeCostOptimization,
}

// IsValid reports whether the opportunity type is recognized.
func (o OpportunityType) IsValid() bool {
	for _, candidate := range validOpportunityTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOpportunityType converts raw input into an OpportunityType.
func ParseOpportunityType(value string) (OpportunityType, error) {
	for _, candidate := range validOpportunityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid opportunity type %q", value)
}
