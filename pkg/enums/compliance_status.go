package enums

import "fmt"

// ComplianceStatus reflects document-level compliance of a transaction.
type ComplianceStatus string

const (
	ComplianceStatusPending   ComplianceStatus = "pending"
	ComplianceStatusCompliant ComplianceStatus = "compliant"
	ComplianceStatusAtRisk    ComplianceStatus = "at_risk"
	ComplianceStatusViolated  ComplianceStatus = "violated"
)

var validComplianceStatuses = []ComplianceStatus{
	ComplianceStatusPending,
	ComplianceStatusCompliant,
	ComplianceStatusAtRisk,
	ComplianceStatusViolated,
}

// IsValid reports whether the status is recognized.
func (s ComplianceStatus) IsValid() bool {
	for _, candidate := range validComplianceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseComplianceStatus converts raw input into a ComplianceStatus.
func ParseComplianceStatus(value string) (ComplianceStatus, error) {
	for _, candidate := range validComplianceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid compliance status %q", value)
}
