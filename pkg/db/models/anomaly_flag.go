package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
)

// AnomalyFlag is one structured anomaly reason attached to a transaction.
// Flags are append-only within a reconciliation pass and idempotent across
// re-runs: an identical (reason, detail) pair is never appended twice.
type AnomalyFlag struct {
	Reason   enums.AnomalyReason `json:"reason"`
	Severity enums.Severity      `json:"severity"`
	Detail   string              `json:"detail"`
	Impact   decimal.Decimal     `json:"impact"`
}

// Equivalent reports whether two flags describe the same anomaly for
// idempotency purposes.
func (f AnomalyFlag) Equivalent(other AnomalyFlag) bool {
	return f.Reason == other.Reason && f.Detail == other.Detail
}

// AnomalyFlags is the ordered flag list, persisted as a JSON column.
type AnomalyFlags []AnomalyFlag

// Contains reports whether an equivalent flag is already present.
func (fs AnomalyFlags) Contains(flag AnomalyFlag) bool {
	for _, existing := range fs {
		if existing.Equivalent(flag) {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer.
func (fs AnomalyFlags) Value() (driver.Value, error) {
	if fs == nil {
		fs = AnomalyFlags{}
	}
	data, err := json.Marshal(fs)
	if err != nil {
		return nil, fmt.Errorf("marshal anomaly flags: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (fs *AnomalyFlags) Scan(src any) error {
	if src == nil {
		*fs = AnomalyFlags{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, fs)
	case string:
		return json.Unmarshal([]byte(v), fs)
	default:
		return fmt.Errorf("AnomalyFlags: unsupported Scan type %T", src)
	}
}
