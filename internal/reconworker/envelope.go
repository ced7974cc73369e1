package reconworker

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventTypeBatchIngested is the only event this worker consumes: a batch
// of unified transactions landed for an org and a reconciliation pass
// should run.
const EventTypeBatchIngested = "transaction_batch_ingested"

// PayloadEnvelope is the wire form of a batch event as published by the
// ingestion side.
type PayloadEnvelope struct {
	EventID    string          `json:"event_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// BatchPayload is the decoded event body. The dimension scores are
// optional upstream inputs forwarded into the run.
type BatchPayload struct {
	OrgID        uuid.UUID `json:"org_id"`
	ServiceScore *float64  `json:"service_score,omitempty"`
	CostScore    *float64  `json:"cost_score,omitempty"`
	CapitalScore *float64  `json:"capital_score,omitempty"`
}

// Envelope is the validated event handed to the handler.
type Envelope struct {
	EventID    uuid.UUID
	EventType  string
	OrgID      uuid.UUID
	OccurredAt time.Time
	Payload    BatchPayload
}
