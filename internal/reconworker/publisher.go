package reconworker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/supplypulse/supplypulse-backend/internal/reconciliation"
)

// AlertPublisher pushes a run's alerts onto the alert topic, one message
// per run keyed by run_id so downstream consumers can deduplicate.
type AlertPublisher struct {
	publisher *gcppubsub.Publisher
}

// NewAlertPublisher wraps the configured alert topic publisher.
func NewAlertPublisher(publisher *gcppubsub.Publisher) *AlertPublisher {
	return &AlertPublisher{publisher: publisher}
}

type alertBatchMessage struct {
	RunID       uuid.UUID              `json:"run_id"`
	OrgID       uuid.UUID              `json:"org_id"`
	PublishedAt time.Time              `json:"published_at"`
	Alerts      []reconciliation.Alert `json:"alerts"`
}

// PublishAlerts implements reconciliation.AlertPublisher.
func (p *AlertPublisher) PublishAlerts(ctx context.Context, orgID, runID uuid.UUID, alerts []reconciliation.Alert) error {
	if p == nil || p.publisher == nil || len(alerts) == 0 {
		return nil
	}
	data, err := json.Marshal(alertBatchMessage{
		RunID:       runID,
		OrgID:       orgID,
		PublishedAt: time.Now().UTC(),
		Alerts:      alerts,
	})
	if err != nil {
		return fmt.Errorf("marshal alert batch: %w", err)
	}

	result := p.publisher.Publish(ctx, &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": "reconciliation_alerts",
			"org_id":     orgID.String(),
			"run_id":     runID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish alert batch: %w", err)
	}
	return nil
}
