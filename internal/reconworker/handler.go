package reconworker

import (
	"context"

	"github.com/supplypulse/supplypulse-backend/internal/reconciliation"
)

// NewRunHandler maps a batch event onto one engine run.
func NewRunHandler(engine reconciliation.Service) Handler {
	return HandlerFunc(func(ctx context.Context, envelope Envelope) error {
		_, err := engine.Reconcile(ctx, reconciliation.RunInput{
			OrgID:        envelope.OrgID,
			ServiceScore: envelope.Payload.ServiceScore,
			CostScore:    envelope.Payload.CostScore,
			CapitalScore: envelope.Payload.CapitalScore,
		})
		return err
	})
}
