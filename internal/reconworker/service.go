package reconworker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

const reconConsumerName = "reconciliation"

// Handler defines how to process batch envelopes.
type Handler interface {
	Handle(ctx context.Context, envelope Envelope) error
}

// HandlerFunc adapts functions to the Handler interface.
type HandlerFunc func(ctx context.Context, envelope Envelope) error

// Handle calls the underlying function.
func (fn HandlerFunc) Handle(ctx context.Context, envelope Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Service consumes batch events from Pub/Sub while honoring Redis
// idempotency, triggering one reconciliation run per accepted event.
type Service struct {
	subscription *gcppubsub.Subscriber
	handler      Handler
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewService creates a new reconciliation worker service.
func NewService(subscription *gcppubsub.Subscriber, handler Handler, manager idempotencyChecker, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("batch subscription is required")
	}
	if handler == nil {
		return nil, errors.New("batch handler is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	return &Service{
		subscription: subscription,
		handler:      handler,
		manager:      manager,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run starts consuming batch messages until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := s.logg.WithFields(ctx, fields)

	envelope, err := s.buildEnvelope(msg)
	if err != nil {
		// Malformed messages never become processable; ack so they stop
		// redelivering.
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "invalid batch envelope")
		return processResult{}
	}
	fields["event_id"] = envelope.EventID.String()
	fields["event_type"] = envelope.EventType
	fields["org_id"] = envelope.OrgID.String()
	fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	logCtx = s.logg.WithFields(ctx, fields)

	already, err := s.manager.CheckAndMarkProcessed(logCtx, reconConsumerName, envelope.EventID)
	if err != nil {
		s.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		s.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	if err := s.handler.Handle(logCtx, *envelope); err != nil {
		s.logg.Error(logCtx, "handler error", err)
		_ = s.manager.Delete(logCtx, reconConsumerName, envelope.EventID)
		return processResult{nack: true}
	}

	s.logg.Info(logCtx, "batch event handled")
	return processResult{}
}

func (s *Service) buildEnvelope(msg *gcppubsub.Message) (*Envelope, error) {
	var stored PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}

	eventType := strings.TrimSpace(msg.Attributes["event_type"])
	if eventType == "" {
		eventType = EventTypeBatchIngested
	}
	if eventType != EventTypeBatchIngested {
		return nil, fmt.Errorf("unsupported event type %q", eventType)
	}

	eventIDStr := strings.TrimSpace(stored.EventID)
	if eventIDStr == "" {
		eventIDStr = strings.TrimSpace(msg.Attributes["event_id"])
	}
	eventID, err := uuid.Parse(eventIDStr)
	if err != nil {
		return nil, fmt.Errorf("event_id: %w", err)
	}

	var payload BatchPayload
	if len(stored.Data) > 0 {
		if err := json.Unmarshal(stored.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode batch payload: %w", err)
		}
	}
	if payload.OrgID == uuid.Nil {
		if parsed, err := uuid.Parse(strings.TrimSpace(msg.Attributes["org_id"])); err == nil {
			payload.OrgID = parsed
		}
	}
	if payload.OrgID == uuid.Nil {
		return nil, errors.New("org_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return &Envelope{
		EventID:    eventID,
		EventType:  eventType,
		OrgID:      payload.OrgID,
		OccurredAt: occurredAt.UTC(),
		Payload:    payload,
	}, nil
}
