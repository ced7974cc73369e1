package reconciliation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/supplypulse/supplypulse-backend/pkg/config"
	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
	"github.com/supplypulse/supplypulse-backend/pkg/errors"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
	"github.com/supplypulse/supplypulse-backend/pkg/metrics"
)

// TransactionStore is the slice of the transaction accessor the engine
// needs. internal/transactions.Service satisfies it.
type TransactionStore interface {
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.UnifiedTransaction, error)
	AppendAnomalyFlag(ctx context.Context, orgID, id uuid.UUID, flag models.AnomalyFlag) (bool, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, inventory *enums.InventoryStatus, compliance *enums.ComplianceStatus) error
}

// AlertPublisher pushes a run's alerts to downstream consumers. A nil
// publisher disables publishing.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, orgID, runID uuid.UUID, alerts []Alert) error
}

// RunInput is one reconciliation request. The service, cost and capital
// dimension scores arrive from upstream systems; absent values default to
// a clean 100 so the document dimension alone cannot be masked by missing
// inputs.
type RunInput struct {
	OrgID        uuid.UUID
	ServiceScore *float64
	CostScore    *float64
	CapitalScore *float64
}

// Service runs the reconciliation engine and serves its persisted output.
type Service interface {
	Reconcile(ctx context.Context, input RunInput) (*ComprehensiveAnalysis, error)
	GetRun(ctx context.Context, orgID, runID uuid.UUID) (*models.ReconciliationRun, error)
	ListRuns(ctx context.Context, orgID uuid.UUID, limit int) ([]models.ReconciliationRun, error)
	ListAlerts(ctx context.Context, orgID uuid.UUID, runID *uuid.UUID) ([]models.AlertRecord, error)
}

type service struct {
	repo            Repository
	txns            TransactionStore
	runner          *runner
	publisher       AlertPublisher
	log             *logger.Logger
	metrics         *metrics.ReconMetrics
	policies        Policies
	confidenceFloor float64
}

// NewService wires the engine. publisher may be nil.
func NewService(
	repo Repository,
	txns TransactionStore,
	publisher AlertPublisher,
	log *logger.Logger,
	m *metrics.ReconMetrics,
	reconCfg config.ReconciliationConfig,
	ingestCfg config.IngestConfig,
) Service {
	return &service{
		repo:            repo,
		txns:            txns,
		runner:          newRunner(log, m),
		publisher:       publisher,
		log:             log,
		metrics:         m,
		policies:        PoliciesFromConfig(reconCfg),
		confidenceFloor: ingestCfg.ConfidenceFloor,
	}
}

// Reconcile executes one full engine pass for an org: cross-reference,
// classification, opportunity aggregation, scoring and alerting. Data gaps
// are skipped and counted; only a cross-tenant record aborts the run.
func (s *service) Reconcile(ctx context.Context, input RunInput) (*ComprehensiveAnalysis, error) {
	if input.OrgID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "org_id is required")
	}
	runID := uuid.New()
	startedAt := time.Now().UTC()
	ctx = s.log.WithRunID(s.log.WithOrgID(ctx, input.OrgID.String()), runID.String())
	s.log.Info(ctx, "reconciliation run started")

	txns, err := s.txns.ListByOrg(ctx, input.OrgID)
	if err != nil {
		s.metrics.IncRunFailure(input.OrgID.String())
		return nil, err
	}

	partitions := map[string][]models.UnifiedTransaction{}
	unlinkable := 0
	for _, t := range txns {
		if !t.Linkable() {
			unlinkable++
			continue
		}
		partitions[t.SKU] = append(partitions[t.SKU], t)
	}

	results, runErr := s.runner.process(ctx, input.OrgID, partitions, s.policies)
	if results == nil {
		// Tenant isolation failed; nothing derived from the poisoned
		// partition set may be kept.
		s.metrics.IncRunFailure(input.OrgID.String())
		s.persistAbortedRun(ctx, runID, input.OrgID, startedAt, len(txns))
		return nil, runErr
	}
	if unlinkable > 0 {
		results.Skips[SkipUnlinkable] += unlinkable
	}

	cls := classify(results, txns, s.policies, s.confidenceFloor)

	var writeErrs error
	for _, req := range cls.FlagRequests {
		if _, err := s.txns.AppendAnomalyFlag(ctx, input.OrgID, req.TransactionID, req.Flag); err != nil {
			writeErrs = multierr.Append(writeErrs, fmt.Errorf("flag %s on %s: %w", req.Flag.Reason, req.TransactionID, err))
		}
	}
	for _, update := range cls.StatusUpdates {
		if err := s.txns.UpdateStatus(ctx, input.OrgID, update.TransactionID, update.InventoryStatus, update.ComplianceStatus); err != nil {
			writeErrs = multierr.Append(writeErrs, fmt.Errorf("status of %s: %w", update.TransactionID, err))
		}
	}
	for _, link := range results.Links {
		if err := s.repo.UpsertLink(ctx, link); err != nil {
			writeErrs = multierr.Append(writeErrs, fmt.Errorf("link for %s: %w", link.SKU, err))
		}
	}

	documentScore := 100.0
	if cls.EvaluatedCount > 0 {
		documentScore = float64(cls.CompliantCount) / float64(cls.EvaluatedCount) * 100
	}
	score := computeCompositeScore(
		dimensionInput(input.ServiceScore),
		dimensionInput(input.CostScore),
		dimensionInput(input.CapitalScore),
		documentScore,
	)
	alerts := buildAlerts(results, s.policies, startedAt)
	opportunities := aggregateOpportunities(results, s.policies)

	status := enums.RunStatusCompleted
	if len(results.IncompleteSKUs) > 0 || runErr != nil || writeErrs != nil {
		status = enums.RunStatusPartial
	}
	finishedAt := time.Now().UTC()

	analysis := s.assembleAnalysis(runID, input.OrgID, status, startedAt, finishedAt, txns, results, cls, score, opportunities, alerts)

	if err := s.persistRun(ctx, analysis, results); err != nil {
		writeErrs = multierr.Append(writeErrs, err)
	}
	if err := s.persistAlerts(ctx, analysis); err != nil {
		writeErrs = multierr.Append(writeErrs, err)
	}

	if s.publisher != nil && len(alerts) > 0 {
		if err := s.publisher.PublishAlerts(ctx, input.OrgID, runID, alerts); err != nil {
			s.log.Error(ctx, "publishing alerts failed", err)
		}
	}

	s.metrics.ObserveRunDuration(input.OrgID.String(), finishedAt.Sub(startedAt))
	s.metrics.IncRunSuccess(input.OrgID.String())
	if writeErrs != nil {
		s.log.Error(ctx, "reconciliation run finished with write failures", writeErrs)
	} else {
		s.log.Info(ctx, "reconciliation run finished")
	}
	return analysis, nil
}

func dimensionInput(v *float64) float64 {
	if v == nil {
		return 100
	}
	return *v
}

func (s *service) assembleAnalysis(
	runID, orgID uuid.UUID,
	status enums.RunStatus,
	startedAt, finishedAt time.Time,
	txns []models.UnifiedTransaction,
	results *Results,
	cls *Classification,
	score CompositeScore,
	opportunities []Opportunity,
	alerts []Alert,
) *ComprehensiveAnalysis {
	countsByStatus := map[string]int{}
	statusOverrides := map[uuid.UUID]enums.InventoryStatus{}
	for _, update := range cls.StatusUpdates {
		if update.InventoryStatus != nil {
			statusOverrides[update.TransactionID] = *update.InventoryStatus
		}
	}
	for _, t := range txns {
		inventory := t.InventoryStatus
		if override, ok := statusOverrides[t.ID]; ok {
			inventory = override
		}
		countsByStatus[string(inventory)]++
	}

	totalVariance := decimal.Zero
	for _, cv := range results.CostVariances {
		totalVariance = totalVariance.Add(cv.Variance.Abs())
	}

	poSum, poCount, shipSum, shipCount := 0, 0, 0, 0
	for _, obs := range results.TimelineObservations {
		if obs.POToReceiptDays != nil {
			poSum += *obs.POToReceiptDays
			poCount++
		}
		if obs.ShipToReceiptDays != nil {
			shipSum += *obs.ShipToReceiptDays
			shipCount++
		}
	}
	timeline := TimelineIntelligence{DelayedSKUs: cls.DelayedSKUs}
	if poCount > 0 {
		timeline.AveragePOToReceiptDays = float64(poSum) / float64(poCount)
	}
	if shipCount > 0 {
		timeline.AverageShipToReceiptDays = float64(shipSum) / float64(shipCount)
	}

	return &ComprehensiveAnalysis{
		Run: RunSummary{
			RunID:                 runID,
			OrgID:                 orgID,
			Status:                status,
			TransactionsProcessed: len(txns),
			PartitionsProcessed:   len(results.Partitions),
			IncompleteSKUs:        results.IncompleteSKUs,
			StartedAt:             startedAt,
			FinishedAt:            finishedAt,
		},
		CrossReference: CrossReferenceSummary{
			CostVariances:         results.CostVariances,
			QuantityDiscrepancies: results.QuantityDiscrepancies,
			TimelineObservations:  results.TimelineObservations,
			UnmatchedRecords:      results.Unmatched,
			SkippedComparisons:    results.Skips,
		},
		Inventory: InventoryIntelligence{
			TotalTracked:     len(txns),
			CountsByStatus:   countsByStatus,
			CompromisedSKUs:  cls.CompromisedSKUs,
			CompromisedCount: len(cls.CompromisedSKUs),
		},
		Cost: CostIntelligence{
			TotalVarianceImpact: totalVariance,
			Opportunities:       opportunities,
		},
		Timeline: timeline,
		Score:    score,
		Alerts:   alerts,
	}
}

func (s *service) persistRun(ctx context.Context, analysis *ComprehensiveAnalysis, results *Results) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	skips, err := json.Marshal(results.Skips)
	if err != nil {
		return fmt.Errorf("marshal skip stats: %w", err)
	}
	finishedAt := analysis.Run.FinishedAt
	return s.repo.SaveRun(ctx, &models.ReconciliationRun{
		ID:                    analysis.Run.RunID,
		OrgID:                 analysis.Run.OrgID,
		Status:                analysis.Run.Status,
		TransactionsProcessed: analysis.Run.TransactionsProcessed,
		PartitionsProcessed:   analysis.Run.PartitionsProcessed,
		PartitionsIncomplete:  len(analysis.Run.IncompleteSKUs),
		ServiceScore:          analysis.Score.ServiceScore,
		CostScore:             analysis.Score.CostScore,
		CapitalScore:          analysis.Score.CapitalScore,
		DocumentScore:         analysis.Score.DocumentScore,
		OverallScore:          analysis.Score.OverallScore,
		BalanceIndex:          analysis.Score.BalanceIndex,
		Analysis:              payload,
		SkippedStats:          skips,
		StartedAt:             analysis.Run.StartedAt,
		FinishedAt:            &finishedAt,
	})
}

func (s *service) persistAlerts(ctx context.Context, analysis *ComprehensiveAnalysis) error {
	if len(analysis.Alerts) == 0 {
		return nil
	}
	records := make([]models.AlertRecord, 0, len(analysis.Alerts))
	for _, alert := range analysis.Alerts {
		records = append(records, models.AlertRecord{
			ID:                uuid.New(),
			OrgID:             analysis.Run.OrgID,
			RunID:             analysis.Run.RunID,
			Type:              alert.Type,
			Severity:          alert.Severity,
			SKU:               alert.SKU,
			Title:             alert.Title,
			Message:           alert.Message,
			RecommendedAction: alert.RecommendedAction,
			FinancialImpact:   alert.FinancialImpact,
			Timestamp:         alert.Timestamp,
		})
	}
	return s.repo.SaveAlerts(ctx, records)
}

func (s *service) persistAbortedRun(ctx context.Context, runID, orgID uuid.UUID, startedAt time.Time, txnCount int) {
	finishedAt := time.Now().UTC()
	run := &models.ReconciliationRun{
		ID:                    runID,
		OrgID:                 orgID,
		Status:                enums.RunStatusAborted,
		TransactionsProcessed: txnCount,
		StartedAt:             startedAt,
		FinishedAt:            &finishedAt,
	}
	if err := s.repo.SaveRun(ctx, run); err != nil {
		s.log.Error(ctx, "persisting aborted run failed", err)
	}
}

func (s *service) GetRun(ctx context.Context, orgID, runID uuid.UUID) (*models.ReconciliationRun, error) {
	return s.repo.GetRun(ctx, orgID, runID)
}

func (s *service) ListRuns(ctx context.Context, orgID uuid.UUID, limit int) ([]models.ReconciliationRun, error) {
	return s.repo.ListRuns(ctx, orgID, limit)
}

func (s *service) ListAlerts(ctx context.Context, orgID uuid.UUID, runID *uuid.UUID) ([]models.AlertRecord, error) {
	return s.repo.ListAlerts(ctx, orgID, runID)
}
