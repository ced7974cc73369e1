package reconciliation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/errors"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
	"github.com/supplypulse/supplypulse-backend/pkg/metrics"
)

// runner fans (org_id, sku) partitions out over a bounded worker pool.
// Partitions never share state, so workers need no coordination beyond the
// completion barrier. A partition that exceeds its deadline is reported
// incomplete and never fails the run; a cross-tenant record aborts it.
type runner struct {
	log     *logger.Logger
	metrics *metrics.ReconMetrics
}

func newRunner(log *logger.Logger, m *metrics.ReconMetrics) *runner {
	return &runner{log: log, metrics: m}
}

type partitionOutcome struct {
	sku      string
	result   *PartitionResult
	timedOut bool
	err      error
}

// process runs every partition through the linkage pass and merges the
// results in SKU order, so the merged output is independent of worker
// scheduling. On context cancellation the results committed so far are
// kept and the run is reported incomplete rather than discarded.
func (r *runner) process(ctx context.Context, orgID uuid.UUID, partitions map[string][]models.UnifiedTransaction, pol Policies) (*Results, error) {
	for sku, txns := range partitions {
		for i := range txns {
			if txns[i].OrgID != orgID {
				return nil, errors.New(errors.CodeInvariant,
					fmt.Sprintf("transaction %s in partition %q belongs to org %s, run is for org %s",
						txns[i].ID, sku, txns[i].OrgID, orgID)).
					WithDetails(map[string]string{"sku": sku})
			}
		}
	}

	skus := make([]string, 0, len(partitions))
	for sku := range partitions {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	poolSize := pol.WorkerPoolSize
	if poolSize < 1 {
		poolSize = 1
	}

	jobs := make(chan string)
	outcomes := make(chan partitionOutcome, len(skus))
	var wg sync.WaitGroup
	for range poolSize {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sku := range jobs {
				outcomes <- r.runPartition(ctx, sku, partitions[sku], pol)
			}
		}()
	}

dispatch:
	for _, sku := range skus {
		select {
		case jobs <- sku:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	bySKU := map[string]partitionOutcome{}
	for outcome := range outcomes {
		bySKU[outcome.sku] = outcome
	}

	merged := &Results{Skips: map[string]int{}}
	var errs error
	for _, sku := range skus {
		outcome, ran := bySKU[sku]
		if !ran {
			merged.IncompleteSKUs = append(merged.IncompleteSKUs, sku)
			continue
		}
		if outcome.timedOut {
			merged.IncompleteSKUs = append(merged.IncompleteSKUs, sku)
			r.metrics.AddPartitionTimeouts(orgID.String(), 1)
			continue
		}
		if outcome.err != nil {
			merged.IncompleteSKUs = append(merged.IncompleteSKUs, sku)
			errs = multierr.Append(errs, fmt.Errorf("partition %q: %w", sku, outcome.err))
			continue
		}
		merged.append(outcome.result)
	}
	r.metrics.AddPartitions(orgID.String(), len(merged.Partitions))
	for reason, n := range merged.Skips {
		r.metrics.AddSkippedComparisons(orgID.String(), reason, n)
	}
	return merged, errs
}

// runPartition executes the linkage pass under the partition deadline. The
// pass itself is pure CPU work with no cancellation points, so the
// deadline is enforced at the collection side: a pass that outlives it is
// abandoned and its partition reported incomplete.
func (r *runner) runPartition(ctx context.Context, sku string, txns []models.UnifiedTransaction, pol Policies) partitionOutcome {
	pctx := r.log.WithSKU(ctx, sku)

	done := make(chan *PartitionResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error(pctx, "partition linkage panicked", fmt.Errorf("%v", rec))
				done <- nil
			}
		}()
		done <- linkPartition(sku, txns, pol)
	}()

	timeout := pol.PartitionTimeout
	if timeout <= 0 {
		result := <-done
		return outcomeFor(sku, result)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case result := <-done:
		return outcomeFor(sku, result)
	case <-timer.C:
		r.log.Warn(pctx, "partition exceeded deadline, reporting incomplete")
		return partitionOutcome{sku: sku, timedOut: true}
	case <-ctx.Done():
		r.log.Warn(pctx, "run cancelled before partition finished")
		return partitionOutcome{sku: sku, timedOut: true}
	}
}

func outcomeFor(sku string, result *PartitionResult) partitionOutcome {
	if result == nil {
		return partitionOutcome{sku: sku, err: fmt.Errorf("linkage pass failed")}
	}
	return partitionOutcome{sku: sku, result: result}
}

// append merges one partition into the run totals. Callers feed partitions
// in SKU order.
func (rs *Results) append(pr *PartitionResult) {
	rs.Partitions = append(rs.Partitions, pr)
	rs.CostVariances = append(rs.CostVariances, pr.CostVariances...)
	rs.QuantityDiscrepancies = append(rs.QuantityDiscrepancies, pr.QuantityDiscrepancies...)
	rs.TimelineObservations = append(rs.TimelineObservations, pr.TimelineObservations...)
	rs.FlagRequests = append(rs.FlagRequests, pr.FlagRequests...)
	if pr.Link != nil {
		rs.Links = append(rs.Links, pr.Link)
	}
	for reason, n := range pr.Skips {
		rs.Skips[reason] += n
	}
	rs.Unmatched += pr.Unmatched
}
