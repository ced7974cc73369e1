package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/supplypulse/supplypulse-backend/api/middleware"
	"github.com/supplypulse/supplypulse-backend/api/responses"
	"github.com/supplypulse/supplypulse-backend/api/validators"
	"github.com/supplypulse/supplypulse-backend/internal/reconciliation"
	pkgerrors "github.com/supplypulse/supplypulse-backend/pkg/errors"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

type reconcileRequest struct {
	ServiceScore *float64 `json:"service_score" validate:"omitempty,gte=0,lte=100"`
	CostScore    *float64 `json:"cost_score" validate:"omitempty,gte=0,lte=100"`
	CapitalScore *float64 `json:"capital_score" validate:"omitempty,gte=0,lte=100"`
}

// StartReconciliation runs the engine synchronously for the caller's
// organization and returns the full analysis. Dimension inputs omitted
// from the body default inside the engine.
func StartReconciliation(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID := middleware.OrgIDFromContext(ctx)

		var req reconcileRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		analysis, err := svc.Reconcile(ctx, reconciliation.RunInput{
			OrgID:        orgID,
			ServiceScore: req.ServiceScore,
			CostScore:    req.CostScore,
			CapitalScore: req.CapitalScore,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, analysis)
	}
}

// GetReconciliationRun returns one persisted run.
func GetReconciliationRun(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID := middleware.OrgIDFromContext(ctx)

		runID, err := uuid.Parse(chi.URLParam(r, "runID"))
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "run id must be a UUID"))
			return
		}

		run, err := svc.GetRun(ctx, orgID, runID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, run)
	}
}

// ListReconciliationRuns returns recent runs, newest first.
func ListReconciliationRuns(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID := middleware.OrgIDFromContext(ctx)

		limit, err := validators.ParseQueryInt(r, "limit", 0)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		runs, err := svc.ListRuns(ctx, orgID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, runs)
	}
}

// ListAlerts returns the organization's persisted alerts, optionally
// narrowed to a single run via ?run_id=.
func ListAlerts(svc reconciliation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID := middleware.OrgIDFromContext(ctx)

		runID, ok, err := validators.ParseQueryUUID(r, "run_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var filter *uuid.UUID
		if ok {
			filter = &runID
		}

		alerts, err := svc.ListAlerts(ctx, orgID, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, alerts)
	}
}
