package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/supplypulse/supplypulse-backend/api/middleware"
	"github.com/supplypulse/supplypulse-backend/api/responses"
	"github.com/supplypulse/supplypulse-backend/api/validators"
	"github.com/supplypulse/supplypulse-backend/internal/transactions"
	"github.com/supplypulse/supplypulse-backend/pkg/db/models"
	"github.com/supplypulse/supplypulse-backend/pkg/enums"
	pkgerrors "github.com/supplypulse/supplypulse-backend/pkg/errors"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

type transactionBatchRequest struct {
	Transactions []models.UnifiedTransaction `json:"transactions" validate:"required,min=1"`
}

type transactionBatchResponse struct {
	Accepted int `json:"accepted"`
}

// CreateTransactionBatch ingests a pre-normalized batch of unified
// transactions for the caller's organization.
func CreateTransactionBatch(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req transactionBatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orgID := middleware.OrgIDFromContext(ctx)
		accepted, err := svc.IngestBatch(ctx, orgID, req.Transactions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, transactionBatchResponse{Accepted: accepted})
	}
}

// ListTransactions returns the organization's transactions, optionally
// narrowed to a single SKU via ?sku=.
func ListTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID := middleware.OrgIDFromContext(ctx)

		var (
			txns []models.UnifiedTransaction
			err  error
		)
		if sku := validators.ParseQueryString(r, "sku"); sku != "" {
			txns, err = svc.ListBySKU(ctx, orgID, sku)
		} else {
			txns, err = svc.ListByOrg(ctx, orgID)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, txns)
	}
}

// GetTransaction returns one transaction by id.
func GetTransaction(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID := middleware.OrgIDFromContext(ctx)

		id, err := uuid.Parse(chi.URLParam(r, "transactionID"))
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "transaction id must be a UUID"))
			return
		}

		txn, err := svc.GetByID(ctx, orgID, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, txn)
	}
}

type transactionStatusRequest struct {
	InventoryStatus  *string `json:"inventory_status" validate:"omitempty"`
	ComplianceStatus *string `json:"compliance_status" validate:"omitempty"`
}

// UpdateTransactionStatus moves a transaction's inventory and/or compliance
// status. At least one of the two must be present.
func UpdateTransactionStatus(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID := middleware.OrgIDFromContext(ctx)

		id, err := uuid.Parse(chi.URLParam(r, "transactionID"))
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "transaction id must be a UUID"))
			return
		}

		var req transactionStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.InventoryStatus == nil && req.ComplianceStatus == nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "inventory_status or compliance_status is required"))
			return
		}

		var inventory *enums.InventoryStatus
		if req.InventoryStatus != nil {
			parsed, err := enums.ParseInventoryStatus(*req.InventoryStatus)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory_status"))
				return
			}
			inventory = &parsed
		}

		var compliance *enums.ComplianceStatus
		if req.ComplianceStatus != nil {
			parsed, err := enums.ParseComplianceStatus(*req.ComplianceStatus)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid compliance_status"))
				return
			}
			compliance = &parsed
		}

		if err := svc.UpdateStatus(ctx, orgID, id, inventory, compliance); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"updated": true})
	}
}
