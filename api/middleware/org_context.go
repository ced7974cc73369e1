package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/supplypulse/supplypulse-backend/api/responses"
	pkgerrors "github.com/supplypulse/supplypulse-backend/pkg/errors"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

const orgIDHeader = "X-Org-Id"

type contextKey string

const ctxOrgID contextKey = "org_id"

// OrgContext resolves the tenant for every request under it. A request
// without a parseable org id never reaches a handler.
func OrgContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(orgIDHeader))
			orgID, err := uuid.Parse(raw)
			if err != nil || orgID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "a valid X-Org-Id header is required"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxOrgID, orgID)
			if logg != nil {
				ctx = logg.WithOrgID(ctx, orgID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OrgIDFromContext returns the tenant resolved by OrgContext.
func OrgIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxOrgID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}
