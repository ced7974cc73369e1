package controllers

import (
	"net/http"

	"github.com/supplypulse/supplypulse-backend/api/middleware"
	"github.com/supplypulse/supplypulse-backend/api/responses"
	"github.com/supplypulse/supplypulse-backend/internal/ingest"
	pkgerrors "github.com/supplypulse/supplypulse-backend/pkg/errors"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

// Workbooks above this size are rejected before parsing.
const maxWorkbookBytes = 25 << 20

// UploadWorkbook accepts a multipart xlsx upload under the "file" field,
// normalizes its rows and stores the accepted transactions.
func UploadWorkbook(svc ingest.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID := middleware.OrgIDFromContext(ctx)

		r.Body = http.MaxBytesReader(w, r.Body, maxWorkbookBytes)
		if err := r.ParseMultipartForm(maxWorkbookBytes); err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload"))
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "a workbook file is required under the \"file\" field"))
			return
		}
		defer file.Close()

		report, err := svc.IngestWorkbook(ctx, orgID, file)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, report)
	}
}
