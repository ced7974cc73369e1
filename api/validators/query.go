package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/supplypulse/supplypulse-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter, returning
// fallback when the parameter is absent.
func ParseQueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter "+name+" must be an integer")
	}
	return value, nil
}

// ParseQueryUUID reads an optional UUID query parameter. A missing
// parameter returns (uuid.Nil, false, nil).
func ParseQueryUUID(r *http.Request, name string) (uuid.UUID, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return uuid.Nil, false, nil
	}

	value, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter "+name+" must be a UUID")
	}
	return value, true, nil
}

// ParseQueryString reads an optional string query parameter.
func ParseQueryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}
