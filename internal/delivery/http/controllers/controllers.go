package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"guestgate/internal/delivery/http/helpers"
	"guestgate/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// writeDomainError maps domain sentinel errors onto the API error codes.
// Anything unmapped is logged and reported as a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrNoTierSelected):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeNoTierSelected, domain.ErrNoTierSelected.Error())
	case errors.Is(err, domain.ErrTierInvalid):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeTierInvalid, domain.ErrTierInvalid.Error())
	case errors.Is(err, domain.ErrTierPermissionDenied):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeTierPermissionDenied, domain.ErrTierPermissionDenied.Error())
	case errors.Is(err, domain.ErrTierQuotaExhausted):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeTierQuotaExhausted, domain.ErrTierQuotaExhausted.Error())
	case errors.Is(err, domain.ErrEventFull):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeEventFull, domain.ErrEventFull.Error())
	case errors.Is(err, domain.ErrAlreadyAssigned):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, domain.ErrAlreadyAssigned.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, domain.ErrDuplicateEmail.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}

// pathUUID reads a path parameter and validates it as a UUID. Writes a
// 400 and returns false on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.PathValue(name)
	if v == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if !uuidRegex.MatchString(v) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return v, true
}
