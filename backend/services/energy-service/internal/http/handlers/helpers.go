package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"ieoms/backend/services/energy-service/internal/http/middleware"
	"ieoms/backend/services/energy-service/internal/service"
	"ieoms/backend/services/energy-service/internal/upload"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors to status codes. Store failures never leak detail.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, upload.ErrPayloadTooLarge), errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, upload.ErrPayloadTooLarge.Error())
	case service.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrIngestionInProgress):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// householdFromPath parses {householdID} and checks the caller may access it.
func householdFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("householdID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid household id")
		return 0, false
	}
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	if !principal.CanAccess(id) {
		writeError(w, http.StatusForbidden, "forbidden")
		return 0, false
	}
	return id, true
}

// intQuery returns the named positive integer parameter, or 0 when absent.
func intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}
