package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alphagov-mirror/pay-adminusers/internal/invite"
	"github.com/alphagov-mirror/pay-adminusers/internal/store"
)

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	respondJSON(w, status, map[string]any{"errors": []string{err.Error()}})
}

// respondFlowError maps the invitation flow error taxonomy onto HTTP statuses.
func respondFlowError(w http.ResponseWriter, err error) {
	var (
		conflict     *invite.ConflictError
		forbidden    *invite.ForbiddenError
		precondition *invite.PreconditionFailedError
		validation   *invite.ValidationError
		internal     *invite.InternalError
	)
	switch {
	case errors.As(err, &conflict):
		respondError(w, http.StatusConflict, conflict)
	case errors.As(err, &forbidden):
		respondError(w, http.StatusForbidden, forbidden)
	case errors.As(err, &precondition):
		respondError(w, http.StatusPreconditionFailed, precondition)
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation)
	case errors.As(err, &internal):
		respondError(w, http.StatusInternalServerError, internal)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}
