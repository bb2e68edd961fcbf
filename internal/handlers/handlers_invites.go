package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alphagov-mirror/pay-adminusers/internal/invite"
	"github.com/alphagov-mirror/pay-adminusers/internal/store"
)

func (a *API) handleCreateServiceInvite(w http.ResponseWriter, r *http.Request) {
	var req invite.ServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respondError(w, http.StatusBadRequest, errors.New("email is required"))
		return
	}
	if strings.TrimSpace(req.RoleName) == "" {
		respondError(w, http.StatusBadRequest, errors.New("role_name is required"))
		return
	}

	created, err := a.services.Create(r.Context(), req)
	if err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (a *API) handleCreateUserInvite(w http.ResponseWriter, r *http.Request) {
	var req invite.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	for field, value := range map[string]string{
		"sender":              req.SenderExternalID,
		"email":               req.Email,
		"service_external_id": req.ServiceExternalID,
		"role_name":           req.RoleName,
	} {
		if strings.TrimSpace(value) == "" {
			respondError(w, http.StatusBadRequest, errors.New(field+" is required"))
			return
		}
	}

	created, err := a.users.Invite(r.Context(), req)
	if err != nil {
		respondFlowError(w, err)
		return
	}
	if created == nil {
		respondError(w, http.StatusNotFound, errors.New("service "+req.ServiceExternalID+" not found"))
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (a *API) handleGetInvite(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	rec, err := a.reader.FindInviteByCode(r.Context(), code)
	if err != nil {
		respondFlowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invite.Decorate(rec, a.config.Links))
}

func (a *API) handleListServiceInvites(w http.ResponseWriter, r *http.Request) {
	serviceExternalID := chi.URLParam(r, "serviceExternalId")

	rows, err := a.reader.FindInvitesByService(r.Context(), serviceExternalID)
	if err != nil {
		respondFlowError(w, err)
		return
	}
	if rows == nil {
		rows = []store.ServiceInviteRow{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"invites": rows})
}
