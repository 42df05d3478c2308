package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/devoptimist/builder/internal/api/service"
	"github.com/devoptimist/builder/pkg/httpx"
	"github.com/devoptimist/builder/pkg/slogx"
)

type ProfileHandler struct {
	ProfileService *service.ProfileService
}

// HandleGet returns the authenticated account's profile.
//
//	@Summary		Get account profile
//	@Description	Returns the authenticated account record.
//	@Tags			Profile
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	domain.Account	"Account record"
//	@Failure		401	{object}	ErrorResponse	"Invalid or missing access token"
//	@Failure		503	{object}	ErrorResponse	"Backing service unavailable"
//	@Router			/v1/profile [get].
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	auth, ok := AuthContextFrom(ctx)
	if !ok {
		writeError(w, service.ErrUnauthorized)
		return
	}

	account, err := h.ProfileService.GetAccount(ctx, auth.AccountID)
	if err != nil {
		log.Warn("failed to load account", "account_id", auth.AccountID, "err", err)
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, account)
}

// HandleUpdate updates the mutable profile fields.
//
//	@Summary		Update account profile
//	@Description	Updates the account email address.
//	@Tags			Profile
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateProfileRequest	true	"Fields to update"
//	@Success		200		{object}	domain.Account			"Updated account record"
//	@Failure		400		{object}	ErrorResponse			"Malformed request body"
//	@Failure		401		{object}	ErrorResponse			"Invalid or missing access token"
//	@Failure		503		{object}	ErrorResponse			"Backing service unavailable"
//	@Router			/v1/profile [patch].
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	auth, ok := AuthContextFrom(ctx)
	if !ok {
		writeError(w, service.ErrUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w, "Request body must be valid JSON.")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeInvalidRequest(w, "Field 'email' must not be empty.")
		return
	}

	if err := h.ProfileService.UpdateEmail(ctx, auth.AccountID, req.Email); err != nil {
		log.Warn("failed to update account", "account_id", auth.AccountID, "err", err)
		writeError(w, err)
		return
	}

	account, err := h.ProfileService.GetAccount(ctx, auth.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, account)
}
