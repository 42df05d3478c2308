package http

import (
	"net/http"

	"github.com/devoptimist/builder/internal/api/service"
	"github.com/devoptimist/builder/pkg/httpx"
	"github.com/devoptimist/builder/pkg/idx"
	"github.com/devoptimist/builder/pkg/slogx"
)

type TokensHandler struct {
	ProfileService *service.ProfileService
	TokenIssuer    *service.TokenIssuer
	TokenRevoker   *service.TokenRevoker
}

// HandleList returns the authenticated account's access tokens.
//
//	@Summary		List access tokens
//	@Description	Returns every access token the account currently holds.
//	@Tags			Tokens
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	TokenListResponse	"Access tokens"
//	@Failure		401	{object}	ErrorResponse		"Invalid or missing access token"
//	@Failure		503	{object}	ErrorResponse		"Backing service unavailable"
//	@Router			/v1/profile/access-tokens [get].
func (h *TokensHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	auth, ok := AuthContextFrom(ctx)
	if !ok {
		writeError(w, service.ErrUnauthorized)
		return
	}

	tokens, err := h.ProfileService.ListAccessTokens(ctx, auth.AccountID)
	if err != nil {
		log.Warn("failed to list tokens", "account_id", auth.AccountID, "err", err)
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenListResponse{Tokens: tokens})
}

// HandleCreate mints a new access token for the account.
//
//	@Summary		Create access token
//	@Description	Mints a new access token. Previously issued tokens stay valid
//	@Description	but their cached sessions are invalidated and re-validate on next use.
//	@Tags			Tokens
//	@Security		BearerAuth
//	@Produce		json
//	@Success		201	{object}	domain.AccessToken	"The new token record, including the token value"
//	@Failure		401	{object}	ErrorResponse		"Invalid or missing access token"
//	@Failure		500	{object}	ErrorResponse		"Token generation collision"
//	@Failure		503	{object}	ErrorResponse		"Backing service unavailable"
//	@Router			/v1/profile/access-tokens [post].
func (h *TokensHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	auth, ok := AuthContextFrom(ctx)
	if !ok {
		writeError(w, service.ErrUnauthorized)
		return
	}

	record, err := h.TokenIssuer.Issue(ctx, auth)
	if err != nil {
		log.Warn("failed to issue token", "account_id", auth.AccountID, "err", err)
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, record)
}

// HandleRevoke deletes one access token by id.
//
//	@Summary		Revoke access token
//	@Description	Deletes the token record and invalidates the account's cached sessions.
//	@Tags			Tokens
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Token id (ULID)"
//	@Success		204	"Token revoked"
//	@Failure		401	{object}	ErrorResponse	"Invalid or missing access token"
//	@Failure		404	{object}	ErrorResponse	"No token with that id"
//	@Failure		422	{object}	ErrorResponse	"Malformed token id"
//	@Failure		503	{object}	ErrorResponse	"Backing service unavailable"
//	@Router			/v1/profile/access-tokens/{id} [delete].
func (h *TokensHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	auth, ok := AuthContextFrom(ctx)
	if !ok {
		writeError(w, service.ErrUnauthorized)
		return
	}

	// Reject malformed ids before touching the store so a typo'd id is
	// distinguishable from a well-formed id that was already revoked.
	tokenID, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:       "invalid_token_id",
			Description: "Token id must be a valid ULID.",
		})
		return
	}

	if err := h.TokenRevoker.Revoke(ctx, auth.AccountID, tokenID.String()); err != nil {
		log.Warn("failed to revoke token",
			"account_id", auth.AccountID,
			"token_id", tokenID.String(),
			"err", err,
		)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
