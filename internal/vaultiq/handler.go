// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/vaultiq/internal/platform/apperr"
	"github.com/taibuivan/vaultiq/pkg/pagination"
	requestutil "github.com/taibuivan/vaultiq/internal/platform/request"
	"github.com/taibuivan/vaultiq/internal/platform/respond"
	"github.com/taibuivan/vaultiq/internal/platform/validate"
)

// Handler is the HTTP delivery layer for the session lifecycle and
// revocation engine, exposing the capabilities a Gate wires together as a
// small REST surface an embedding host mounts under its own router.
type Handler struct {
	gate *Gate
}

// NewHandler constructs a Handler over gate.
func NewHandler(gate *Gate) *Handler {
	return &Handler{gate: gate}
}

// Routes returns a [chi.Router] configured with the session security
// endpoints, in the style of the account domain's "/me/sessions" routes.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/sessions", h.createSession)
	router.Get("/sessions", h.listSessions)
	router.Delete("/sessions/{id}", h.revokeOne)
	router.Delete("/sessions", h.revokeOthers)
	router.Post("/sessions/revoke-all", h.revokeAll)
	router.Get("/sessions/validate", h.validate)

	return router
}

/*
POST /sessions.

Description: Registers a new authenticated session for the caller's device,
deriving its fingerprint from request headers.

Response:
  - 201: Session: The newly created session
  - 401: ErrUnauthorized: Authentication required
*/
func (h *Handler) createSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	req := NewHTTPRequestHandle(request)
	session, err := h.gate.Sessions.CreateSession(request.Context(), userID, req)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, session)
}

/*
GET /sessions.

Description: Enumerates the caller's sessions. By default only active
(non-revoked) sessions are returned; pass ?all=true to include revoked ones.

Response:
  - 200: []Session: The caller's sessions
  - 401: ErrUnauthorized: Authentication required
*/
func (h *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var sessions []*Session
	if strings.EqualFold(request.URL.Query().Get("all"), "true") {
		sessions, err = h.gate.Sessions.GetSessionsByUser(request.Context(), userID)
	} else {
		sessions, err = h.gate.Sessions.GetActiveSessionsByUser(request.Context(), userID)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	page := paginateSessions(sessions, params)
	respond.Paginated(writer, page, pagination.NewMeta(params.Page, params.Limit, len(sessions)))
}

// paginateSessions slices sessions to the page named by params. The Session
// Store already returns a per-user list small enough to hold in memory, so
// pagination here is a response-shaping concern, not a query-pushdown one.
func paginateSessions(sessions []*Session, params pagination.Params) []*Session {
	offset := params.Offset()
	if offset >= len(sessions) {
		return []*Session{}
	}
	end := offset + params.Limit
	if end > len(sessions) {
		end = len(sessions)
	}
	return sessions[offset:end]
}

/*
DELETE /sessions/{id}.

Description: Revokes a single session belonging to the caller.

Request:
  - id: string (session ID)

Response:
  - 204: No Content: Session revoked (or already gone)
  - 401: ErrUnauthorized: Authentication required
*/
func (h *Handler) revokeOne(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := chi.URLParam(request, "id")
	var v validate.Validator
	if err := v.Required("id", sessionID).UUID("id", sessionID).Err(); err != nil {
		respond.Error(writer, request, apperr.NotFound("Session"))
		return
	}

	if err := h.ownedByCaller(request, userID, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	req := NewHTTPRequestHandle(request)
	if _, err := h.gate.Revocation.Revoke(request.Context(), OneIntent(sessionID, nil), req); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /sessions.

Description: Revokes every session of the caller except the one making the
request, identified by the X-Session-Id header.

Response:
  - 204: No Content: Other sessions revoked
  - 401: ErrUnauthorized: Authentication required
*/
func (h *Handler) revokeOthers(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	req := NewHTTPRequestHandle(request)
	current := req.Header("X-Session-Id")

	var excluded []string
	if current != "" {
		excluded = []string{current}
	}

	if _, err := h.gate.Revocation.Revoke(request.Context(), AllExceptIntent(userID, excluded, nil), req); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /sessions/revoke-all.

Description: Revokes every session of the caller, including the one making
the request. Intended for "sign out everywhere" flows.

Response:
  - 204: No Content: All sessions revoked
  - 401: ErrUnauthorized: Authentication required
*/
func (h *Handler) revokeAll(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	req := NewHTTPRequestHandle(request)
	if _, err := h.gate.Revocation.Revoke(request.Context(), AllIntent(userID, nil), req); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// validateResponse is the JSON body returned by GET /sessions/validate.
type validateResponse struct {
	Valid bool `json:"valid"`
}

/*
GET /sessions/validate.

Description: Reports whether the session named by the X-Session-Id header is
live, non-revoked, and fingerprint-matched to this request. Intended for
internal/gateway use, not end users.

Response:
  - 200: validateResponse: Validation outcome
  - 400: ErrValidation: Missing X-Session-Id header
*/
func (h *Handler) validate(writer http.ResponseWriter, request *http.Request) {
	sessionID := request.Header.Get("X-Session-Id")
	var v validate.Validator
	if err := v.Required("X-Session-Id", sessionID).UUID("X-Session-Id", sessionID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	req := NewHTTPRequestHandle(request)
	req.SetAttribute(SessionIDAttribute, sessionID)

	respond.OK(writer, validateResponse{Valid: h.gate.Validator.ValidateForRequest(req.Context(), req)})
}

// ownedByCaller verifies sessionID belongs to userID before a mutating
// operation acts on it, returning apperr.NotFound otherwise so a caller
// can't probe or revoke another user's session by guessing an ID.
func (h *Handler) ownedByCaller(request *http.Request, userID, sessionID string) error {
	session, err := h.gate.Sessions.GetSession(request.Context(), sessionID)
	if err != nil {
		return err
	}
	if session == nil || session.UserID != userID {
		return apperr.NotFound("Session")
	}
	return nil
}
