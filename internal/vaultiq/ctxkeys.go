// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"
	"net/http"
)

// SessionIDAttribute is the canonical request attribute key the Validator
// uses to look up the claimed session ID (§9 "specify this key once and
// never leak the concept into lower layers").
const SessionIDAttribute = "vaultiq.sid"

// attrKey is an unexported context-key type, following the platform's
// ctxkey convention of using a private type to prevent collisions with
// third-party context values.
type attrKey string

// httpRequestHandle adapts *http.Request to RequestHandle. Attributes are
// backed by context.Context values rather than a mutable per-request bag,
// since Go has none; SetAttribute therefore derives a new *http.Request
// carrying the updated context and stores it in the handle, consistent with
// net/http's immutable request convention.
type httpRequestHandle struct {
	request *http.Request
}

// NewHTTPRequestHandle wraps r as a RequestHandle.
func NewHTTPRequestHandle(r *http.Request) *httpRequestHandle {
	return &httpRequestHandle{request: r}
}

func (h *httpRequestHandle) Header(name string) string {
	return h.request.Header.Get(name)
}

func (h *httpRequestHandle) Attribute(key string) (string, bool) {
	v, ok := h.request.Context().Value(attrKey(key)).(string)
	return v, ok
}

// SetAttribute stores value under key in the handle's request context and
// swaps the wrapped *http.Request for the updated one, so subsequent
// Attribute lookups on this handle observe it.
func (h *httpRequestHandle) SetAttribute(key, value string) {
	ctx := context.WithValue(h.request.Context(), attrKey(key), value)
	h.request = h.request.WithContext(ctx)
}

// Request returns the handle's current *http.Request, reflecting any
// SetAttribute calls made so far.
func (h *httpRequestHandle) Request() *http.Request {
	return h.request
}

// Context returns the handle's current request context, letting an
// IdentityProbe recover the authenticated principal without widening
// RequestHandle itself.
func (h *httpRequestHandle) Context() context.Context {
	return h.request.Context()
}

// WithSessionID returns a context carrying sessionID under the canonical
// SessionIDAttribute key, for hosts that resolve the session ID before
// constructing the RequestHandle (e.g. from a signed cookie).
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, attrKey(SessionIDAttribute), sessionID)
}
