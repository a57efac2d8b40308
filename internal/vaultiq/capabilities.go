// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import "time"

// RequestHandle abstracts the inbound request (§6.3): header lookup by
// case-insensitive name, and attribute get/set for request-scoped state.
// Go has no mutable per-request attribute bag like a servlet
// HttpServletRequest; context.Context values are the idiomatic substitute,
// realized by the adapter in ctxkeys.go.
type RequestHandle interface {
	Header(name string) string
	Attribute(key string) (string, bool)
	SetAttribute(key, value string)
}

// FingerprintGenerator deterministically derives an opaque fingerprint
// string from request-borne device signals. Same inputs must always
// produce the same output, stable across requests from the same device.
type FingerprintGenerator interface {
	Generate(req RequestHandle) (string, error)
}

// FingerprintValidator compares a recomputed fingerprint against a stored
// one. The default implementation is "recompute and compare"; hosts may
// override for e.g. fuzzy matching.
type FingerprintValidator interface {
	Validate(req RequestHandle, stored string) (bool, error)
}

// IdentityProbe returns the identifier of the currently acting principal,
// consulted at the moment triggeredBy must be stamped on a revocation.
type IdentityProbe interface {
	CurrentPrincipal(req RequestHandle) string
}

// Clock abstracts time retrieval so tests can stub it. Real callers use
// systemClock.
type Clock interface {
	Now() time.Time
}

// systemClock is the production Clock, delegating to time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the default Clock used when the host supplies none.
var SystemClock Clock = systemClock{}
