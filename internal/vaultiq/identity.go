// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"

	"github.com/taibuivan/vaultiq/internal/platform/ctxutil"
)

// contextCarrier is implemented by RequestHandle adapters that can surface
// the request's context.Context, letting IdentityProbe recover the
// authenticated principal without widening RequestHandle itself.
type contextCarrier interface {
	Context() context.Context
}

// jwtIdentityProbe is the default IdentityProbe (§6.4), reading the
// authenticated principal the way the teacher's middleware chain populates
// it: a *sec.AuthClaims stashed in the request context by the auth
// middleware, retrieved via ctxutil.GetAuthUser.
type jwtIdentityProbe struct{}

// NewJWTIdentityProbe returns the default IdentityProbe.
func NewJWTIdentityProbe() IdentityProbe { return jwtIdentityProbe{} }

func (jwtIdentityProbe) CurrentPrincipal(req RequestHandle) string {
	carrier, ok := req.(contextCarrier)
	if !ok {
		return ""
	}
	claims := ctxutil.GetAuthUser(carrier.Context())
	if claims == nil {
		return ""
	}
	return claims.UserID
}
