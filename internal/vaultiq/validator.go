// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"
	"log/slog"
)

// Validator is the request-time gate (C5): does the inbound request name a
// live, non-revoked session whose device fingerprint matches the one that
// created it.
type Validator interface {
	ValidateForRequest(ctx context.Context, req RequestHandle) bool
}

// validator implements Validator, short-circuiting on the first failed
// step of §4.5.
type validator struct {
	sessions   SessionManager
	revocation RevocationEngine
	fpv        FingerprintValidator
	log        *slog.Logger
}

// NewValidator constructs the default Validator, wired against the Mode
// Gate's chosen SessionManager/RevocationEngine and a FingerprintValidator.
func NewValidator(sessions SessionManager, revocation RevocationEngine, fpv FingerprintValidator, log *slog.Logger) Validator {
	return &validator{sessions: sessions, revocation: revocation, fpv: fpv, log: log}
}

func (v *validator) ValidateForRequest(ctx context.Context, req RequestHandle) bool {
	sessionID, ok := req.Attribute(SessionIDAttribute)
	if !ok || sessionID == "" {
		v.log.WarnContext(ctx, "vaultiq_validate_missing_session_attribute")
		return false
	}

	if revoked, err := v.revocation.IsRevoked(ctx, sessionID); err != nil || revoked {
		v.log.WarnContext(ctx, "vaultiq_validate_revoked", slog.String("session_id", sessionID))
		return false
	}

	session, err := v.sessions.GetSession(ctx, sessionID)
	if err != nil || session == nil || session.IsRevoked {
		v.log.WarnContext(ctx, "vaultiq_validate_session_missing_or_revoked", slog.String("session_id", sessionID))
		return false
	}

	match, err := v.fpv.Validate(req, session.DeviceFingerprint)
	if err != nil || !match {
		v.log.WarnContext(ctx, "vaultiq_validate_fingerprint_mismatch", slog.String("session_id", sessionID))
		return false
	}

	v.log.DebugContext(ctx, "vaultiq_validate_ok", slog.String("session_id", sessionID))
	return true
}
