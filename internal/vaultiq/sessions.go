// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import "context"

// SessionManager is the Session Store capability interface (C3). Three
// implementations exist — cache-only, store-only, store+cache — chosen by
// the Mode Gate from the SESSION family's resolved FamilyConfig. Read
// operations lean "silent and safe" (§7): a missing or invalid lookup
// returns a zero value, never an error.
type SessionManager interface {
	// CreateSession persists a new Session for userID, deriving its
	// device fingerprint from req via the configured FingerprintGenerator.
	// Returns ErrInvalidUserID if userID is blank.
	CreateSession(ctx context.Context, userID string, req RequestHandle) (*Session, error)

	// GetSession returns the session named by sessionID, or nil if absent
	// or sessionID is blank.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// GetSessionsByUser returns every session (revoked or not) belonging
	// to userID, possibly empty.
	GetSessionsByUser(ctx context.Context, userID string) ([]*Session, error)

	// GetActiveSessionsByUser returns every non-revoked session belonging
	// to userID.
	GetActiveSessionsByUser(ctx context.Context, userID string) ([]*Session, error)

	// TotalUserSessions returns the number of sessions (revoked or not)
	// tracked for userID.
	TotalUserSessions(ctx context.Context, userID string) (int, error)

	// DeleteSession removes sessionID. A missing session is a no-op.
	DeleteSession(ctx context.Context, sessionID string) error

	// DeleteAllSessions removes every session in sessionIDs. An empty set
	// is a no-op.
	DeleteAllSessions(ctx context.Context, sessionIDs []string) error

	// GetSessionFingerprint returns the stored fingerprint for sessionID,
	// or "" if absent.
	GetSessionFingerprint(ctx context.Context, sessionID string) (string, error)
}

// SessionRepository is the store-tier persistence contract the Postgres
// implementation satisfies (§6.5's six query shapes, specialised to
// sessions).
type SessionRepository interface {
	Insert(ctx context.Context, s *Session) error
	FindByID(ctx context.Context, sessionID string) (*Session, error)
	FindByUser(ctx context.Context, userID string) ([]*Session, error)
	FindActiveByUser(ctx context.Context, userID string) ([]*Session, error)
	FindActiveByUserExcluding(ctx context.Context, userID string, excluded []string) ([]*Session, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteMany(ctx context.Context, sessionIDs []string) error
	MarkRevoked(ctx context.Context, sessionID string, revokedAt int64) error
}
