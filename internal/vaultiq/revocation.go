// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"
	"time"
)

// RevocationEngine resolves a RevocationIntent against a single snapshot of
// the Session Store's active-session view and applies the family's
// RevocationPolicy to each targeted session. It depends only on the store —
// never on the cache — so a revocation decision is never made against a
// value the cache fed back to it (§4.4 "breaks the cyclic dependency").
type RevocationEngine interface {
	// Revoke resolves intent to a concrete set of session IDs, persists one
	// RevocationRecord per session (stamping triggeredBy from probe), and
	// applies the configured RevocationPolicy to each. Returns the session
	// IDs actually revoked.
	Revoke(ctx context.Context, intent RevocationIntent, req RequestHandle) ([]string, error)

	// IsRevoked reports whether sessionID has a revocation record.
	IsRevoked(ctx context.Context, sessionID string) (bool, error)

	// GetRevocationsByUser returns every revocation record for userID.
	GetRevocationsByUser(ctx context.Context, userID string) ([]*RevocationRecord, error)

	// ClearRevocation removes the revocation record for each of sessionIDs,
	// without touching the underlying session entry. A missing record is a
	// no-op.
	ClearRevocation(ctx context.Context, sessionIDs ...string) error

	// DeleteRevocationsOlderThan iterates pages of pageSize (default 1000)
	// up to a hard cap of 100 batches, deleting revocation records recorded
	// before cutoff. Returns the total deleted. The safety cap bounds the
	// work done by a single invocation regardless of backlog size.
	DeleteRevocationsOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// RevocationRepository is the store-tier persistence contract for
// revocation records.
type RevocationRepository interface {
	Insert(ctx context.Context, r *RevocationRecord) error
	FindBySessionID(ctx context.Context, sessionID string) (*RevocationRecord, error)
	FindByUser(ctx context.Context, userID string) ([]*RevocationRecord, error)
	Delete(ctx context.Context, sessionID string) error
	// DeleteOlderThan deletes up to limit records recorded before
	// cutoffUnixMilli in one statement, returning the count actually
	// removed. The engine calls this repeatedly to page through a large
	// backlog (§4.4 cleanup primitive).
	DeleteOlderThan(ctx context.Context, cutoffUnixMilli int64, limit int) (int, error)
}
