// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package vaultiq implements the session lifecycle and revocation engine that
fronts multi-device authentication for the platform.

It owns the authoritative state of "who is currently allowed to present which
session identifier from which device," and the authoritative audit trail of
revocations. The package transparently fronts two backends — a Redis cache
tier and a Postgres store tier — with four selectable operating modes chosen
independently per data family, and exposes three capabilities to its
embedding host: create/inspect/delete sessions, revoke sessions under several
strategies, and validate an inbound request against the active+revoked state
plus a device-fingerprint check.

# Architecture

The package decomposes into six cooperating components: a Config Resolver
that freezes the per-family persistence policy at startup, a Cache Access
Layer wrapping a single Redis client per family, a Session Store offering
cache-only / store-only / store+cache variants of the same interface, a
Revocation Engine that resolves revocation intents against a single
snapshot of the store's active-session view, a Validator that binds request
device fingerprints to sessions, and a Mode Gate that wires exactly one
Session Store and Revocation Engine implementation per family.
*/
package vaultiq

import "time"

// Family identifies one of the independently configurable data categories
// the core manages: sessions, revocation records, the user→session index,
// and an optional activity log.
type Family string

const (
	FamilySession          Family = "SESSION"
	FamilyRevocation       Family = "REVOCATION"
	FamilyUserSessionIndex Family = "USER_SESSION_INDEX"
	FamilyActivityLog      Family = "ACTIVITY_LOG"
)

// knownFamilies enumerates every family the Config Resolver must produce a
// total map entry for, regardless of whether the raw config mentions it.
var knownFamilies = []Family{FamilySession, FamilyRevocation, FamilyUserSessionIndex, FamilyActivityLog}

// RevocationKind is the strategy a revocation intent is issued under.
type RevocationKind string

const (
	// RevokeOne targets a single session ID.
	RevokeOne RevocationKind = "ONE"
	// RevokeAll targets every active session of a user.
	RevokeAll RevocationKind = "ALL"
	// RevokeAllExcept targets every active session of a user except a
	// caller-supplied exclusion set.
	RevokeAllExcept RevocationKind = "ALL_EXCEPT"
)

// RevocationPolicy decides what happens to the Session entry once a
// revocation record has been persisted for it.
type RevocationPolicy string

const (
	// DeleteOnRevoke removes the session entry outright, keeping only the
	// revocation record as evidence. Used by cache-only families to keep
	// the active-session view cheap.
	DeleteOnRevoke RevocationPolicy = "delete"
	// MarkOnRevoke updates the session entry in place (isRevoked=true,
	// revokedAt=now) so historical queries remain possible. Used by
	// store-backed families.
	MarkOnRevoke RevocationPolicy = "mark"
)

// Session identifies a live authenticated device binding. Equality and
// hashing use SessionID alone; device metadata is carried but never
// semantically interpreted by the core.
type Session struct {
	SessionID         string     `json:"sessionId"`
	UserID            string     `json:"userId"`
	DeviceFingerprint string     `json:"deviceFingerprint"`
	DeviceName        string     `json:"deviceName,omitempty"`
	DeviceOS          string     `json:"deviceOs,omitempty"`
	DeviceType        string     `json:"deviceType,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	IsRevoked         bool       `json:"isRevoked"`
	RevokedAt         *time.Time `json:"revokedAt,omitempty"`
}

// RevocationRecord is the audit trail entry for a single revoked session.
// Keyed by SessionID.
type RevocationRecord struct {
	SessionID   string         `json:"sessionId"`
	UserID      string         `json:"userId"`
	Kind        RevocationKind `json:"revocationKind"`
	Note        *string        `json:"note,omitempty"`
	TriggeredBy string         `json:"triggeredBy"`
	RevokedAt   time.Time      `json:"revokedAt"`
}

// UserSessionIndex is the per-user set of session IDs, carrying a
// lastUpdated stamp refreshed on every mutation.
type UserSessionIndex struct {
	UserID      string              `json:"userId"`
	SessionIDs  map[string]struct{} `json:"sessionIds"`
	LastUpdated int64               `json:"lastUpdated"`
}

// touch refreshes the index's staleness stamp using clk, or time.Now if clk
// is nil.
func (idx *UserSessionIndex) touch(clk Clock) {
	if clk != nil {
		idx.LastUpdated = clk.Now().UnixMilli()
		return
	}
	idx.LastUpdated = time.Now().UnixMilli()
}

// RevocationIntent is an immutable request object passed into the
// Revocation Engine. It is never persisted; it lives only for the duration
// of one Revoke call. Exactly one of the constructors below should be used.
type RevocationIntent struct {
	Kind     RevocationKind
	SessionID string   // set for RevokeOne
	UserID    string   // set for RevokeAll / RevokeAllExcept
	Excluded  []string // set for RevokeAllExcept
	Note      *string
}

// OneIntent builds a RevocationIntent targeting a single session.
func OneIntent(sessionID string, note *string) RevocationIntent {
	return RevocationIntent{Kind: RevokeOne, SessionID: sessionID, Note: note}
}

// AllIntent builds a RevocationIntent targeting every active session of a user.
func AllIntent(userID string, note *string) RevocationIntent {
	return RevocationIntent{Kind: RevokeAll, UserID: userID, Note: note}
}

// AllExceptIntent builds a RevocationIntent targeting every active session
// of a user except the given exclusion set.
func AllExceptIntent(userID string, excluded []string, note *string) RevocationIntent {
	return RevocationIntent{Kind: RevokeAllExcept, UserID: userID, Excluded: excluded, Note: note}
}

// FamilyConfig is the resolved persistence policy for one data family,
// produced by the Config Resolver and frozen for the process lifetime.
type FamilyConfig struct {
	Family       Family
	UseStore     bool
	UseCache     bool
	CacheName    string
	SyncInterval time.Duration
	Policy       RevocationPolicy
}
