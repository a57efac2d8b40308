// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCachedSessionsForRevocation builds a store+cache SessionManager backed
// by fakes, with an empty repository that each test seeds, for use as the
// Revocation Engine's dependency.
func newCachedSessionsForRevocation() (SessionManager, *fakeSessionRepository) {
	repo := newFakeSessionRepository()
	cache := newFakeCache()
	mgr := newCachedSessionManager(repo, cache, fakeFingerprintGenerator{fingerprint: "fp-1"}, SystemClock, testLogger())
	return mgr, repo
}

/*
TestRevocationEngine_RevokeOne verifies that a ONE intent revokes exactly
the named session, persists a record, and applies the configured policy.
*/
func TestRevocationEngine_RevokeOne(t *testing.T) {
	sessions, repo := newCachedSessionsForRevocation()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s1", UserID: "u1"}))

	revCache := newFakeCache()
	engine := newRevocationEngine(sessions, MarkOnRevoke, nil, revCache, fakeIdentityProbe{principal: "admin-1"}, SystemClock, testLogger(), noopMetrics())

	revoked, err := engine.Revoke(ctx, OneIntent("s1", nil), newFakeRequestHandle())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, revoked)

	isRevoked, err := engine.IsRevoked(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, isRevoked)

	s, err := sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, s.IsRevoked, "MarkOnRevoke must mark the session, not delete it")
}

/*
TestRevocationEngine_RevokeOneMissingTargetIsNoop verifies that revoking a
session ID with no matching session is a silent no-op, not an error.
*/
func TestRevocationEngine_RevokeOneMissingTargetIsNoop(t *testing.T) {
	sessions, _ := newCachedSessionsForRevocation()
	engine := newRevocationEngine(sessions, MarkOnRevoke, nil, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	revoked, err := engine.Revoke(context.Background(), OneIntent("does-not-exist", nil), newFakeRequestHandle())
	require.NoError(t, err)
	assert.Empty(t, revoked)
}

/*
TestRevocationEngine_RevokeOneRequiresSessionID verifies the required-field
guard on the ONE intent.
*/
func TestRevocationEngine_RevokeOneRequiresSessionID(t *testing.T) {
	sessions, _ := newCachedSessionsForRevocation()
	engine := newRevocationEngine(sessions, MarkOnRevoke, nil, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	_, err := engine.Revoke(context.Background(), OneIntent("  ", nil), newFakeRequestHandle())
	assert.ErrorIs(t, err, ErrInvalidSessionID)
}

/*
TestRevocationEngine_RevokeAll verifies an ALL intent resolves to every
active session of the named user, from a single snapshot of the Session
Store's view — never the revocation cache.
*/
func TestRevocationEngine_RevokeAll(t *testing.T) {
	sessions, repo := newCachedSessionsForRevocation()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s1", UserID: "u1"}))
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s2", UserID: "u1"}))
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s3", UserID: "u2"}))

	engine := newRevocationEngine(sessions, DeleteOnRevoke, nil, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	revoked, err := engine.Revoke(ctx, AllIntent("u1", nil), newFakeRequestHandle())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, revoked)

	// DeleteOnRevoke must remove the session entries outright.
	remaining, err := sessions.GetSessionsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	other, err := sessions.GetSessionsByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

/*
TestRevocationEngine_RevokeAllRequiresUserID verifies the required-field
guard on the ALL intent.
*/
func TestRevocationEngine_RevokeAllRequiresUserID(t *testing.T) {
	sessions, _ := newCachedSessionsForRevocation()
	engine := newRevocationEngine(sessions, DeleteOnRevoke, nil, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	_, err := engine.Revoke(context.Background(), AllIntent("", nil), newFakeRequestHandle())
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

/*
TestRevocationEngine_RevokeAllExcept verifies that the exclusion set is
honored and sanitized (blank/duplicate entries dropped).
*/
func TestRevocationEngine_RevokeAllExcept(t *testing.T) {
	sessions, repo := newCachedSessionsForRevocation()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s1", UserID: "u1"}))
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s2", UserID: "u1"}))
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s3", UserID: "u1"}))

	engine := newRevocationEngine(sessions, DeleteOnRevoke, nil, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	revoked, err := engine.Revoke(ctx, AllExceptIntent("u1", []string{"s2", "  ", "s2"}, nil), newFakeRequestHandle())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s3"}, revoked)

	remaining, err := sessions.GetSessionsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "s2", remaining[0].SessionID)
}

/*
TestRevocationEngine_RevokeIsIdempotent verifies that revoking an
already-revoked session a second time is a silent skip, not a duplicate
record or a repeated policy application.
*/
func TestRevocationEngine_RevokeIsIdempotent(t *testing.T) {
	sessions, repo := newCachedSessionsForRevocation()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s1", UserID: "u1"}))

	engine := newRevocationEngine(sessions, MarkOnRevoke, nil, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	first, err := engine.Revoke(ctx, OneIntent("s1", nil), newFakeRequestHandle())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, first)

	second, err := engine.Revoke(ctx, OneIntent("s1", nil), newFakeRequestHandle())
	require.NoError(t, err)
	assert.Empty(t, second)
}

/*
TestRevocationEngine_TriggeredByStampedFromProbe verifies that Revoke
stamps the record's TriggeredBy from the IdentityProbe's current snapshot.
*/
func TestRevocationEngine_TriggeredByStampedFromProbe(t *testing.T) {
	sessions, repo := newCachedSessionsForRevocation()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s1", UserID: "u1"}))

	revRepo := newFakeRevocationRepository()
	engine := newRevocationEngine(sessions, MarkOnRevoke, revRepo, newFakeCache(), fakeIdentityProbe{principal: "operator-7"}, SystemClock, testLogger(), noopMetrics())

	_, err := engine.Revoke(ctx, OneIntent("s1", nil), newFakeRequestHandle())
	require.NoError(t, err)

	rec, err := revRepo.FindBySessionID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "operator-7", rec.TriggeredBy)
}

/*
TestRevocationEngine_IsRevoked_CacheHitShortCircuits verifies that a cache
hit on the revocation record is sufficient, without consulting the store.
*/
func TestRevocationEngine_IsRevoked_CacheHitShortCircuits(t *testing.T) {
	sessions, _ := newCachedSessionsForRevocation()
	revCache := newFakeCache()
	require.NoError(t, revCache.Put(context.Background(), revocationKey("s1"), &RevocationRecord{SessionID: "s1"}))

	engine := newRevocationEngine(sessions, MarkOnRevoke, nil, revCache, fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	revoked, err := engine.IsRevoked(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

/*
TestRevocationEngine_IsRevoked_FallsBackToStore verifies that a cache miss
falls back to the revocation repository when one is configured.
*/
func TestRevocationEngine_IsRevoked_FallsBackToStore(t *testing.T) {
	sessions, _ := newCachedSessionsForRevocation()
	revRepo := newFakeRevocationRepository()
	require.NoError(t, revRepo.Insert(context.Background(), &RevocationRecord{SessionID: "s1", RevokedAt: time.Now()}))

	engine := newRevocationEngine(sessions, MarkOnRevoke, revRepo, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	revoked, err := engine.IsRevoked(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = engine.IsRevoked(context.Background(), "not-revoked")
	require.NoError(t, err)
	assert.False(t, revoked)
}

/*
TestRevocationEngine_GetRevocationsByUser_StoreBacked verifies the
store-backed path delegates directly to the repository's FindByUser.
*/
func TestRevocationEngine_GetRevocationsByUser_StoreBacked(t *testing.T) {
	sessions, _ := newCachedSessionsForRevocation()
	revRepo := newFakeRevocationRepository()
	require.NoError(t, revRepo.Insert(context.Background(), &RevocationRecord{SessionID: "s1", UserID: "u1", RevokedAt: time.Now()}))

	engine := newRevocationEngine(sessions, MarkOnRevoke, revRepo, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	records, err := engine.GetRevocationsByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "s1", records[0].SessionID)
}

/*
TestRevocationEngine_GetRevocationsByUser_CacheOnlyUsesUserIndex is a
regression test for the cache-only REVOCATION path: persistRecord must
thread every revoked session into the per-user index so
GetRevocationsByUser can find it without a backing store.
*/
func TestRevocationEngine_GetRevocationsByUser_CacheOnlyUsesUserIndex(t *testing.T) {
	sessions, repo := newCachedSessionsForRevocation()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s1", UserID: "u1"}))
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s2", UserID: "u1"}))

	revCache := newFakeCache()
	engine := newRevocationEngine(sessions, MarkOnRevoke, nil, revCache, fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	_, err := engine.Revoke(ctx, OneIntent("s1", nil), newFakeRequestHandle())
	require.NoError(t, err)
	_, err = engine.Revoke(ctx, OneIntent("s2", nil), newFakeRequestHandle())
	require.NoError(t, err)

	records, err := engine.GetRevocationsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, records, 2, "cache-only REVOCATION must list both revoked sessions via the per-user index")
}

/*
TestRevocationEngine_GetRevocationsByUser_CacheOnlyEmptyForUnknownUser
verifies an unconfigured/absent index resolves to an empty slice, never an
error or nil-dereference.
*/
func TestRevocationEngine_GetRevocationsByUser_CacheOnlyEmptyForUnknownUser(t *testing.T) {
	sessions, _ := newCachedSessionsForRevocation()
	engine := newRevocationEngine(sessions, MarkOnRevoke, nil, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	records, err := engine.GetRevocationsByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}

/*
TestRevocationEngine_ClearRevocation verifies that clearing a revocation
record removes it from both the cache and the store, without touching the
underlying session.
*/
func TestRevocationEngine_ClearRevocation(t *testing.T) {
	sessions, repo := newCachedSessionsForRevocation()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &Session{SessionID: "s1", UserID: "u1"}))

	revRepo := newFakeRevocationRepository()
	revCache := newFakeCache()
	engine := newRevocationEngine(sessions, MarkOnRevoke, revRepo, revCache, fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	_, err := engine.Revoke(ctx, OneIntent("s1", nil), newFakeRequestHandle())
	require.NoError(t, err)

	require.NoError(t, engine.ClearRevocation(ctx, "s1"))

	revoked, err := engine.IsRevoked(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, revoked)

	s, err := sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, s, "clearing a revocation must not touch the session entry")
}

/*
TestRevocationEngine_DeleteRevocationsOlderThan_NoStoreIsNoop verifies that
a cache-only REVOCATION family has no durable backlog to page through.
*/
func TestRevocationEngine_DeleteRevocationsOlderThan_NoStoreIsNoop(t *testing.T) {
	sessions, _ := newCachedSessionsForRevocation()
	engine := newRevocationEngine(sessions, MarkOnRevoke, nil, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	deleted, err := engine.DeleteRevocationsOlderThan(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

/*
TestRevocationEngine_DeleteRevocationsOlderThan_PagesUntilExhausted verifies
the batch-delete primitive pages through a backlog larger than one page,
stopping once a page returns fewer than cleanupPageSize deletions.
*/
func TestRevocationEngine_DeleteRevocationsOlderThan_PagesUntilExhausted(t *testing.T) {
	sessions, _ := newCachedSessionsForRevocation()
	revRepo := newFakeRevocationRepository()
	ctx := context.Background()

	cutoff := time.Unix(1000, 0)
	old := cutoff.Add(-time.Hour)
	for i := 0; i < cleanupPageSize+5; i++ {
		id := "s" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		require.NoError(t, revRepo.Insert(ctx, &RevocationRecord{SessionID: id, RevokedAt: old}))
	}

	engine := newRevocationEngine(sessions, MarkOnRevoke, revRepo, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	deleted, err := engine.DeleteRevocationsOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, cleanupPageSize+5, deleted)
}

/*
TestRevocationEngine_DeleteRevocationsOlderThan_RespectsCutoff verifies
records recorded after cutoff are left alone.
*/
func TestRevocationEngine_DeleteRevocationsOlderThan_RespectsCutoff(t *testing.T) {
	sessions, _ := newCachedSessionsForRevocation()
	revRepo := newFakeRevocationRepository()
	ctx := context.Background()

	cutoff := time.Unix(2000, 0)
	require.NoError(t, revRepo.Insert(ctx, &RevocationRecord{SessionID: "old", RevokedAt: cutoff.Add(-time.Hour)}))
	require.NoError(t, revRepo.Insert(ctx, &RevocationRecord{SessionID: "new", RevokedAt: cutoff.Add(time.Hour)}))

	engine := newRevocationEngine(sessions, MarkOnRevoke, revRepo, newFakeCache(), fakeIdentityProbe{}, SystemClock, testLogger(), noopMetrics())

	deleted, err := engine.DeleteRevocationsOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	remaining, err := revRepo.FindBySessionID(ctx, "new")
	require.NoError(t, err)
	assert.NotNil(t, remaining)
}
