// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/vaultiq/pkg/uuid"
)

// cacheOnlySessionManager implements SessionManager when SESSION resolves
// to (useStore=false, useCache=true). All state lives in the cache:
// createSession writes the session entry first, then updates the user
// index in a single read-modify-write — cache-then-index ordering, the
// only case where the store tier is absent (§4.3).
type cacheOnlySessionManager struct {
	sessions Cache
	index    Cache
	locks    *userLockTable
	gen      FingerprintGenerator
	clock    Clock
	log      *slog.Logger
	policy   RevocationPolicy
}

func newCacheOnlySessionManager(sessions, index Cache, locks *userLockTable, gen FingerprintGenerator, clock Clock, log *slog.Logger, policy RevocationPolicy) SessionManager {
	return &cacheOnlySessionManager{sessions: sessions, index: index, locks: locks, gen: gen, clock: clock, log: log, policy: policy}
}

func (m *cacheOnlySessionManager) CreateSession(ctx context.Context, userID string, req RequestHandle) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	fingerprint, err := m.gen.Generate(req)
	if err != nil {
		m.log.WarnContext(ctx, "vaultiq_fingerprint_generation_failed", slog.Any("error", err))
		return nil, err
	}

	session := &Session{
		SessionID:         uuid.New(),
		UserID:            userID,
		DeviceFingerprint: fingerprint,
		CreatedAt:         m.clock.Now(),
	}

	if err := m.sessions.Put(ctx, sessionKey(session.SessionID), session); err != nil {
		return nil, err
	}

	m.updateIndexAdd(ctx, userID, session.SessionID)

	return session, nil
}

func (m *cacheOnlySessionManager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil
	}
	var s Session
	if !m.sessions.Get(ctx, sessionKey(sessionID), &s) {
		return nil, nil
	}
	return &s, nil
}

func (m *cacheOnlySessionManager) GetSessionsByUser(ctx context.Context, userID string) ([]*Session, error) {
	idx := m.readIndex(ctx, userID)
	if len(idx.SessionIDs) == 0 {
		return []*Session{}, nil
	}

	keys := make([]string, 0, len(idx.SessionIDs))
	for sid := range idx.SessionIDs {
		keys = append(keys, sessionKey(sid))
	}

	hits := m.sessions.MultiGet(ctx, keys, func() any { return &Session{} })
	out := make([]*Session, 0, len(hits))
	for _, v := range hits {
		if s, ok := v.(*Session); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *cacheOnlySessionManager) GetActiveSessionsByUser(ctx context.Context, userID string) ([]*Session, error) {
	all, err := m.GetSessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*Session, 0, len(all))
	for _, s := range all {
		if !s.IsRevoked {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *cacheOnlySessionManager) TotalUserSessions(ctx context.Context, userID string) (int, error) {
	all, err := m.GetSessionsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (m *cacheOnlySessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	var s Session
	found := m.sessions.Get(ctx, sessionKey(sessionID), &s)
	m.sessions.Evict(ctx, sessionKey(sessionID))
	if found {
		m.updateIndexRemove(ctx, s.UserID, sessionID)
	}
	return nil
}

func (m *cacheOnlySessionManager) DeleteAllSessions(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(sessionIDs))
	for _, sid := range sessionIDs {
		keys = append(keys, sessionKey(sid))
	}

	// Learn ownership before eviction so the affected user indexes can be
	// updated afterward, matching §4.3's "groups remaining session IDs by
	// user from the just-deleted entries" rule.
	hits := m.sessions.MultiGet(ctx, keys, func() any { return &Session{} })
	byUser := make(map[string][]string)
	for _, v := range hits {
		if s, ok := v.(*Session); ok {
			byUser[s.UserID] = append(byUser[s.UserID], s.SessionID)
		}
	}

	m.sessions.MultiEvict(ctx, keys)

	for userID, ids := range byUser {
		m.updateIndexRemoveMany(ctx, userID, ids)
	}
	return nil
}

func (m *cacheOnlySessionManager) GetSessionFingerprint(ctx context.Context, sessionID string) (string, error) {
	s, err := m.GetSession(ctx, sessionID)
	if err != nil || s == nil {
		return "", err
	}
	return s.DeviceFingerprint, nil
}

// markRevoked implements sessionRevoker for the mark-on-revoke policy, read
// by the Revocation Engine via type assertion.
func (m *cacheOnlySessionManager) markRevoked(ctx context.Context, sessionID string, revokedAt time.Time) error {
	var s Session
	if !m.sessions.Get(ctx, sessionKey(sessionID), &s) {
		return nil
	}
	s.IsRevoked = true
	s.RevokedAt = &revokedAt
	return m.sessions.Put(ctx, sessionKey(sessionID), &s)
}

// readIndex returns the UserSessionIndex for userID, or an empty one if
// absent.
func (m *cacheOnlySessionManager) readIndex(ctx context.Context, userID string) *UserSessionIndex {
	var idx UserSessionIndex
	if !m.index.Get(ctx, userSessionsKey(userID), &idx) || idx.SessionIDs == nil {
		return &UserSessionIndex{UserID: userID, SessionIDs: map[string]struct{}{}}
	}
	return &idx
}

func (m *cacheOnlySessionManager) updateIndexAdd(ctx context.Context, userID, sessionID string) {
	unlock := m.locks.Lock(userID)
	defer unlock()

	idx := m.readIndex(ctx, userID)
	idx.SessionIDs[sessionID] = struct{}{}
	idx.touch(m.clock)
	if err := m.index.Put(ctx, userSessionsKey(userID), idx); err != nil {
		m.log.DebugContext(ctx, "vaultiq_index_update_failed", slog.String("user_id", userID), slog.Any("error", err))
	}
}

func (m *cacheOnlySessionManager) updateIndexRemove(ctx context.Context, userID, sessionID string) {
	m.updateIndexRemoveMany(ctx, userID, []string{sessionID})
}

func (m *cacheOnlySessionManager) updateIndexRemoveMany(ctx context.Context, userID string, sessionIDs []string) {
	unlock := m.locks.Lock(userID)
	defer unlock()

	idx := m.readIndex(ctx, userID)
	for _, sid := range sessionIDs {
		delete(idx.SessionIDs, sid)
	}
	idx.touch(m.clock)
	if err := m.index.Put(ctx, userSessionsKey(userID), idx); err != nil {
		m.log.DebugContext(ctx, "vaultiq_index_update_failed", slog.String("user_id", userID), slog.Any("error", err))
	}
}
