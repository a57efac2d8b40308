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

// cachedSessionManager implements SessionManager when SESSION resolves to
// (useStore=true, useCache=true). Postgres is the source of truth; Redis
// accelerates point reads. Writes go store-then-cache so a reader never
// observes a cached session the store doesn't yet know about. Membership
// queries (by-user, active-by-user, count) go straight to the store: the
// cache only ever holds individual session entries keyed by session ID,
// never a list.
type cachedSessionManager struct {
	repo  SessionRepository
	cache Cache
	gen   FingerprintGenerator
	clock Clock
	log   *slog.Logger
}

func newCachedSessionManager(repo SessionRepository, cache Cache, gen FingerprintGenerator, clock Clock, log *slog.Logger) SessionManager {
	return &cachedSessionManager{repo: repo, cache: cache, gen: gen, clock: clock, log: log}
}

func (m *cachedSessionManager) CreateSession(ctx context.Context, userID string, req RequestHandle) (*Session, error) {
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

	if err := m.repo.Insert(ctx, session); err != nil {
		return nil, err
	}

	if err := m.cache.Put(ctx, sessionKey(session.SessionID), session); err != nil {
		m.log.DebugContext(ctx, "vaultiq_session_cache_populate_failed", slog.Any("error", err))
	}

	return session, nil
}

func (m *cachedSessionManager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil
	}

	var cached Session
	if m.cache.Get(ctx, sessionKey(sessionID), &cached) {
		return &cached, nil
	}

	s, err := m.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	if err := m.cache.Put(ctx, sessionKey(sessionID), s); err != nil {
		m.log.DebugContext(ctx, "vaultiq_session_cache_populate_failed", slog.Any("error", err))
	}
	return s, nil
}

func (m *cachedSessionManager) GetSessionsByUser(ctx context.Context, userID string) ([]*Session, error) {
	return m.repo.FindByUser(ctx, userID)
}

func (m *cachedSessionManager) GetActiveSessionsByUser(ctx context.Context, userID string) ([]*Session, error) {
	return m.repo.FindActiveByUser(ctx, userID)
}

func (m *cachedSessionManager) TotalUserSessions(ctx context.Context, userID string) (int, error) {
	return m.repo.CountByUser(ctx, userID)
}

func (m *cachedSessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := m.repo.Delete(ctx, sessionID); err != nil {
		return err
	}
	m.cache.Evict(ctx, sessionKey(sessionID))
	return nil
}

func (m *cachedSessionManager) DeleteAllSessions(ctx context.Context, sessionIDs []string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	if err := m.repo.DeleteMany(ctx, sessionIDs); err != nil {
		return err
	}

	keys := make([]string, 0, len(sessionIDs))
	for _, sid := range sessionIDs {
		keys = append(keys, sessionKey(sid))
	}
	m.cache.MultiEvict(ctx, keys)
	return nil
}

func (m *cachedSessionManager) GetSessionFingerprint(ctx context.Context, sessionID string) (string, error) {
	s, err := m.GetSession(ctx, sessionID)
	if err != nil || s == nil {
		return "", err
	}
	return s.DeviceFingerprint, nil
}

// markRevoked implements sessionRevoker for the mark-on-revoke policy.
// Updates the store, then evicts the cache entry rather than rewriting it,
// consistent with store-then-cache write ordering: the next read miss
// repopulates the cache with the now-revoked row.
func (m *cachedSessionManager) markRevoked(ctx context.Context, sessionID string, revokedAt time.Time) error {
	if err := m.repo.MarkRevoked(ctx, sessionID, revokedAt.UnixMilli()); err != nil {
		return err
	}
	m.cache.Evict(ctx, sessionKey(sessionID))
	return nil
}
