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

// storeOnlySessionManager implements SessionManager when SESSION resolves
// to (useStore=true, useCache=false). Every read goes straight to Postgres;
// there is no index to maintain since the store answers "sessions for
// user" with a query.
type storeOnlySessionManager struct {
	repo  SessionRepository
	gen   FingerprintGenerator
	clock Clock
	log   *slog.Logger
}

func newStoreOnlySessionManager(repo SessionRepository, gen FingerprintGenerator, clock Clock, log *slog.Logger) SessionManager {
	return &storeOnlySessionManager{repo: repo, gen: gen, clock: clock, log: log}
}

func (m *storeOnlySessionManager) CreateSession(ctx context.Context, userID string, req RequestHandle) (*Session, error) {
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
	return session, nil
}

func (m *storeOnlySessionManager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil
	}
	return m.repo.FindByID(ctx, sessionID)
}

func (m *storeOnlySessionManager) GetSessionsByUser(ctx context.Context, userID string) ([]*Session, error) {
	return m.repo.FindByUser(ctx, userID)
}

func (m *storeOnlySessionManager) GetActiveSessionsByUser(ctx context.Context, userID string) ([]*Session, error) {
	return m.repo.FindActiveByUser(ctx, userID)
}

func (m *storeOnlySessionManager) TotalUserSessions(ctx context.Context, userID string) (int, error) {
	return m.repo.CountByUser(ctx, userID)
}

func (m *storeOnlySessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return m.repo.Delete(ctx, sessionID)
}

func (m *storeOnlySessionManager) DeleteAllSessions(ctx context.Context, sessionIDs []string) error {
	return m.repo.DeleteMany(ctx, sessionIDs)
}

func (m *storeOnlySessionManager) GetSessionFingerprint(ctx context.Context, sessionID string) (string, error) {
	s, err := m.GetSession(ctx, sessionID)
	if err != nil || s == nil {
		return "", err
	}
	return s.DeviceFingerprint, nil
}

// markRevoked implements sessionRevoker for the mark-on-revoke policy.
func (m *storeOnlySessionManager) markRevoked(ctx context.Context, sessionID string, revokedAt time.Time) error {
	return m.repo.MarkRevoked(ctx, sessionID, revokedAt.UnixMilli())
}
