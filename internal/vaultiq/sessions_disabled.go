// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"
	"time"
)

// disabledSessionManager implements SessionManager for the (useStore=false,
// useCache=false) cell of the Mode Gate's factory table. Every operation
// surfaces ErrNotConfigured as a diagnostic, never silently.
type disabledSessionManager struct{}

func newDisabledSessionManager() SessionManager { return disabledSessionManager{} }

func (disabledSessionManager) CreateSession(context.Context, string, RequestHandle) (*Session, error) {
	return nil, ErrNotConfigured
}

func (disabledSessionManager) GetSession(context.Context, string) (*Session, error) {
	return nil, ErrNotConfigured
}

func (disabledSessionManager) GetSessionsByUser(context.Context, string) ([]*Session, error) {
	return nil, ErrNotConfigured
}

func (disabledSessionManager) GetActiveSessionsByUser(context.Context, string) ([]*Session, error) {
	return nil, ErrNotConfigured
}

func (disabledSessionManager) TotalUserSessions(context.Context, string) (int, error) {
	return 0, ErrNotConfigured
}

func (disabledSessionManager) DeleteSession(context.Context, string) error {
	return ErrNotConfigured
}

func (disabledSessionManager) DeleteAllSessions(context.Context, []string) error {
	return ErrNotConfigured
}

func (disabledSessionManager) GetSessionFingerprint(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (disabledSessionManager) markRevoked(context.Context, string, time.Time) error {
	return ErrNotConfigured
}
