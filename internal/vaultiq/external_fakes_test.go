// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/vaultiq/internal/vaultiq"
)

// testLogger returns a slog.Logger that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memCache is an in-memory vaultiq.Cache stub for black-box tests, built
// only on the exported Cache contract.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Put(_ context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = payload
	return nil
}

func (c *memCache) Get(_ context.Context, key string, dest any) bool {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *memCache) Evict(_ context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, existed := c.data[key]
	delete(c.data, key)
	return existed
}

func (c *memCache) MultiGet(_ context.Context, keys []string, newDest func() any) map[string]any {
	out := make(map[string]any, len(keys))
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		raw, ok := c.data[k]
		if !ok {
			continue
		}
		dest := newDest()
		if json.Unmarshal(raw, dest) == nil {
			out[k] = dest
		}
	}
	return out
}

func (c *memCache) MultiEvict(_ context.Context, keys []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, k := range keys {
		if _, ok := c.data[k]; ok {
			delete(c.data, k)
			n++
		}
	}
	return n
}

// namedCacheProvider resolves a fixed memCache per family, recording which
// families were asked for, for assertions on Gate wiring.
type namedCacheProvider struct {
	mu       sync.Mutex
	byFamily map[vaultiq.Family]*memCache
	asked    []vaultiq.Family
}

func newNamedCacheProvider(families ...vaultiq.Family) *namedCacheProvider {
	p := &namedCacheProvider{byFamily: map[vaultiq.Family]*memCache{}}
	for _, f := range families {
		p.byFamily[f] = newMemCache()
	}
	return p
}

func (p *namedCacheProvider) GetCache(family vaultiq.Family, _ vaultiq.FamilyConfig) (vaultiq.Cache, bool) {
	p.mu.Lock()
	p.asked = append(p.asked, family)
	p.mu.Unlock()
	c, ok := p.byFamily[family]
	if !ok {
		return nil, false
	}
	return c, true
}

// fakeSessionManager is a canned vaultiq.SessionManager for handler and
// validator tests, keyed by session ID.
type fakeSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*vaultiq.Session
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{sessions: map[string]*vaultiq.Session{}}
}

func (m *fakeSessionManager) seed(s *vaultiq.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = s
}

func (m *fakeSessionManager) CreateSession(_ context.Context, userID string, req vaultiq.RequestHandle) (*vaultiq.Session, error) {
	if userID == "" {
		return nil, vaultiq.ErrInvalidUserID
	}
	s := &vaultiq.Session{SessionID: "created-session", UserID: userID, DeviceFingerprint: "fp", CreatedAt: time.Now()}
	m.mu.Lock()
	m.sessions[s.SessionID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *fakeSessionManager) GetSession(_ context.Context, sessionID string) (*vaultiq.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionID], nil
}

func (m *fakeSessionManager) GetSessionsByUser(_ context.Context, userID string) ([]*vaultiq.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*vaultiq.Session, 0)
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *fakeSessionManager) GetActiveSessionsByUser(ctx context.Context, userID string) ([]*vaultiq.Session, error) {
	all, _ := m.GetSessionsByUser(ctx, userID)
	out := make([]*vaultiq.Session, 0, len(all))
	for _, s := range all {
		if !s.IsRevoked {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *fakeSessionManager) TotalUserSessions(ctx context.Context, userID string) (int, error) {
	all, _ := m.GetSessionsByUser(ctx, userID)
	return len(all), nil
}

func (m *fakeSessionManager) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *fakeSessionManager) DeleteAllSessions(_ context.Context, sessionIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sessionIDs {
		delete(m.sessions, id)
	}
	return nil
}

func (m *fakeSessionManager) GetSessionFingerprint(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return "", nil
	}
	return s.DeviceFingerprint, nil
}

// fakeRevocationEngine is a canned vaultiq.RevocationEngine recording every
// intent it was asked to revoke, for handler-level route assertions.
type fakeRevocationEngine struct {
	mu        sync.Mutex
	revoked   []vaultiq.RevocationIntent
	revokedOf map[string]bool
	err       error
}

func newFakeRevocationEngine() *fakeRevocationEngine {
	return &fakeRevocationEngine{revokedOf: map[string]bool{}}
}

func (e *fakeRevocationEngine) Revoke(_ context.Context, intent vaultiq.RevocationIntent, _ vaultiq.RequestHandle) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revoked = append(e.revoked, intent)
	if e.err != nil {
		return nil, e.err
	}
	if intent.Kind == vaultiq.RevokeOne {
		e.revokedOf[intent.SessionID] = true
		return []string{intent.SessionID}, nil
	}
	return nil, nil
}

func (e *fakeRevocationEngine) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revokedOf[sessionID], nil
}

func (e *fakeRevocationEngine) GetRevocationsByUser(context.Context, string) ([]*vaultiq.RevocationRecord, error) {
	return nil, nil
}

func (e *fakeRevocationEngine) ClearRevocation(context.Context, ...string) error { return nil }

func (e *fakeRevocationEngine) DeleteRevocationsOlderThan(context.Context, time.Time) (int, error) {
	return 0, nil
}

// fakeFingerprintValidator returns a configured match result.
type fakeFingerprintValidator struct {
	match bool
	err   error
}

func (v fakeFingerprintValidator) Validate(vaultiq.RequestHandle, string) (bool, error) {
	return v.match, v.err
}

// fakeIdentityProbe returns a configured principal.
type fakeIdentityProbe struct {
	principal string
}

func (p fakeIdentityProbe) CurrentPrincipal(vaultiq.RequestHandle) string {
	return p.principal
}

// fakeRequestHandle backs RequestHandle with plain maps, for validator and
// config-level tests that don't need an *http.Request.
type fakeRequestHandle struct {
	headers    map[string]string
	attributes map[string]string
}

func newFakeRequestHandle() *fakeRequestHandle {
	return &fakeRequestHandle{headers: map[string]string{}, attributes: map[string]string{}}
}

func (h *fakeRequestHandle) Header(name string) string { return h.headers[name] }

func (h *fakeRequestHandle) Attribute(key string) (string, bool) {
	v, ok := h.attributes[key]
	return v, ok
}

func (h *fakeRequestHandle) SetAttribute(key, value string) { h.attributes[key] = value }
