// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// fakeClock is a Clock stub that returns a fixed instant, advanceable by
// tests that need ordering guarantees.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeCache is an in-memory Cache stub that round-trips values through JSON,
// matching redisCache's marshaling semantics without a real Redis backend.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Put(_ context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = payload
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string, dest any) bool {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *fakeCache) Evict(_ context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, existed := c.data[key]
	delete(c.data, key)
	return existed
}

func (c *fakeCache) MultiGet(_ context.Context, keys []string, newDest func() any) map[string]any {
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

func (c *fakeCache) MultiEvict(_ context.Context, keys []string) int {
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

func (c *fakeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// fakeSessionRepository is an in-memory SessionRepository stub.
type fakeSessionRepository struct {
	mu       sync.Mutex
	byID     map[string]*Session
	insertsN int
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{byID: map[string]*Session{}}
}

func (r *fakeSessionRepository) Insert(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.byID[s.SessionID] = &cp
	r.insertsN++
	return nil
}

func (r *fakeSessionRepository) FindByID(_ context.Context, sessionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepository) FindByUser(_ context.Context, userID string) ([]*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0)
	for _, s := range r.byID {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepository) FindActiveByUser(ctx context.Context, userID string) ([]*Session, error) {
	all, _ := r.FindByUser(ctx, userID)
	out := make([]*Session, 0, len(all))
	for _, s := range all {
		if !s.IsRevoked {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepository) FindActiveByUserExcluding(ctx context.Context, userID string, excluded []string) ([]*Session, error) {
	active, _ := r.FindActiveByUser(ctx, userID)
	excludedSet := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		excludedSet[id] = struct{}{}
	}
	out := make([]*Session, 0, len(active))
	for _, s := range active {
		if _, skip := excludedSet[s.SessionID]; !skip {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	all, _ := r.FindByUser(ctx, userID)
	return len(all), nil
}

func (r *fakeSessionRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, sessionID)
	return nil
}

func (r *fakeSessionRepository) DeleteMany(_ context.Context, sessionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range sessionIDs {
		delete(r.byID, id)
	}
	return nil
}

func (r *fakeSessionRepository) MarkRevoked(_ context.Context, sessionID string, revokedAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return nil
	}
	s.IsRevoked = true
	t := time.UnixMilli(revokedAt)
	s.RevokedAt = &t
	return nil
}

// fakeRevocationRepository is an in-memory RevocationRepository stub.
type fakeRevocationRepository struct {
	mu      sync.Mutex
	records map[string]*RevocationRecord
}

func newFakeRevocationRepository() *fakeRevocationRepository {
	return &fakeRevocationRepository{records: map[string]*RevocationRecord{}}
}

func (r *fakeRevocationRepository) Insert(_ context.Context, rec *RevocationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.SessionID] = &cp
	return nil
}

func (r *fakeRevocationRepository) FindBySessionID(_ context.Context, sessionID string) (*RevocationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRevocationRepository) FindByUser(_ context.Context, userID string) ([]*RevocationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*RevocationRecord, 0)
	for _, rec := range r.records {
		if rec.UserID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRevocationRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, sessionID)
	return nil
}

func (r *fakeRevocationRepository) DeleteOlderThan(_ context.Context, cutoffUnixMilli int64, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, rec := range r.records {
		if deleted >= limit {
			break
		}
		if rec.RevokedAt.UnixMilli() < cutoffUnixMilli {
			delete(r.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeRequestHandle is a RequestHandle stub backed by plain maps, also
// satisfying contextCarrier so IdentityProbe tests can exercise it.
type fakeRequestHandle struct {
	headers    map[string]string
	attributes map[string]string
	ctx        context.Context
}

func newFakeRequestHandle() *fakeRequestHandle {
	return &fakeRequestHandle{
		headers:    map[string]string{},
		attributes: map[string]string{},
		ctx:        context.Background(),
	}
}

func (h *fakeRequestHandle) Header(name string) string {
	return h.headers[name]
}

func (h *fakeRequestHandle) Attribute(key string) (string, bool) {
	v, ok := h.attributes[key]
	return v, ok
}

func (h *fakeRequestHandle) SetAttribute(key, value string) {
	h.attributes[key] = value
}

func (h *fakeRequestHandle) Context() context.Context {
	return h.ctx
}

// fakeFingerprintGenerator returns a configured fingerprint or error.
type fakeFingerprintGenerator struct {
	fingerprint string
	err         error
}

func (g fakeFingerprintGenerator) Generate(RequestHandle) (string, error) {
	return g.fingerprint, g.err
}

// fakeFingerprintValidator returns a configured match result.
type fakeFingerprintValidator struct {
	match bool
	err   error
}

func (v fakeFingerprintValidator) Validate(RequestHandle, string) (bool, error) {
	return v.match, v.err
}

// fakeIdentityProbe returns a configured principal.
type fakeIdentityProbe struct {
	principal string
}

func (p fakeIdentityProbe) CurrentPrincipal(RequestHandle) string {
	return p.principal
}

// testLogger returns a slog.Logger that discards output, for tests that
// need to pass one to a constructor without polluting `go test -v` output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
