// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// cleanupPageSize and cleanupMaxBatches bound a single
// DeleteRevocationsOlderThan call (§4.4 "safety cap prevents unbounded
// work when a scheduler misfires").
const (
	cleanupPageSize   = 1000
	cleanupMaxBatches = 100
)

// revocationEngine implements RevocationEngine. It depends on the Session
// Store capability (whichever SessionManager variant the Mode Gate wired
// for the SESSION family) to resolve a revocation intent's target set, and
// never consults the revocation cache to compute that set — only the
// store's (or cache-only mode's own) active-session view is canonical
// (§9 "breaks the cyclic dependency").
type revocationEngine struct {
	sessions SessionManager
	policy   RevocationPolicy
	revRepo  RevocationRepository // nil when REVOCATION family has no store
	revCache Cache                // absentCache when REVOCATION family has no cache
	probe    IdentityProbe
	clock    Clock
	log      *slog.Logger
	metrics  *Metrics
}

func newRevocationEngine(sessions SessionManager, policy RevocationPolicy, revRepo RevocationRepository, revCache Cache, probe IdentityProbe, clock Clock, log *slog.Logger, metrics *Metrics) RevocationEngine {
	return &revocationEngine{
		sessions: sessions,
		policy:   policy,
		revRepo:  revRepo,
		revCache: revCache,
		probe:    probe,
		clock:    clock,
		log:      log,
		metrics:  metrics,
	}
}

// targetSession pairs a session ID with its owning user, resolved from the
// single snapshot taken for this call.
type targetSession struct {
	sessionID string
	userID    string
}

func (e *revocationEngine) Revoke(ctx context.Context, intent RevocationIntent, req RequestHandle) ([]string, error) {
	targets, err := e.resolveTargets(ctx, intent)
	if err != nil {
		return nil, err
	}

	triggeredBy := ""
	if e.probe != nil {
		triggeredBy = e.probe.CurrentPrincipal(req)
	}

	now := e.clock.Now()
	revoked := make([]string, 0, len(targets))

	for _, t := range targets {
		already, err := e.IsRevoked(ctx, t.sessionID)
		if err != nil {
			e.log.DebugContext(ctx, "vaultiq_revocation_check_failed", slog.String("session_id", t.sessionID), slog.Any("error", err))
		}
		if already {
			e.log.DebugContext(ctx, "vaultiq_revocation_idempotent_skip", slog.String("session_id", t.sessionID))
			continue
		}

		record := &RevocationRecord{
			SessionID:   t.sessionID,
			UserID:      t.userID,
			Kind:        intent.Kind,
			Note:        intent.Note,
			TriggeredBy: triggeredBy,
			RevokedAt:   now,
		}
		e.persistRecord(ctx, record)
		e.applyPolicy(ctx, t.sessionID, now)

		if e.metrics != nil {
			e.metrics.RevokedTotal.WithLabelValues(string(intent.Kind)).Inc()
		}
		revoked = append(revoked, t.sessionID)
	}

	return revoked, nil
}

// resolveTargets computes the concrete session IDs a RevocationIntent
// names, from a single snapshot of the active-session view (invariant 6).
func (e *revocationEngine) resolveTargets(ctx context.Context, intent RevocationIntent) ([]targetSession, error) {
	switch intent.Kind {
	case RevokeOne:
		if strings.TrimSpace(intent.SessionID) == "" {
			return nil, ErrInvalidSessionID
		}
		s, err := e.sessions.GetSession(ctx, intent.SessionID)
		if err != nil {
			return nil, err
		}
		if s == nil {
			e.log.DebugContext(ctx, "vaultiq_revoke_target_missing", slog.String("session_id", intent.SessionID))
			return nil, nil
		}
		return []targetSession{{sessionID: s.SessionID, userID: s.UserID}}, nil

	case RevokeAll:
		if strings.TrimSpace(intent.UserID) == "" {
			return nil, ErrInvalidUserID
		}
		active, err := e.sessions.GetActiveSessionsByUser(ctx, intent.UserID)
		if err != nil {
			return nil, err
		}
		return toTargets(active), nil

	case RevokeAllExcept:
		if strings.TrimSpace(intent.UserID) == "" {
			return nil, ErrInvalidUserID
		}
		active, err := e.sessions.GetActiveSessionsByUser(ctx, intent.UserID)
		if err != nil {
			return nil, err
		}
		excluded := sanitizeExclusions(intent.Excluded)
		targets := make([]targetSession, 0, len(active))
		for _, s := range active {
			if _, skip := excluded[s.SessionID]; skip {
				continue
			}
			targets = append(targets, targetSession{sessionID: s.SessionID, userID: s.UserID})
		}
		return targets, nil

	default:
		return nil, nil
	}
}

func toTargets(sessions []*Session) []targetSession {
	targets := make([]targetSession, 0, len(sessions))
	for _, s := range sessions {
		targets = append(targets, targetSession{sessionID: s.SessionID, userID: s.UserID})
	}
	return targets
}

// sanitizeExclusions trims, drops blank entries, and dedupes excluded
// session IDs, per §4.4.
func sanitizeExclusions(excluded []string) map[string]struct{} {
	set := make(map[string]struct{}, len(excluded))
	for _, sid := range excluded {
		sid = strings.TrimSpace(sid)
		if sid == "" {
			continue
		}
		set[sid] = struct{}{}
	}
	return set
}

func (e *revocationEngine) persistRecord(ctx context.Context, record *RevocationRecord) {
	if e.revRepo != nil {
		if err := e.revRepo.Insert(ctx, record); err != nil {
			e.log.ErrorContext(ctx, "vaultiq_revocation_persist_failed", slog.String("session_id", record.SessionID), slog.Any("error", err))
		}
		return
	}

	// No store for REVOCATION: the cache is the only record, so also thread
	// the session into the per-user index GetRevocationsByUser relies on.
	if err := e.revCache.Put(ctx, revocationKey(record.SessionID), record); err != nil {
		e.log.DebugContext(ctx, "vaultiq_revocation_cache_put_failed", slog.Any("error", err))
	}
	e.addToUserIndex(ctx, record.UserID, record.SessionID)
}

func (e *revocationEngine) addToUserIndex(ctx context.Context, userID, sessionID string) {
	var idx UserSessionIndex
	if !e.revCache.Get(ctx, revocationByUserKey(userID), &idx) || idx.SessionIDs == nil {
		idx = UserSessionIndex{UserID: userID, SessionIDs: map[string]struct{}{}}
	}
	idx.SessionIDs[sessionID] = struct{}{}
	idx.touch(e.clock)
	if err := e.revCache.Put(ctx, revocationByUserKey(userID), &idx); err != nil {
		e.log.DebugContext(ctx, "vaultiq_revocation_index_update_failed", slog.String("user_id", userID), slog.Any("error", err))
	}
}

// applyPolicy reflects the revocation in the session view per the
// configured RevocationPolicy.
func (e *revocationEngine) applyPolicy(ctx context.Context, sessionID string, now time.Time) {
	if e.policy == MarkOnRevoke {
		if revoker, ok := e.sessions.(sessionRevoker); ok {
			if err := revoker.markRevoked(ctx, sessionID, now); err != nil {
				e.log.ErrorContext(ctx, "vaultiq_revocation_mark_failed", slog.String("session_id", sessionID), slog.Any("error", err))
			}
			return
		}
	}
	if err := e.sessions.DeleteSession(ctx, sessionID); err != nil {
		e.log.ErrorContext(ctx, "vaultiq_revocation_delete_failed", slog.String("session_id", sessionID), slog.Any("error", err))
	}
}

func (e *revocationEngine) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	var rec RevocationRecord
	if e.revCache.Get(ctx, revocationKey(sessionID), &rec) {
		return true, nil
	}
	if e.revRepo == nil {
		return false, nil
	}
	found, err := e.revRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return found != nil, nil
}

func (e *revocationEngine) GetRevocationsByUser(ctx context.Context, userID string) ([]*RevocationRecord, error) {
	if e.revRepo != nil {
		return e.revRepo.FindByUser(ctx, userID)
	}

	var idx UserSessionIndex
	if !e.revCache.Get(ctx, revocationByUserKey(userID), &idx) || len(idx.SessionIDs) == 0 {
		return []*RevocationRecord{}, nil
	}

	keys := make([]string, 0, len(idx.SessionIDs))
	for sid := range idx.SessionIDs {
		keys = append(keys, revocationKey(sid))
	}
	hits := e.revCache.MultiGet(ctx, keys, func() any { return &RevocationRecord{} })

	records := make([]*RevocationRecord, 0, len(hits))
	for _, v := range hits {
		if rec, ok := v.(*RevocationRecord); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (e *revocationEngine) ClearRevocation(ctx context.Context, sessionIDs ...string) error {
	for _, sid := range sessionIDs {
		e.revCache.Evict(ctx, revocationKey(sid))
		if e.revRepo != nil {
			if err := e.revRepo.Delete(ctx, sid); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *revocationEngine) DeleteRevocationsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if e.revRepo == nil {
		// A cache-only REVOCATION family has no durable backlog to page
		// through; TTL-style expiry, if any, is the cache backend's concern.
		e.log.DebugContext(ctx, "vaultiq_revocation_cleanup_skipped_no_store")
		return 0, nil
	}

	total := 0
	for batch := 0; batch < cleanupMaxBatches; batch++ {
		deleted, err := e.revRepo.DeleteOlderThan(ctx, cutoff.UnixMilli(), cleanupPageSize)
		if err != nil {
			return total, err
		}
		total += deleted
		if deleted < cleanupPageSize {
			break
		}
	}
	return total, nil
}

// sessionRevoker is implemented by SessionManager variants that can mark a
// session revoked in place, for the mark-on-revoke policy.
type sessionRevoker interface {
	markRevoked(ctx context.Context, sessionID string, revokedAt time.Time) error
}
