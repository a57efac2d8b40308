// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Gate is the Mode Gate's (C6) output: a capability bundle exposing exactly
// one SessionManager and RevocationEngine implementation per family, chosen
// at construction time from the resolved FamilyConfig map, plus the
// Validator built on top of them.
type Gate struct {
	Sessions   SessionManager
	Revocation RevocationEngine
	Validator  Validator
}

// GateOptions collects the Mode Gate's external collaborators (§6).
type GateOptions struct {
	Configs       map[Family]FamilyConfig
	Pool          *pgxpool.Pool // nil if no family uses the store
	CacheProvider CacheProvider // nil if no family uses the cache
	Probe         IdentityProbe
	Generator     FingerprintGenerator // defaults to NewDefaultFingerprintGenerator
	Validator     FingerprintValidator // defaults to NewDefaultFingerprintValidator(Generator)
	Clock         Clock                // defaults to SystemClock
	Log           *slog.Logger
	Metrics       *Metrics // defaults to noopMetrics
	LockCapacity  int      // defaults to defaultUserLockCapacity
}

// NewGate evaluates opts.Configs and constructs exactly the needed C3/C4
// implementations via a factory keyed on the (useStore, useCache) tuple per
// family (§9). There is no runtime reflection: the set of variants is
// closed at four per family.
func NewGate(opts GateOptions) (*Gate, error) {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Generator == nil {
		opts.Generator = NewDefaultFingerprintGenerator()
	}
	if opts.Validator == nil {
		opts.Validator = NewDefaultFingerprintValidator(opts.Generator)
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics()
	}
	if opts.LockCapacity <= 0 {
		opts.LockCapacity = defaultUserLockCapacity
	}

	sessionCfg := opts.Configs[FamilySession]
	indexCfg := opts.Configs[FamilyUserSessionIndex]
	revocationCfg := opts.Configs[FamilyRevocation]

	if opts.Pool == nil && (sessionCfg.UseStore || revocationCfg.UseStore) {
		return nil, errors.New("vaultiq: a family uses the store but no Postgres pool was supplied")
	}

	sessionCache := opts.cache(FamilySession, sessionCfg)
	indexCache := opts.cache(FamilyUserSessionIndex, indexCfg)
	revocationCache := opts.cache(FamilyRevocation, revocationCfg)

	locks := newUserLockTable(opts.LockCapacity)

	var sessions SessionManager
	switch {
	case !sessionCfg.UseStore && !sessionCfg.UseCache:
		sessions = newDisabledSessionManager()
	case !sessionCfg.UseStore && sessionCfg.UseCache:
		sessions = newCacheOnlySessionManager(sessionCache, indexCache, locks, opts.Generator, opts.Clock, opts.Log, sessionCfg.Policy)
	case sessionCfg.UseStore && !sessionCfg.UseCache:
		sessions = newStoreOnlySessionManager(NewPostgresSessionRepository(opts.Pool), opts.Generator, opts.Clock, opts.Log)
	default:
		sessions = newCachedSessionManager(NewPostgresSessionRepository(opts.Pool), sessionCache, opts.Generator, opts.Clock, opts.Log)
	}

	var revRepo RevocationRepository
	if revocationCfg.UseStore {
		revRepo = NewPostgresRevocationRepository(opts.Pool)
	}

	revocation := newRevocationEngine(sessions, sessionCfg.Policy, revRepo, revocationCache, opts.Probe, opts.Clock, opts.Log, opts.Metrics)

	return &Gate{
		Sessions:   sessions,
		Revocation: revocation,
		Validator:  NewValidator(sessions, revocation, opts.Validator, opts.Log),
	}, nil
}

// cache resolves cfg's named cache via opts.CacheProvider, falling back to
// the absent no-op when useCache is false, the provider is nil, or the
// named handle can't be resolved (§4.2 silent no-op).
func (opts GateOptions) cache(family Family, cfg FamilyConfig) Cache {
	if !cfg.UseCache || opts.CacheProvider == nil {
		return newAbsentCache()
	}
	if c, ok := opts.CacheProvider.GetCache(family, cfg); ok {
		return c
	}
	opts.Log.Info("vaultiq_cache_absent_fallback", slog.String("family", string(family)), slog.String("cache_name", cfg.CacheName))
	return newAbsentCache()
}
