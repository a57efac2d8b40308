// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import "context"

// Cache is the Cache Access Layer contract (C2), instantiated once per
// family. Implementations never let an error escape: a backend failure is
// logged and degrades to the same "nothing found" result a genuine miss
// would produce, so C3 can execute uniformly whether caching is configured
// or not.
type Cache interface {
	// Put stores value under key. value must be JSON-marshalable.
	Put(ctx context.Context, key string, value any) error
	// Get unmarshals the stored value for key into dest. It reports
	// whether the key was found.
	Get(ctx context.Context, key string, dest any) (found bool)
	// Evict removes key, reporting whether it existed.
	Evict(ctx context.Context, key string) (existed bool)
	// MultiGet unmarshals every present key among keys into a fresh value
	// of the shape produced by newDest, returning a map keyed by the
	// requested key. Keys with no cached entry are omitted.
	MultiGet(ctx context.Context, keys []string, newDest func() any) map[string]any
	// MultiEvict removes every key in keys, returning the count actually
	// removed.
	MultiEvict(ctx context.Context, keys []string) int
}

// absentCache is the zero-cost no-op Cache selected when a family's named
// cache handle can't be resolved at construction time (§4.2 "silent
// no-op"). It never returns an error and never logs above info on
// construction — every operation is a documented nothing.
type absentCache struct{}

func newAbsentCache() Cache { return absentCache{} }

func (absentCache) Put(context.Context, string, any) error { return nil }

func (absentCache) Get(context.Context, string, any) bool { return false }

func (absentCache) Evict(context.Context, string) bool { return false }

func (absentCache) MultiGet(context.Context, []string, func() any) map[string]any {
	return map[string]any{}
}

func (absentCache) MultiEvict(context.Context, []string) int { return 0 }

// CacheProvider resolves a named cache handle, mirroring §6.2's "get a
// named cache by string name; return null if absent" contract.
type CacheProvider interface {
	GetCache(family Family, cfg FamilyConfig) (Cache, bool)
}
