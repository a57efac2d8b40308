// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"encoding/json"
	"fmt"
)

// canonicalCacheName is the per-family alias used when no cacheName is set
// explicitly, mirroring the "session-pool", "revoked-session-pool",
// "user-session-mapping" naming the source system ships with.
var canonicalCacheName = map[Family]string{
	FamilySession:          "session-pool",
	FamilyRevocation:       "revoked-session-pool",
	FamilyUserSessionIndex: "user-session-mapping",
	FamilyActivityLog:      "activity-log-pool",
}

// FamilyOverride is the per-family override entry of
// persistence.models, matching spec §6.1.
type FamilyOverride struct {
	Family       Family  `json:"family"`
	UseStore     *bool   `json:"useStore,omitempty"`
	UseCache     *bool   `json:"useCache,omitempty"`
	CacheName    string  `json:"cacheName,omitempty"`
	SyncInterval *string `json:"syncInterval,omitempty"`
	Policy       string  `json:"policy,omitempty"`
}

// RawConfig is the declarative input to the Config Resolver (C1), sourced
// from the host's environment via internal/platform/config plus a
// JSON-decoded persistence.models override list.
type RawConfig struct {
	// ProductionMode makes both store and cache true for every family that
	// has no more specific setting. Defaults to false (§9 Open Question).
	ProductionMode bool

	// GlobalUseStore / GlobalUseCache are the persistence.useStore /
	// persistence.useCache global defaults.
	GlobalUseStore *bool
	GlobalUseCache *bool

	// CacheInfrastructureName is persistence.cacheInfrastructureName,
	// carried for parity with the source configuration tree; this package
	// resolves cache handles per-family via CacheProvider instead of a
	// single named manager.
	CacheInfrastructureName string

	// Models holds the per-family overrides.
	Models []FamilyOverride
}

// ParseModels decodes the JSON-encoded SESSION_PERSISTENCE_MODELS
// environment variable into a slice of FamilyOverride. An empty or absent
// value decodes to no overrides.
func ParseModels(raw string) ([]FamilyOverride, error) {
	if raw == "" {
		return nil, nil
	}
	var models []FamilyOverride
	if err := json.Unmarshal([]byte(raw), &models); err != nil {
		return nil, fmt.Errorf("vaultiq: invalid SESSION_PERSISTENCE_MODELS: %w", err)
	}
	return models, nil
}

// Resolve applies the fallback chain — family-specific, then global, then
// productionDefault — and returns a total map with exactly one entry per
// known family. It is a pure function, intended to be called once at
// startup and never re-evaluated.
func Resolve(raw RawConfig) map[Family]FamilyConfig {
	overrides := make(map[Family]FamilyOverride, len(raw.Models))
	for _, m := range raw.Models {
		overrides[m.Family] = m
	}

	resolved := make(map[Family]FamilyConfig, len(knownFamilies))
	for _, family := range knownFamilies {
		override, hasOverride := overrides[family]

		useStore := resolveBool(
			boolOrNil(hasOverride, override.UseStore),
			raw.GlobalUseStore,
			raw.ProductionMode,
		)
		useCache := resolveBool(
			boolOrNil(hasOverride, override.UseCache),
			raw.GlobalUseCache,
			raw.ProductionMode,
		)

		cacheName := canonicalCacheName[family]
		if hasOverride && override.CacheName != "" {
			cacheName = override.CacheName
		}

		policy := defaultPolicy(useStore)
		if hasOverride && override.Policy != "" {
			policy = RevocationPolicy(override.Policy)
		}

		resolved[family] = FamilyConfig{
			Family:    family,
			UseStore:  useStore,
			UseCache:  useCache,
			CacheName: cacheName,
			Policy:    policy,
		}
	}

	return resolved
}

// defaultPolicy pins the Open Question resolution from DESIGN.md: cache-only
// families default to DeleteOnRevoke, store-backed families to MarkOnRevoke.
func defaultPolicy(useStore bool) RevocationPolicy {
	if useStore {
		return MarkOnRevoke
	}
	return DeleteOnRevoke
}

func boolOrNil(has bool, v *bool) *bool {
	if !has {
		return nil
	}
	return v
}

// resolveBool implements "family-specific → global → productionDefault,
// first wins".
func resolveBool(familySpecific, global *bool, productionDefault bool) bool {
	if familySpecific != nil {
		return *familySpecific
	}
	if global != nil {
		return *global
	}
	return productionDefault
}
