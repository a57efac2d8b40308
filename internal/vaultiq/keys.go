// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import "fmt"

// Canonical key prefixes. Collisions across families are prevented purely
// by these string prefixes — the cache layer itself has no notion of
// families.
const (
	sessionKeyPrefix         = "session-pool"
	userSessionsKeyPrefix    = "user-sessions"
	revocationKeyPrefix      = "revocation"
	revocationByUserKeyPrefix = "revocation-by-user"
)

func sessionKey(sessionID string) string {
	return fmt.Sprintf("%s-%s", sessionKeyPrefix, sessionID)
}

func userSessionsKey(userID string) string {
	return fmt.Sprintf("%s-%s", userSessionsKeyPrefix, userID)
}

func revocationKey(sessionID string) string {
	return fmt.Sprintf("%s-%s", revocationKeyPrefix, sessionID)
}

func revocationByUserKey(userID string) string {
	return fmt.Sprintf("%s-%s", revocationByUserKeyPrefix, userID)
}
