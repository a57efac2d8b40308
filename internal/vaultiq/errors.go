// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"errors"

	"github.com/taibuivan/vaultiq/internal/platform/apperr"
)

// ErrNotConfigured is returned when a family's resolved mode is "off"
// (useStore=false, useCache=false). Per §7 this is surfaced to the caller
// as a diagnostic, never silently swallowed.
var ErrNotConfigured = apperr.ServiceUnavailable("family not configured")

// ErrInvalidUserID / ErrInvalidSessionID are returned for InvalidInput on
// required identifiers at mutation entry points (§7 "noisy only for
// required identifiers").
var (
	ErrInvalidUserID    = apperr.ValidationError("userId is required")
	ErrInvalidSessionID = apperr.ValidationError("sessionId is required")
)

// IsNotConfigured reports whether err (or its chain) is ErrNotConfigured.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
