// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"errors"
	"strings"

	"github.com/taibuivan/vaultiq/internal/platform/sec"
)

// ErrNoDeviceSignal is returned when a request carries neither an
// X-Device-Id header nor a User-Agent to fall back to (§4.5).
var ErrNoDeviceSignal = errors.New("vaultiq: request has no device-id or user-agent to fingerprint")

// defaultFingerprintGenerator is the recommended default implementation of
// FingerprintGenerator (§4.5): normalise Sec-CH-UA-Platform, else extract a
// platform keyword from User-Agent; take Accept-Language as-is; take
// X-Device-Id, falling back to User-Agent; hash deviceId|language|platform
// with SHA-256.
type defaultFingerprintGenerator struct{}

// NewDefaultFingerprintGenerator returns the package's default
// FingerprintGenerator. Hosts needing fuzzier matching may supply their own.
func NewDefaultFingerprintGenerator() FingerprintGenerator {
	return defaultFingerprintGenerator{}
}

func (defaultFingerprintGenerator) Generate(req RequestHandle) (string, error) {
	platform := platformOf(req)
	language := strings.TrimSpace(req.Header("Accept-Language"))

	deviceID := strings.TrimSpace(req.Header("X-Device-Id"))
	if deviceID == "" {
		deviceID = strings.TrimSpace(req.Header("User-Agent"))
	}
	if deviceID == "" {
		return "", ErrNoDeviceSignal
	}

	return sec.HashToken(deviceID + "|" + language + "|" + platform), nil
}

// platformOf prefers the structured Sec-CH-UA-Platform client hint, falling
// back to a coarse keyword sniff of User-Agent.
func platformOf(req RequestHandle) string {
	if hint := strings.Trim(req.Header("Sec-CH-UA-Platform"), `" `); hint != "" {
		return strings.ToLower(hint)
	}

	ua := strings.ToLower(req.Header("User-Agent"))
	switch {
	case strings.Contains(ua, "windows"):
		return "windows"
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		return "macos"
	case strings.Contains(ua, "android"):
		return "android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		return "ios"
	case strings.Contains(ua, "linux"):
		return "linux"
	default:
		return "unknown"
	}
}

// defaultFingerprintValidator recomputes the fingerprint via generator and
// compares it to the stored value.
type defaultFingerprintValidator struct {
	generator FingerprintGenerator
}

// NewDefaultFingerprintValidator returns a FingerprintValidator that
// recomputes and compares using generator.
func NewDefaultFingerprintValidator(generator FingerprintGenerator) FingerprintValidator {
	return defaultFingerprintValidator{generator: generator}
}

func (v defaultFingerprintValidator) Validate(req RequestHandle, stored string) (bool, error) {
	recomputed, err := v.generator.Generate(req)
	if err != nil {
		return false, err
	}
	return recomputed == stored, nil
}
