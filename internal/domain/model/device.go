package model

import (
	"strings"
	"unicode"

	"activation-gate/internal/domain"
)

const maxDeviceIDLen = 256

// DeviceID is an opaque, client-supplied device identifier.
//
// The service never verifies where it came from. It is compared for equality
// to let the same device re-enter with a code it already holds, and nothing
// else. Fingerprints collide and can be copied, so a DeviceID must not be
// treated as proof of identity or as an authorization boundary.
type DeviceID string

// ParseDeviceID trims the identifier and rejects empty, oversized or
// control-character input.
func ParseDeviceID(raw string) (DeviceID, error) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > maxDeviceIDLen {
		return "", domain.ErrInvalidInput
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", domain.ErrInvalidInput
		}
	}
	return DeviceID(s), nil
}

// Masked keeps a short prefix and suffix so a user can recognise their own
// device without the full identifier being disclosed to anyone else.
func (d DeviceID) Masked() string {
	r := []rune(string(d))
	if len(r) <= 8 {
		return "****"
	}
	return string(r[:4]) + "****" + string(r[len(r)-4:])
}

func (d DeviceID) String() string { return string(d) }
