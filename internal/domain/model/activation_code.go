package model

import (
	"regexp"
	"strings"
	"time"

	"activation-gate/internal/domain"
)

// CodeState is the lifecycle state of an activation code.
type CodeState string

const (
	CodeStateAvailable CodeState = "available"
	CodeStateUsed      CodeState = "used"
	CodeStateDisabled  CodeState = "disabled"
)

func (s CodeState) Valid() bool {
	switch s {
	case CodeStateAvailable, CodeStateUsed, CodeStateDisabled:
		return true
	}
	return false
}

var codePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// NormalizeCode trims surrounding whitespace and checks the code shape.
// Codes are case-sensitive.
func NormalizeCode(raw string) (string, error) {
	c := strings.TrimSpace(raw)
	if !codePattern.MatchString(c) {
		return "", domain.ErrInvalidInput
	}
	return c, nil
}

// ActivationCode represents a single-use code that gates access to the chat UI.
// BoundDevice and UsedAt are set iff State is CodeStateUsed.
type ActivationCode struct {
	ID          int64
	Code        string
	State       CodeState
	BoundDevice *DeviceID  // Pointer to allow for NULL
	UsedAt      *time.Time // Pointer to allow for NULL
	CreatedAt   time.Time
	Version     int64
}

// NewActivationCode builds an AVAILABLE code at version 1.
func NewActivationCode(code string, now time.Time) (*ActivationCode, error) {
	c, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	return &ActivationCode{
		Code:      c,
		State:     CodeStateAvailable,
		CreatedAt: now.UTC(),
		Version:   1,
	}, nil
}

// Consistent reports whether the state/binding invariant holds.
func (c *ActivationCode) Consistent() bool {
	if c == nil || !c.State.Valid() {
		return false
	}
	bound := c.BoundDevice != nil && c.UsedAt != nil
	unbound := c.BoundDevice == nil && c.UsedAt == nil
	if c.State == CodeStateUsed {
		return bound
	}
	return unbound
}

// BoundTo reports whether the code is USED and bound to id.
func (c *ActivationCode) BoundTo(id DeviceID) bool {
	return c.State == CodeStateUsed && c.BoundDevice != nil && *c.BoundDevice == id
}

// MaskedDevice returns the masked bound device, or "" when unbound.
func (c *ActivationCode) MaskedDevice() string {
	if c.BoundDevice == nil {
		return ""
	}
	return c.BoundDevice.Masked()
}

// Clone returns a deep copy.
func (c *ActivationCode) Clone() *ActivationCode {
	if c == nil {
		return nil
	}
	cp := *c
	if c.BoundDevice != nil {
		d := *c.BoundDevice
		cp.BoundDevice = &d
	}
	if c.UsedAt != nil {
		t := *c.UsedAt
		cp.UsedAt = &t
	}
	return &cp
}

// Claimed returns the successor record binding the code to id.
// The receiver must be AVAILABLE.
func (c *ActivationCode) Claimed(id DeviceID, now time.Time) *ActivationCode {
	next := c.Clone()
	at := now.UTC()
	next.State = CodeStateUsed
	next.BoundDevice = &id
	next.UsedAt = &at
	next.Version++
	return next
}

// Released returns the successor record in the AVAILABLE state.
func (c *ActivationCode) Released() *ActivationCode {
	return c.unbound(CodeStateAvailable)
}

// Disabled returns the successor record in the DISABLED state.
func (c *ActivationCode) Disabled() *ActivationCode {
	return c.unbound(CodeStateDisabled)
}

func (c *ActivationCode) unbound(state CodeState) *ActivationCode {
	next := c.Clone()
	next.State = state
	next.BoundDevice = nil
	next.UsedAt = nil
	next.Version++
	return next
}
