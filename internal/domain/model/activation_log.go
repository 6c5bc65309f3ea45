package model

import (
	"sort"
	"strings"
	"time"
)

type LogAction string

const (
	LogActionClaim   LogAction = "claim"
	LogActionReset   LogAction = "reset"
	LogActionDisable LogAction = "disable"
	LogActionCreate  LogAction = "create"
	LogActionDelete  LogAction = "delete"
)

type LogActor string

const (
	LogActorUser      LogActor = "user"
	LogActorDeveloper LogActor = "developer"
	LogActorAdmin     LogActor = "admin"
)

// LogOutcome separates state mutations from audited attempts that changed nothing.
type LogOutcome string

const (
	LogOutcomeApplied  LogOutcome = "applied"
	LogOutcomeNoop     LogOutcome = "noop"
	LogOutcomeRejected LogOutcome = "rejected"
)

const (
	maxContextKeys     = 16
	maxContextKeyLen   = 64
	maxContextValueLen = 256
)

// LogEntry is an append-only audit record of a transition attempt.
// Context is client-reported and advisory only.
type LogEntry struct {
	ID        int64
	Code      string
	Action    LogAction
	Actor     LogActor
	Outcome   LogOutcome
	Context   map[string]string
	CreatedAt time.Time
}

// SanitizeContext bounds client-reported metadata. Oversized keys are dropped,
// long values are truncated, and only the first keys in sorted order are kept.
func SanitizeContext(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	keys := make([]string, 0, len(in))
	for k := range in {
		if k == "" || len(k) > maxContextKeyLen {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxContextKeys {
		keys = keys[:maxContextKeys]
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v := in[k]
		if len(v) > maxContextValueLen {
			v = strings.ToValidUTF8(v[:maxContextValueLen], "")
		}
		out[k] = v
	}
	return out
}
