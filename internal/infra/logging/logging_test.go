//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestRedact(t *testing.T) {
	if got := Redact("ABCD-EFGH-JKLM", true); got != "ABCD-EFGH-JKLM" {
		t.Errorf("dev mode should not redact, got %q", got)
	}
	if got := Redact("short", false); got != "***" {
		t.Errorf("expected full redaction, got %q", got)
	}
	if got := Redact("ABCD-EFGH-JKLM", false); got != "ABCD...LM" {
		t.Errorf("unexpected redaction %q", got)
	}
}

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithCode(ctx, "ABCD...LM")
	ctx = WithDeviceID(ctx, "fp-0...89")

	With(ctx, &base).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	for k, want := range map[string]string{"trace_id": "trace-1", "code": "ABCD...LM", "device_id": "fp-0...89"} {
		if line[k] != want {
			t.Errorf("field %s: want %q, got %v", k, want, line[k])
		}
	}
	if _, ok := line["admin"]; ok {
		t.Error("admin field should be absent when not in context")
	}
	if TraceIDFrom(ctx) != "trace-1" {
		t.Error("TraceIDFrom did not return the stored id")
	}
}
