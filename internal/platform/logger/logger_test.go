package logger

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	kv := []interface{}{
		"access_token", "abc",
		"password", "hunter2",
		"email", "someone@example.com",
		"framework", "PDPL",
	}
	out := sanitizeKVs(kv)
	if len(out) != len(kv) {
		t.Fatalf("unexpected length: got=%d want=%d", len(out), len(kv))
	}
	for i := 1; i < 6; i += 2 {
		if out[i] != "[REDACTED]" {
			t.Fatalf("expected %v to be redacted, got %v", out[i-1], out[i])
		}
	}
	if out[7] != "PDPL" {
		t.Fatalf("unexpected passthrough value: %v", out[7])
	}
}

func TestSanitizeKVsHashesUserIDs(t *testing.T) {
	id := uuid.New()
	out := sanitizeKVs([]interface{}{"user_id", id})
	got, ok := out[1].(string)
	if !ok || !strings.HasPrefix(got, "hash:") {
		t.Fatalf("expected hashed user id, got %v", out[1])
	}
	if strings.Contains(got, id.String()) {
		t.Fatalf("hash leaked raw id: %s", got)
	}
	again := sanitizeKVs([]interface{}{"user_id", id})
	if again[1] != got {
		t.Fatalf("hash is not stable: %v vs %v", again[1], got)
	}
}

func TestSanitizeKVsNestedAndJWT(t *testing.T) {
	jwtLike := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.signature"
	out := sanitizeKVs([]interface{}{
		"payload", map[string]interface{}{"refresh_token": "x", "code": "ECC-1-1"},
		"header", jwtLike,
		"dangling",
	})
	m, ok := out[1].(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", out[1])
	}
	if m["refresh_token"] != "[REDACTED]" || m["code"] != "ECC-1-1" {
		t.Fatalf("unexpected nested sanitize result: %v", m)
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("expected jwt-shaped value to be redacted, got %v", out[3])
	}
	if out[4] != "dangling" {
		t.Fatalf("odd trailing key should pass through, got %v", out[4])
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production", "test"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.With("component", "test").Debug("hello", "k", "v")
	}
	NewNop().Info("discarded")
}
