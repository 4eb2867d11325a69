package logger

import (
	"net/http"
	"testing"
)

func TestMaskAuthorization(t *testing.T) {
	got := MaskAuthorization("Bearer abcdef1234")
	want := "Bearer ****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskSecret(t *testing.T) {
	got := MaskSecret("trigger-secret-9876")
	want := "****9876"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskHeadersMasksTriggerSecret(t *testing.T) {
	headers := http.Header{}
	headers.Set("X-Retainly-Secret", "supersecret1234")
	headers.Set("Content-Type", "application/json")

	masked := MaskHeaders(headers)
	if masked["X-Retainly-Secret"] != "****1234" {
		t.Fatalf("expected masked secret, got %q", masked["X-Retainly-Secret"])
	}
	if masked["Content-Type"] != "application/json" {
		t.Fatalf("expected content type untouched, got %q", masked["Content-Type"])
	}
}

func TestMaskJSON(t *testing.T) {
	input := map[string]any{
		"password": "hunter2",
		"token":    "abc12345",
		"nested": map[string]any{
			"webhook_secret": "key_12345678",
		},
	}
	masked := MaskJSON(input)
	if masked["password"] != "****ter2" {
		t.Fatalf("expected masked password, got %v", masked["password"])
	}
	if masked["token"] != "****2345" {
		t.Fatalf("expected masked token, got %v", masked["token"])
	}
	nested, ok := masked["nested"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map")
	}
	if nested["webhook_secret"] != "****5678" {
		t.Fatalf("expected masked nested secret, got %v", nested["webhook_secret"])
	}
	if input["password"] != "hunter2" {
		t.Fatalf("expected input untouched")
	}
}
