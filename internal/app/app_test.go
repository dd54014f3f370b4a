package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestInit_WithValidConfig_Succeeds(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NOSTR_NPUB", "npub180cvv07tjdrrgpa0j7j7tmnyl2yr6yr7l8j4s3evf6u64th6gkwsyjh6w6")
	t.Setenv("SERVER_PORT", "9090")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}

	// Verify that slog global logger is configured for JSON output
	slog.Default().Info("init test")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got error: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "init test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "init test")
	}
}

func TestInit_NpubIsOptional(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NOSTR_NPUB", "")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("NOSTR_NPUB未設定でも起動できるべき: %v", err)
	}
	if cfg.NostrNpub != "" {
		t.Errorf("NostrNpub = %q, want empty", cfg.NostrNpub)
	}
}

func TestInit_WithInvalidUpstreamURL_ReturnsError(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COINGECKO_URL", "not a url")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err == nil {
		t.Fatal("expected error for invalid upstream URL, got nil")
	}
	if cfg != nil {
		t.Error("expected nil config on error")
	}
}
