package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestStoreConfig_BackendRequiresPath(t *testing.T) {
	cfg := StoreConfig{Backend: BackendSQLite, Path: "notes.json", SaveAttempts: 1}
	if err := cfg.Validate(); err == nil {
		t.Error("sqlite backend without sqlite_path should fail")
	}
	cfg.SQLitePath = "notes.db"
	if err := cfg.Validate(); err != nil {
		t.Errorf("sqlite backend: %v", err)
	}
	cfg.Backend = "csv"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestStoreConfig_DocumentPathExpandsHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := StoreConfig{Path: "~/.note_speaker/notes.json"}
	if got := cfg.DocumentPath(); got != "/home/tester/.note_speaker/notes.json" {
		t.Errorf("path = %q", got)
	}
	cfg.Path = "/var/notes.json"
	if got := cfg.DocumentPath(); got != "/var/notes.json" {
		t.Errorf("path = %q", got)
	}
}

func TestConversationConfig_Language(t *testing.T) {
	cfg := ConversationConfig{HistorySize: 10, DefaultLanguage: "fr"}
	if err := cfg.Validate(); err == nil {
		t.Error("unsupported language should fail")
	}
}

func TestLLMConfig_GeminiNeedsKey(t *testing.T) {
	cfg := LLMConfig{Provider: LLMGemini, Model: "gemini-2.0-flash"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("gemini without api key should fail")
	}
	cfg.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("gemini with key: %v", err)
	}
	if !cfg.Enabled() {
		t.Error("gemini should be enabled")
	}
}

func TestLLMConfig_EmptyProviderDisabled(t *testing.T) {
	cfg := LLMConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Enabled() || cfg.Provider != LLMDisabled {
		t.Errorf("provider = %q", cfg.Provider)
	}
}
