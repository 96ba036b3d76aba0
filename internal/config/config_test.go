package config

import (
	"errors"
	"strings"
	"testing"
)

// fakeBackend is an in-memory ConfigBackend test double.
type fakeBackend struct {
	strs map[string]string
	ints map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{strs: map[string]string{}, ints: map[string]int{}}
}

func (b *fakeBackend) GetString(key string) (string, bool, error) {
	v, ok := b.strs[key]
	return v, ok, nil
}

func (b *fakeBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.ints[key]
	return v, ok, nil
}

func (b *fakeBackend) SetString(key, val string) error {
	b.strs[key] = val
	return nil
}

func (b *fakeBackend) SetInt(key string, val int) error {
	b.ints[key] = val
	return nil
}

func (b *fakeBackend) Delete(key string) error {
	delete(b.strs, key)
	delete(b.ints, key)
	return nil
}

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	value  string
	getErr error

	setService string
	setAccount string
	setValue   string
}

func (m *mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.getErr
}

func (m *mockKeychain) Set(service, account, value string) error {
	m.setService = service
	m.setAccount = account
	m.setValue = value
	return nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		if s.env != "" {
			t.Setenv(s.env, "")
		}
	}
}

// TestDefaults verifies all default values apply with an empty backend.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newFakeBackend(), &mockKeychain{value: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4700 {
		t.Errorf("Server.Port = %d, want 4700", cfg.Server.Port)
	}
	if cfg.Server.MCPPort != 4701 {
		t.Errorf("Server.MCPPort = %d, want 4701", cfg.Server.MCPPort)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty, want a platform default")
	}
	if cfg.Corpus.Path != "" {
		t.Errorf("Corpus.Path = %q, want empty (embedded corpus)", cfg.Corpus.Path)
	}
	if cfg.History.PageSize != 20 {
		t.Errorf("History.PageSize = %d, want 20", cfg.History.PageSize)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

// TestBackendValues verifies backend values override the defaults.
func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newFakeBackend()
	b.ints["server.port"] = 5000
	b.ints["history.page_size"] = 50
	b.strs["storage.data_dir"] = "/tmp/lextriage-test"
	b.strs["corpus.path"] = "/tmp/corpus.yaml"
	b.strs["log.level"] = "debug"

	cfg, err := loadWith(b, &mockKeychain{value: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.History.PageSize != 50 {
		t.Errorf("History.PageSize = %d, want 50", cfg.History.PageSize)
	}
	if cfg.Storage.DataDir != "/tmp/lextriage-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Corpus.Path != "/tmp/corpus.yaml" {
		t.Errorf("Corpus.Path = %q", cfg.Corpus.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

// TestEnvOverride verifies environment variables beat backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)

	b := newFakeBackend()
	b.ints["server.port"] = 5000
	t.Setenv("LEXTRIAGE_SERVER_PORT", "6000")

	cfg, err := loadWith(b, &mockKeychain{value: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000 from env", cfg.Server.Port)
	}
}

// TestEnvInvalidInt verifies a non-numeric env value is ignored.
func TestEnvInvalidInt(t *testing.T) {
	clearEnv(t)

	t.Setenv("LEXTRIAGE_SERVER_PORT", "not-a-number")

	cfg, err := loadWith(newFakeBackend(), &mockKeychain{value: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4700 {
		t.Errorf("Server.Port = %d, want default 4700 after bad env value", cfg.Server.Port)
	}
}

// TestTokenFromEnv verifies the API token env var wins over the keychain.
func TestTokenFromEnv(t *testing.T) {
	clearEnv(t)

	t.Setenv("LEXTRIAGE_API_TOKEN", "env-token")

	cfg, err := loadWith(newFakeBackend(), &mockKeychain{value: "kc-token"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.Token != "env-token" {
		t.Errorf("API.Token = %q, want env-token", cfg.API.Token)
	}
}

// TestTokenFromKeychain verifies the keychain is consulted when no env
// token is set.
func TestTokenFromKeychain(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newFakeBackend(), &mockKeychain{value: "kc-secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.Token != "kc-secret" {
		t.Errorf("API.Token = %q, want kc-secret", cfg.API.Token)
	}
}

// TestTokenGenerated verifies a first run generates and stores a token.
func TestTokenGenerated(t *testing.T) {
	clearEnv(t)

	kc := &mockKeychain{getErr: errors.New("no such item")}
	cfg, err := loadWith(newFakeBackend(), kc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.Token == "" {
		t.Fatal("expected a generated API token")
	}
	if kc.setValue != cfg.API.Token {
		t.Errorf("stored token = %q, want %q", kc.setValue, cfg.API.Token)
	}
	if kc.setService != "lextriage" || kc.setAccount != "api_token" {
		t.Errorf("stored under %s/%s, want lextriage/api_token", kc.setService, kc.setAccount)
	}
}

// TestShowAllOmitsSecrets verifies the token never appears in ShowAll.
func TestShowAllOmitsSecrets(t *testing.T) {
	cfg := defaults()
	cfg.API.Token = "super-secret"

	for _, k := range ShowAll(cfg) {
		if k.Key == "api.token" {
			t.Error("ShowAll must not include api.token")
		}
		if strings.Contains(k.Value, "super-secret") {
			t.Errorf("ShowAll leaked the token in %s", k.Key)
		}
	}
}

// TestValidKeys verifies the settable key list.
func TestValidKeys(t *testing.T) {
	keys := ValidKeys()

	want := map[string]bool{
		"server.port":       false,
		"storage.data_dir":  false,
		"corpus.path":       false,
		"history.page_size": false,
		"log.level":         false,
	}
	for _, k := range keys {
		if k == "api.token" {
			t.Error("api.token must not be settable via config")
		}
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("ValidKeys missing %s", k)
		}
	}
}

// TestApplyBackendSkipsSecrets verifies secrets are never read from the
// plain config backend.
func TestApplyBackendSkipsSecrets(t *testing.T) {
	b := newFakeBackend()
	b.strs["api.token"] = "from-backend"

	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.Token == "from-backend" {
		t.Error("api.token must not be read from the config backend")
	}
}
