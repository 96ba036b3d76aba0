package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Corpus  CorpusConfig
	History HistoryConfig
	Log     LogConfig
	API     APIConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type StorageConfig struct {
	DataDir string
}

type CorpusConfig struct {
	// Path points at an external corpus YAML file. Empty means the
	// embedded corpus.
	Path string
}

type HistoryConfig struct {
	PageSize int
}

type LogConfig struct {
	Level string
}

type APIConfig struct {
	Token string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    4700,
			MCPPort: 4701,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		History: HistoryConfig{
			PageSize: 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.lextriage.app) and the
// API token lives in the macOS Keychain. On Linux the backend is a JSON
// file at $XDG_CONFIG_HOME/lextriage/config.json and the token lives in a
// secrets file under the data directory.
//
// Environment variables (LEXTRIAGE_*) override backend values on all
// platforms. A missing API token is generated once and stored, so the
// server and the CLI client agree across processes.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainAccess{})
}

// keychain abstracts platform secret storage for testing.
type keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

const (
	keychainService = "lextriage"
	keychainAccount = "api_token"
)

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform secret store for the API token if still empty.
	if cfg.API.Token == "" {
		if token, err := kc.Get(keychainService, keychainAccount); err == nil && token != "" {
			cfg.API.Token = token
		}
	}

	// First run: generate a token and store it for future processes.
	if cfg.API.Token == "" {
		token := uuid.NewString()
		if err := kc.Set(keychainService, keychainAccount, token); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not store generated API token: %v. Clients must use LEXTRIAGE_API_TOKEN.\n", err)
		}
		cfg.API.Token = token
	}

	return cfg, nil
}

// keychainAccess reads and writes the platform secret store.
type keychainAccess struct{}

func (keychainAccess) Get(service, account string) (string, error) {
	return keychainGet(service, account)
}

func (keychainAccess) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}
