package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	desc    string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "LEXTRIAGE_SERVER_PORT",
		desc:    "HTTP API port",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_port", typ: kInt, env: "LEXTRIAGE_SERVER_MCP_PORT",
		desc:    "MCP server port",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "storage.data_dir", typ: kString, env: "LEXTRIAGE_STORAGE_DATA_DIR",
		desc:    "directory holding the history database and learning state",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "corpus.path", typ: kString, env: "LEXTRIAGE_CORPUS_PATH",
		desc:    "external corpus YAML replacing the built-in one",
		apply:   func(cfg *Config, v any) { cfg.Corpus.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Corpus.Path },
	},
	{
		key: "history.page_size", typ: kInt, env: "LEXTRIAGE_HISTORY_PAGE_SIZE",
		desc:    "default page size for history listings",
		apply:   func(cfg *Config, v any) { cfg.History.PageSize = v.(int) },
		extract: func(cfg Config) any { return cfg.History.PageSize },
	},
	{
		key: "log.level", typ: kString, env: "LEXTRIAGE_LOG_LEVEL",
		desc:    "log level: debug, info, warn, or error",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "api.token", typ: kString, env: "LEXTRIAGE_API_TOKEN",
		desc:    "bearer token protecting the HTTP API",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
