package assist

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the full service configuration. It is loaded once at process
// start and passed by value into constructors; nothing reads ambient state
// after that.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string `toml:"listen_addr"`
	// Log level: debug, info, warn, error
	LogLevel string `toml:"log_level"`
	// Path of the JSONL audit trail; empty disables it
	AuditLog string `toml:"audit_log"`

	Auth      AuthConfig      `toml:"auth"`
	Provider  ProviderConfig  `toml:"provider"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	KB        KBConfig        `toml:"kb"`
	Accounts  AccountsConfig  `toml:"accounts"`
}

// AuthConfig controls session-token minting for /auth/login.
type AuthConfig struct {
	Secret        string `toml:"secret"`
	AdminUser     string `toml:"admin_user"`
	AdminPassword string `toml:"admin_password"`
	TokenTTLMin   int    `toml:"token_ttl_minutes"`
}

// ProviderConfig selects the model backend.
type ProviderConfig struct {
	// Name: "openai", "gemini" or "ollama"
	Name  string `toml:"name"`
	Model string `toml:"model"`
	// BaseURL overrides the provider's default endpoint
	BaseURL string `toml:"base_url"`
	// APIKeyEnv names the environment variable holding the key, so the key
	// itself never lives in the config file
	APIKeyEnv  string `toml:"api_key_env"`
	TimeoutSec int    `toml:"timeout_seconds"`
}

// RetrievalConfig bounds the knowledge-search collaborator.
type RetrievalConfig struct {
	TopK       int `toml:"top_k"`
	TimeoutSec int `toml:"timeout_seconds"`
	// IncludeLogin blends KB retrieval into the login flow when true
	IncludeLogin bool `toml:"include_login"`
}

// KBConfig locates the vector index and its embedding endpoint.
type KBConfig struct {
	// IndexPath is the sqlite-vec database; empty disables retrieval entirely
	IndexPath    string `toml:"index_path"`
	EmbedBaseURL string `toml:"embed_base_url"`
	EmbedModel   string `toml:"embed_model"`
	Dimensions   int    `toml:"dimensions"`
}

// AccountsConfig bounds the account-of-record collaborator. Only the mock
// adapter ships with this repo; MockLocked simulates a locked account.
type AccountsConfig struct {
	TimeoutSec int  `toml:"timeout_seconds"`
	MockLocked bool `toml:"mock_locked"`
}

func defaults() Config {
	return Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		AuditLog:   "audit.jsonl",
		Auth: AuthConfig{
			Secret:        "change-me",
			AdminUser:     "admin",
			AdminPassword: "password123",
			TokenTTLMin:   60,
		},
		Provider: ProviderConfig{
			Name:       "ollama",
			Model:      "llama3.1",
			APIKeyEnv:  "LLM_API_KEY",
			TimeoutSec: 60,
		},
		Retrieval: RetrievalConfig{
			TopK:       3,
			TimeoutSec: 5,
		},
		KB: KBConfig{
			EmbedBaseURL: "http://localhost:11434",
			EmbedModel:   "nomic-embed-text",
			Dimensions:   768,
		},
		Accounts: AccountsConfig{
			TimeoutSec: 5,
		},
	}
}

// LoadConfig returns defaults overridden by the TOML file at path (optional)
// and then by environment variables.
func LoadConfig(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	loadEnv(&cfg)
	return cfg, nil
}

func loadEnv(cfg *Config) {
	setString(&cfg.ListenAddr, "BANKASSIST_LISTEN_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Provider.Name, "LLM_PROVIDER")
	setString(&cfg.Provider.Model, "LLM_MODEL_ID")
	setString(&cfg.Provider.BaseURL, "LLM_BASE_URL")
	setString(&cfg.Auth.Secret, "JWT_SECRET_KEY")
	setString(&cfg.Auth.AdminUser, "ADMIN_USERNAME")
	setString(&cfg.Auth.AdminPassword, "ADMIN_PASSWORD")
	setString(&cfg.KB.IndexPath, "RAG_INDEX_PATH")
	setString(&cfg.KB.EmbedModel, "EMBEDDING_MODEL")
	setInt(&cfg.Retrieval.TopK, "RAG_TOP_K")
	setBool(&cfg.Accounts.MockLocked, "MOCK_LOCKED_STATUS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		*dst = true
	case "0", "false", "no":
		*dst = false
	}
}
