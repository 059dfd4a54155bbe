// Package config loads mockchat settings from flags, environment, an
// optional YAML file and a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yolodolo42/mockchat/internal/llm"
	"github.com/yolodolo42/mockchat/internal/render"
)

// EnvPrefix prefixes environment overrides, e.g. MOCKCHAT_SERVER_ADDR.
const EnvPrefix = "MOCKCHAT"

// Config keys
const (
	KeyDataDir        = "data_dir"
	KeyServerAddr     = "server.addr"
	KeyStaticDir      = "server.static_dir"
	KeyCORSOrigin     = "server.cors_origin"
	KeyStorePath      = "store.path"
	KeyProvider       = "llm.provider"
	KeyModel          = "llm.model"
	KeyMaxTokens      = "llm.max_tokens"
	KeyTemperature    = "llm.temperature"
	KeyRetries        = "llm.retries"
	KeyRetryDelay     = "llm.retry_delay"
	KeyTimeout        = "llm.timeout"
	KeySystemPrompt   = "llm.system_prompt"
	KeyIncludeHistory = "chat.include_history"
	KeyTheme          = "ui.theme"
	KeyLogLevel       = "log.level"
)

// Config is the resolved application configuration
type Config struct {
	DataDir string
	Server  ServerConfig
	Store   StoreConfig
	LLM     LLMConfig
	Chat    ChatConfig
	UI      UIConfig
	Log     LogConfig
}

type ServerConfig struct {
	Addr       string
	StaticDir  string
	CORSOrigin string
}

type StoreConfig struct {
	Path string
}

type LLMConfig struct {
	Provider     llm.ProviderID
	Model        string
	MaxTokens    int
	Temperature  float32
	Retries      int
	RetryDelay   time.Duration
	Timeout      time.Duration
	SystemPrompt string
}

type ChatConfig struct {
	IncludeHistory bool
}

type UIConfig struct {
	Theme render.Theme
}

type LogConfig struct {
	Level slog.Level
}

// DefaultDataDir returns $HOME/.mockchat.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".mockchat"), nil
}

// SetDefaults registers default values and environment binding on v.
func SetDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault(KeyDataDir, dataDir)
	v.SetDefault(KeyServerAddr, ":4000")
	v.SetDefault(KeyStaticDir, "")
	v.SetDefault(KeyCORSOrigin, "*")
	v.SetDefault(KeyStorePath, "")
	v.SetDefault(KeyProvider, string(llm.ProviderGemini))
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyMaxTokens, 2048)
	v.SetDefault(KeyTemperature, 0.4)
	v.SetDefault(KeyRetries, 3)
	v.SetDefault(KeyRetryDelay, time.Second)
	v.SetDefault(KeyTimeout, 60*time.Second)
	v.SetDefault(KeySystemPrompt, "")
	v.SetDefault(KeyIncludeHistory, false)
	v.SetDefault(KeyTheme, string(render.ThemeDark))
	v.SetDefault(KeyLogLevel, "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load resolves the configuration from v. PORT overrides the server port
// and GEMINI_MODEL the model when Gemini is selected and no model is set.
func Load(v *viper.Viper) (Config, error) {
	provider, err := llm.ParseProviderID(v.GetString(KeyProvider))
	if err != nil {
		return Config{}, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}

	dataDir := v.GetString(KeyDataDir)
	cfg := Config{
		DataDir: dataDir,
		Server: ServerConfig{
			Addr:       v.GetString(KeyServerAddr),
			StaticDir:  v.GetString(KeyStaticDir),
			CORSOrigin: v.GetString(KeyCORSOrigin),
		},
		Store: StoreConfig{
			Path: v.GetString(KeyStorePath),
		},
		LLM: LLMConfig{
			Provider:     provider,
			Model:        v.GetString(KeyModel),
			MaxTokens:    v.GetInt(KeyMaxTokens),
			Temperature:  float32(v.GetFloat64(KeyTemperature)),
			Retries:      v.GetInt(KeyRetries),
			RetryDelay:   v.GetDuration(KeyRetryDelay),
			Timeout:      v.GetDuration(KeyTimeout),
			SystemPrompt: v.GetString(KeySystemPrompt),
		},
		Chat: ChatConfig{
			IncludeHistory: v.GetBool(KeyIncludeHistory),
		},
		UI: UIConfig{
			Theme: render.ParseTheme(v.GetString(KeyTheme)),
		},
		Log: LogConfig{
			Level: level,
		},
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if cfg.LLM.Model == "" && provider == llm.ProviderGemini {
		cfg.LLM.Model = os.Getenv("GEMINI_MODEL")
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(dataDir, "mock-data.json")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%s is required", KeyDataDir)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("%s must be positive", KeyMaxTokens)
	}
	if c.LLM.Retries < 1 {
		return fmt.Errorf("%s must be at least 1", KeyRetries)
	}
	if c.LLM.RetryDelay < 0 || c.LLM.Timeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// RetryPolicy returns the provider retry policy.
func (c Config) RetryPolicy(logger *slog.Logger) llm.RetryPolicy {
	return llm.RetryPolicy{
		Attempts: c.LLM.Retries,
		Delay:    c.LLM.RetryDelay,
		Logger:   logger,
	}
}

// NewLogger returns a text logger at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Log.Level}))
}
