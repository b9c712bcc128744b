package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

// EnvPrefix is the prefix of environment overrides, e.g. DUUI_NER_SERVER_PORT
const EnvPrefix = "DUUI_NER"

// DirName is the per-user config directory under $HOME
const DirName = ".duui-ner"

// Setup prepares v: .env loading, env binding and defaults from
// model.DefaultConfig. cfgFile selects an explicit config file; otherwise
// ./config.yaml and $HOME/.duui-ner/config.yaml are searched.
func Setup(v *viper.Viper, cfgFile string) error {
	// A missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, DirName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		return err
	}
	// Secrets are not part of the YAML defaults, bind them explicitly
	if err := v.BindEnv("model.llm.api_key"); err != nil {
		return err
	}

	return nil
}

// Read reads the config file if one is present. It returns the path used,
// or "" when running on defaults and environment only.
func Read(v *viper.Viper) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config and applies provider fallbacks from the
// conventional environment variables.
func Load(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyProviderEnv(&cfg.Model.LLM)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime
func Validate(cfg *model.Config) error {
	var errs []error
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}
	if cfg.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must not be negative"))
	}
	if cfg.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative"))
	}
	if cfg.Concurrency.SentenceWorkers < 1 {
		errs = append(errs, fmt.Errorf("concurrency.sentence_workers must be at least 1"))
	}
	if cfg.Concurrency.BatchWorkers < 1 {
		errs = append(errs, fmt.Errorf("concurrency.batch_workers must be at least 1"))
	}
	switch strings.ToLower(cfg.Model.Remote.OffsetUnit) {
	case "", "chars", "characters", "bytes":
	default:
		errs = append(errs, fmt.Errorf("model.remote.offset_unit must be chars or bytes, got %q", cfg.Model.Remote.OffsetUnit))
	}
	return errors.Join(errs...)
}

// Marshal renders cfg as YAML. The API key is never included.
func Marshal(cfg *model.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func applyProviderEnv(llm *model.LLMConfig) {
	switch strings.ToLower(llm.Provider) {
	case "openai":
		if llm.APIKey == "" {
			llm.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if llm.APIKey == "" {
			llm.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if llm.BaseURL == "" {
			llm.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}

// registerDefaults flattens the YAML form of cfg into viper defaults so that
// every key can be overridden from the environment
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}

	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for key, val := range tree {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if sub, ok := val.(map[string]interface{}); ok && len(sub) > 0 {
			setDefaults(v, path, sub)
			continue
		}
		v.SetDefault(path, val)
	}
}
