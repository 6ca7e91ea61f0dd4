package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

var (
	ErrMissingProviderKey = errors.New("missing completion provider api key")
	ErrUnknownProvider    = errors.New("unknown completion provider")
)

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o",
	ProviderClaude: "claude-3-5-sonnet-20240620",
	ProviderGemini: "gemini-1.5-pro",
	ProviderMock:   "mock-model",
}

type Config struct {
	Server        ServerConfig
	GoogleService GoogleServiceConfig
	Handlers      HandlersConfig
	LLM           LLMConfigs
	Logging       LoggingConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type GoogleServiceConfig struct {
	ProjectId           string
	JsonKey             string
	PushIntervalSeconds int
}

type HandlersConfig struct {
	OptimizeHandler OptimizeHandlerConfig
}

type OptimizeHandlerConfig struct {
	// MaxTextLength caps the input in runes. Zero disables the check.
	MaxTextLength int
}

type LLMConfigs struct {
	Provider  string
	Model     string
	MaxTokens int
	OpenAI    OpenAIConfig
	Claude    ClaudeConfig
	Gemini    GeminiConfig
}

type OpenAIConfig struct {
	Key     string
	BaseUrl string
}

type ClaudeConfig struct {
	Key string
}

type GeminiConfig struct {
	Key string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig reads <configName>.yaml from the given paths (default ".") and
// overlays environment variables. The file is optional.
func LoadConfig(configName string, configPaths ...string) (*Config, error) {
	var config Config

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{"."}
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindProviderKeys(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadDotEnv exports the entries of a dotenv file into the process
// environment. Variables that already hold a value win. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading dotenv file: %w", err)
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if os.Getenv(name) != "" {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("error exporting %s: %w", name, err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowedOrigins", []string{})
	v.SetDefault("googleService.projectId", "")
	v.SetDefault("googleService.jsonKey", "")
	v.SetDefault("googleService.pushIntervalSeconds", 60)
	v.SetDefault("handlers.optimizeHandler.maxTextLength", 0)
	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.maxTokens", 0)
	v.SetDefault("llm.openai.baseUrl", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// bindProviderKeys accepts the vendor's conventional variable names next to
// the LLM_<PROVIDER>_KEY form.
func bindProviderKeys(v *viper.Viper) error {
	bindings := map[string][]string{
		"llm.openai.key": {"OPENAI_API_KEY", "LLM_OPENAI_KEY"},
		"llm.claude.key": {"ANTHROPIC_API_KEY", "LLM_CLAUDE_KEY"},
		"llm.gemini.key": {"GEMINI_API_KEY", "LLM_GEMINI_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("error binding %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))

	defaultModel, ok := defaultModels[c.LLM.Provider]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModel
	}

	if c.LLM.ProviderKey() == "" && c.LLM.Provider != ProviderMock {
		return fmt.Errorf("%w: %s", ErrMissingProviderKey, c.LLM.Provider)
	}

	if c.GoogleService.PushIntervalSeconds <= 0 {
		c.GoogleService.PushIntervalSeconds = 60
	}

	return nil
}

// ProviderKey returns the credential of the selected provider.
func (c LLMConfigs) ProviderKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAI.Key
	case ProviderClaude:
		return c.Claude.Key
	case ProviderGemini:
		return c.Gemini.Key
	}
	return ""
}
