package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendREST = "rest"
	BackendSDK  = "sdk"

	DefaultEndpoint       = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"
	DefaultModel          = "gemini-1.5-flash"
	DefaultTimeout        = 30 * time.Second
	DefaultListenAddr     = ":8080"
	DefaultMaxUploadBytes = 10 * 1024 * 1024
)

// 環境変数名
const (
	EnvAPIKey   = "GENAI_API_KEY"
	EnvEndpoint = "GEMINI_API_URL"
	EnvModel    = "GEMINI_MODEL"
	EnvBaseURL  = "GEMINI_BASE_URL"
	EnvBackend  = "CAPTION_BACKEND"
	EnvTimeout  = "CAPTION_TIMEOUT"
	EnvPort     = "PORT"
)

// ErrMissingAPIKey は API キーが設定されていないことを示します。起動時に検出され、プロセスは停止します。
var ErrMissingAPIKey = errors.New("config: " + EnvAPIKey + " is not set")

// Config はプロセス全体の設定です。起動時に一度だけ読み込まれ、各コンポーネントのコンストラクタへ渡されます。
type Config struct {
	APIKey string `yaml:"api_key"`
	// Endpoint は REST バックエンドが POST する generateContent の完全な URL です。
	Endpoint string `yaml:"endpoint"`
	// Model と BaseURL は SDK バックエンドでのみ使われます。
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Backend string `yaml:"backend"`
	// Timeout はミリ秒単位の整数、または "30s" のような文字列で指定します。
	Timeout        Duration `yaml:"timeout"`
	ListenAddr     string   `yaml:"listen_addr"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	SplitOptions   bool     `yaml:"split_options"`
	PromptTemplate string   `yaml:"prompt_template"`
	LogFormat      string   `yaml:"log_format"`
}

// Duration は YAML から time.Duration を読み込むためのラッパーです。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if ms, err := strconv.Atoi(value.Value); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default は既定値で埋めた Config を返します。
func Default() *Config {
	return &Config{
		Endpoint:       DefaultEndpoint,
		Model:          DefaultModel,
		Backend:        BackendREST,
		Timeout:        Duration(DefaultTimeout),
		ListenAddr:     DefaultListenAddr,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

// Load は path の YAML を既定値の上に読み込み、環境変数で上書きします。
// path が空の場合はファイルを読みません。ハードコードせず常にこの関数を使ってください。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	setString(EnvAPIKey, &c.APIKey)
	setString(EnvEndpoint, &c.Endpoint)
	setString(EnvModel, &c.Model)
	setString(EnvBaseURL, &c.BaseURL)
	setString(EnvBackend, &c.Backend)

	if v, ok := lookup(EnvPort); ok && v != "" {
		c.ListenAddr = ":" + v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = Duration(d)
	}
	return nil
}

// TimeoutDuration は Timeout を time.Duration として返します。0 以下なら DefaultTimeout です。
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.Timeout)
}

// Validate は必須項目を検証します。API キーが無い場合は ErrMissingAPIKey を返します。
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	switch c.Backend {
	case BackendREST:
		if c.Endpoint == "" {
			return fmt.Errorf("config: endpoint is required for backend %q", c.Backend)
		}
	case BackendSDK:
		if c.Model == "" {
			return fmt.Errorf("config: model is required for backend %q", c.Backend)
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: max_upload_bytes must be positive")
	}
	return nil
}
