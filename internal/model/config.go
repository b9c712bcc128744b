package model

import "time"

// Config is the complete service configuration
type Config struct {
	Annotator   AnnotatorConfig   `mapstructure:"annotator" yaml:"annotator"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Model       ModelConfig       `mapstructure:"model" yaml:"model"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	HTTP        HTTPConfig        `mapstructure:"http" yaml:"http"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

// AnnotatorConfig holds the identity reported on /v1/documentation
type AnnotatorConfig struct {
	Name               string            `mapstructure:"name" yaml:"name"`
	Version            string            `mapstructure:"version" yaml:"version"`
	DockerContainerID  string            `mapstructure:"docker_container_id" yaml:"docker_container_id"`
	SupportedLanguages []string          `mapstructure:"supported_languages" yaml:"supported_languages"`
	Parameters         map[string]string `mapstructure:"parameters" yaml:"parameters"`
	Meta               map[string]string `mapstructure:"meta" yaml:"meta"`
	EmitMeta           bool              `mapstructure:"emit_meta" yaml:"emit_meta"` // Attach timing/diagnostic meta to responses
}

// ServerConfig holds HTTP service settings
type ServerConfig struct {
	Host                   string        `mapstructure:"host" yaml:"host"`
	Port                   int           `mapstructure:"port" yaml:"port"`
	ReadHeaderTimeout      time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	RequestTimeout         time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout        time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxConnections         int           `mapstructure:"max_connections" yaml:"max_connections"` // 0 disables the cap
	MaxBodyBytes           int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	RateLimit              float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second per client, 0 disables
	RateBurst              int           `mapstructure:"rate_burst" yaml:"rate_burst"`
	TypeSystemPath         string        `mapstructure:"type_system_path" yaml:"type_system_path"`
	CommunicationLayerPath string        `mapstructure:"communication_layer_path" yaml:"communication_layer_path"`
}

// ModelConfig selects and configures the NER backend
type ModelConfig struct {
	Backend string       `mapstructure:"backend" yaml:"backend"` // regex, remote, llm, onnx
	Regex   RegexConfig  `mapstructure:"regex" yaml:"regex"`
	Remote  RemoteConfig `mapstructure:"remote" yaml:"remote"`
	LLM     LLMConfig    `mapstructure:"llm" yaml:"llm"`
	ONNX    ONNXConfig   `mapstructure:"onnx" yaml:"onnx"`
}

// RegexConfig maps labels to regular expressions
type RegexConfig struct {
	Patterns map[string]string `mapstructure:"patterns" yaml:"patterns"`
}

// RemoteConfig configures an external NER server
type RemoteConfig struct {
	URL        string        `mapstructure:"url" yaml:"url"`
	Language   string        `mapstructure:"language" yaml:"language"`       // Fallback when the request carries none
	OffsetUnit string        `mapstructure:"offset_unit" yaml:"offset_unit"` // chars or bytes
	Attempts   uint          `mapstructure:"attempts" yaml:"attempts"`
	Delay      time.Duration `mapstructure:"delay" yaml:"delay"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LLMConfig configures LLM-backed entity extraction
type LLMConfig struct {
	Provider  string   `mapstructure:"provider" yaml:"provider"` // openai, anthropic, ollama
	Model     string   `mapstructure:"model" yaml:"model"`
	APIKey    string   `mapstructure:"api_key" yaml:"-"`
	BaseURL   string   `mapstructure:"base_url" yaml:"base_url"`
	Timeout   int      `mapstructure:"timeout" yaml:"timeout"` // seconds
	MaxTokens int      `mapstructure:"max_tokens" yaml:"max_tokens"`
	Labels    []string `mapstructure:"labels" yaml:"labels"`
}

// ONNXConfig configures the local transformer backend
type ONNXConfig struct {
	ModelPath     string  `mapstructure:"model_path" yaml:"model_path"`
	TokenizerPath string  `mapstructure:"tokenizer_path" yaml:"tokenizer_path"`
	LabelsPath    string  `mapstructure:"labels_path" yaml:"labels_path"`
	LibraryPath   string  `mapstructure:"library_path" yaml:"library_path"`
	MaxSeqLen     int     `mapstructure:"max_seq_len" yaml:"max_seq_len"`
	MinScore      float64 `mapstructure:"min_score" yaml:"min_score"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	SentenceWorkers int `mapstructure:"sentence_workers" yaml:"sentence_workers"` // Parallel model calls per request
	BatchWorkers    int `mapstructure:"batch_workers" yaml:"batch_workers"`       // Parallel requests in batch mode
}

// CacheConfig configures the response cache
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	Dir       string        `mapstructure:"dir" yaml:"dir"` // Empty keeps the cache in memory only
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

// HTTPConfig holds outbound HTTP client settings
type HTTPConfig struct {
	UserAgent    string `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	HTTPProxy    string `mapstructure:"http_proxy" yaml:"http_proxy"`
	HTTPSProxy   string `mapstructure:"https_proxy" yaml:"https_proxy"`
	NoProxy      string `mapstructure:"no_proxy" yaml:"no_proxy"`
}

// LogConfig controls logging output
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Annotator: AnnotatorConfig{
			Name:               "duui-ner",
			Version:            Version,
			SupportedLanguages: []string{},
			Parameters:         map[string]string{},
			Meta:               map[string]string{},
			EmitMeta:           true,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              9714,
			ReadHeaderTimeout: 5 * time.Second,
			RequestTimeout:    2 * time.Minute,
			ShutdownTimeout:   10 * time.Second,
			MaxConnections:    64,
			MaxBodyBytes:      32 << 20,
			RateLimit:         0,
			RateBurst:         10,
		},
		Model: ModelConfig{
			Backend: "regex",
			Regex: RegexConfig{
				Patterns: map[string]string{},
			},
			Remote: RemoteConfig{
				Language:   "en",
				OffsetUnit: "chars",
				Attempts:   3,
				Delay:      time.Second,
				Timeout:    30 * time.Second,
			},
			LLM: LLMConfig{
				Timeout:   30,
				MaxTokens: 1000,
				Labels:    []string{"PER", "LOC", "ORG", "MISC"},
			},
			ONNX: ONNXConfig{
				MaxSeqLen: 512,
				MinScore:  0.5,
			},
		},
		Concurrency: ConcurrencyConfig{
			SentenceWorkers: 4,
			BatchWorkers:    4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		HTTP: HTTPConfig{
			UserAgent:    "duui-ner/" + Version,
			MaxBodyBytes: 32 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
