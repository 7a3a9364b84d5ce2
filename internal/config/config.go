package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// GeminiConfig stores streaming-endpoint specific configurations.
type GeminiConfig struct {
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Voice    string `yaml:"voice"`
	Endpoint string `yaml:"endpoint"`
}

// OpenAIConfig stores configuration for the post-session summary call.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key"`
	SummaryModel string `yaml:"summary_model"`
}

// CaptureConfig stores microphone and frame-sampling configurations.
type CaptureConfig struct {
	BlockSize            int  `yaml:"block_size"`
	FrameIntervalSeconds int  `yaml:"frame_interval_seconds"`
	JPEGQuality          int  `yaml:"jpeg_quality"`
	AudioOnly            bool `yaml:"audio_only"`
}

// SessionConfig stores session manager tunables.
type SessionConfig struct {
	Topic             string `yaml:"topic"`
	OutboundQueueSize int    `yaml:"outbound_queue_size"`
}

// HistoryConfig stores persisted-history configurations.
type HistoryConfig struct {
	File      string `yaml:"file"`
	CacheSize int    `yaml:"cache_size"`
}

// Config stores the application configuration.
type Config struct {
	Gemini   GeminiConfig  `yaml:"gemini"`
	OpenAI   OpenAIConfig  `yaml:"openai"`
	Capture  CaptureConfig `yaml:"capture"`
	Session  SessionConfig `yaml:"session"`
	History  HistoryConfig `yaml:"history"`
	LogLevel string        `yaml:"log_level"`
}

// Defaults applied when the corresponding yaml keys are absent.
const (
	DefaultModel                = "gemini-2.0-flash-live-001"
	DefaultVoice                = "Puck"
	DefaultEndpoint             = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	DefaultSummaryModel         = "gpt-4o-mini"
	DefaultBlockSize            = 1024
	DefaultFrameIntervalSeconds = 1
	DefaultJPEGQuality          = 50
	DefaultOutboundQueueSize    = 256
	DefaultHistoryFile          = "history.yaml"
	DefaultHistoryCacheSize     = 64
)

// LoadConfig loads the configuration from the given file path.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Gemini.Model == "" {
		c.Gemini.Model = DefaultModel
	}
	if c.Gemini.Voice == "" {
		c.Gemini.Voice = DefaultVoice
	}
	if c.Gemini.Endpoint == "" {
		c.Gemini.Endpoint = DefaultEndpoint
	}
	if c.OpenAI.SummaryModel == "" {
		c.OpenAI.SummaryModel = DefaultSummaryModel
	}
	if c.Capture.BlockSize <= 0 {
		c.Capture.BlockSize = DefaultBlockSize
	}
	if c.Capture.FrameIntervalSeconds <= 0 {
		c.Capture.FrameIntervalSeconds = DefaultFrameIntervalSeconds
	}
	if c.Capture.JPEGQuality <= 0 || c.Capture.JPEGQuality > 100 {
		c.Capture.JPEGQuality = DefaultJPEGQuality
	}
	if c.Session.OutboundQueueSize <= 0 {
		c.Session.OutboundQueueSize = DefaultOutboundQueueSize
	}
	if c.History.File == "" {
		c.History.File = DefaultHistoryFile
	}
	if c.History.CacheSize <= 0 {
		c.History.CacheSize = DefaultHistoryCacheSize
	}
}
