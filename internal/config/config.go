package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for EVA Gateway
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Assistant  AssistantConfig  `yaml:"assistant"`
	Redis      RedisConfig      `yaml:"redis"`
	LLM        LLMConfig        `yaml:"llm"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Weather    WeatherConfig    `yaml:"weather"`
	SmartHome  SmartHomeConfig  `yaml:"smart_home"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	TTS        TTSConfig        `yaml:"tts"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Logging    LoggingConfig    `yaml:"logging"`
	HealthRing HealthRingConfig `yaml:"healthring,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// AssistantConfig defines the assistant persona settings
type AssistantConfig struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ProviderConfig defines an LLM provider configuration
type ProviderConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // "openai" or "ollama"
	URL     string `yaml:"url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout,omitempty"`
}

// GetTimeout returns the provider timeout as a time.Duration
func (p *ProviderConfig) GetTimeout() time.Duration {
	if p.Timeout == "" {
		return 60 * time.Second
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// LLMConfig defines LLM provider configurations
type LLMConfig struct {
	Providers       []ProviderConfig `yaml:"providers"`
	DefaultProvider string           `yaml:"default_provider,omitempty"`
	MaxTokens       int              `yaml:"max_tokens,omitempty"`
}

// ChannelsConfig defines channel configurations
type ChannelsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
	WebChat  WebChatConfig  `yaml:"webchat"`
}

// TelegramConfig defines Telegram channel settings
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// DiscordConfig defines Discord channel settings
type DiscordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// WebChatConfig defines WebChat channel settings
type WebChatConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WeatherConfig defines OpenWeatherMap settings
type WeatherConfig struct {
	APIKey      string `yaml:"api_key"`
	DefaultCity string `yaml:"default_city"`
	Units       string `yaml:"units,omitempty"`
}

// SmartHomeConfig defines smart home integration settings
type SmartHomeConfig struct {
	HomeAssistant HomeAssistantConfig `yaml:"home_assistant"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
}

// HomeAssistantConfig defines Home Assistant connection settings
type HomeAssistantConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
}

// MQTTConfig defines MQTT broker connection settings
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// CalendarConfig defines calendar bridge settings
type CalendarConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token,omitempty"`
}

// TTSConfig defines the speech sidecar settings
type TTSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Voice   string `yaml:"voice,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
}

// GetTimeout returns the TTS timeout as a time.Duration
func (t *TTSConfig) GetTimeout() time.Duration {
	if t.Timeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(t.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// SchedulerConfig defines proactive scheduler settings
type SchedulerConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BreakReminders bool   `yaml:"break_reminders"`
	EveningCheckin bool   `yaml:"evening_checkin"`
	DefaultWakeTime string `yaml:"default_wake_time,omitempty"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HealthRingConfig defines health ring settings
type HealthRingConfig struct {
	Enabled       bool          `yaml:"enabled"`
	CheckInterval time.Duration `yaml:"check_interval"`
}

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	return &cfg, nil
}

// applyDefaults fills in values the file may omit
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 18700
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Assistant.Name == "" {
		c.Assistant.Name = "EVA"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 500
	}
	if c.Weather.Units == "" {
		c.Weather.Units = "metric"
	}
	if c.SmartHome.MQTT.TopicPrefix == "" {
		c.SmartHome.MQTT.TopicPrefix = "eva"
	}
	if c.Scheduler.DefaultWakeTime == "" {
		c.Scheduler.DefaultWakeTime = "09:00"
	}
	if c.HealthRing.CheckInterval == 0 {
		c.HealthRing.CheckInterval = 30 * time.Second
	}
}

// applyEnvOverrides applies environment variable overrides to the config
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("GATEWAY_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &c.Server.Port)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		c.Redis.Password = pass
	}
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		c.Channels.Telegram.Token = token
	}
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		c.Channels.Discord.Token = token
	}
	if key := os.Getenv("OPENWEATHER_API_KEY"); key != "" {
		c.Weather.APIKey = key
	}
	if token := os.Getenv("HOMEASSISTANT_TOKEN"); token != "" {
		c.SmartHome.HomeAssistant.Token = token
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		for i := range c.LLM.Providers {
			if c.LLM.Providers[i].Type == "openai" {
				c.LLM.Providers[i].APIKey = apiKey
			}
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if len(c.LLM.Providers) == 0 {
		return fmt.Errorf("at least one llm provider is required")
	}
	for _, p := range c.LLM.Providers {
		if p.Name == "" {
			return fmt.Errorf("llm provider name is required")
		}
		if p.Type != "openai" && p.Type != "ollama" {
			return fmt.Errorf("unknown llm provider type: %s", p.Type)
		}
	}
	if c.Channels.Telegram.Enabled && c.Channels.Telegram.Token == "" {
		return fmt.Errorf("telegram channel enabled but token is empty")
	}
	if c.Channels.Discord.Enabled && c.Channels.Discord.Token == "" {
		return fmt.Errorf("discord channel enabled but token is empty")
	}
	if c.SmartHome.HomeAssistant.Enabled && c.SmartHome.HomeAssistant.URL == "" {
		return fmt.Errorf("home assistant enabled but url is empty")
	}
	if c.SmartHome.MQTT.Enabled && c.SmartHome.MQTT.Broker == "" {
		return fmt.Errorf("mqtt enabled but broker is empty")
	}
	return nil
}
