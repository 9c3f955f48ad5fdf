// Package onboarding writes a commented starter config on first run so the
// gateway can come up without hand-editing YAML.
package onboarding

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/evahub/eva-gateway/internal/logging"
)

const defaultConfig = `# EVA gateway configuration.
# Generated on first run, edit freely.

server:
  host: 0.0.0.0
  port: 18800

assistant:
  name: EVA
  timezone: Europe/Moscow

redis:
  addr: localhost:6379
  db: 0

llm:
  default_provider: local
  max_tokens: 500
  providers:
    - name: local
      type: ollama
      url: http://localhost:11434
      model: llama3
    # - name: openai
    #   type: openai
    #   url: https://api.openai.com/v1
    #   api_key: sk-...
    #   model: gpt-4o-mini

weather:
  # api_key: your-openweathermap-key
  default_city: Москва
  units: metric

calendar:
  enabled: false
  # url: http://localhost:8008
  # token: ...

tts:
  enabled: false
  # url: http://localhost:8020

smart_home:
  home_assistant:
    enabled: false
    # url: http://homeassistant.local:8123
    # token: ...
  mqtt:
    enabled: false
    # broker: tcp://localhost:1883
    # topic_prefix: eva

scheduler:
  enabled: true
  break_reminders: true
  evening_checkin: true
  default_wake_time: "09:00"

channels:
  telegram:
    enabled: false
    # token: ...
  discord:
    enabled: false
    # token: ...
  webchat:
    enabled: true

healthring:
  enabled: true
  check_interval: 30s

logging:
  level: info
  format: json
`

type Onboarding struct {
	log        *slog.Logger
	configPath string
}

func New(configPath string) *Onboarding {
	return &Onboarding{
		log:        logging.WithComponent("onboarding"),
		configPath: configPath,
	}
}

// IsNeeded reports whether the config file is missing.
func (o *Onboarding) IsNeeded() bool {
	_, err := os.Stat(o.configPath)
	return err != nil
}

// WriteDefaultConfig creates the starter config. It refuses to overwrite an
// existing file.
func (o *Onboarding) WriteDefaultConfig() error {
	if !o.IsNeeded() {
		return fmt.Errorf("config already exists: %s", o.configPath)
	}
	if dir := filepath.Dir(o.configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(o.configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	o.log.Info("default config written", "path", o.configPath)
	return nil
}
