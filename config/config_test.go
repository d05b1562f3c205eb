package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfig = `
api:
  port: 8080
database:
  path: ./data/nmcweather.db
station:
  code: "58367"
  images:
    - radar
    - precipitation24
weather:
  run_at: "@every 5m"
mqtt:
  enabled: true
  host: broker.local
logging:
  console_level: debug
  db_attrs_format: text
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("MQTT_HOST", "mosquitto")

	config, err := Load(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	t.Run("Station", func(t *testing.T) {
		if config.Station.Code != "58367" {
			t.Errorf("Expected station code 58367, got %q", config.Station.Code)
		}
		kinds := config.Station.ImageKinds()
		if len(kinds) != 2 || kinds[0] != "radar" || kinds[1] != "precipitation24" {
			t.Errorf("Expected radar and precipitation24 images, got %v", kinds)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		if s := config.Nmc.GetBaseURL(); s != "http://www.nmc.cn" {
			t.Errorf("Expected default base url, got %q", s)
		}
		if s := config.Weather.GetRunAt(); s != "@every 5m" {
			t.Errorf("Expected run_at @every 5m, got %q", s)
		}
		if n := config.Weather.GetTimeoutSec(); n != 30 {
			t.Errorf("Expected default timeout 30, got %d", n)
		}
		if n := config.Mqtt.GetPort(); n != 1883 {
			t.Errorf("Expected default mqtt port 1883, got %d", n)
		}
		if s := config.Mqtt.GetDiscoveryPrefix(); s != "homeassistant" {
			t.Errorf("Expected discovery prefix homeassistant, got %q", s)
		}
		if s := config.Gui.GetTimezone(); s != "Asia/Shanghai" {
			t.Errorf("Expected timezone Asia/Shanghai, got %q", s)
		}
		if f := config.Logging.GetDbAttrsFormat(); f != "TEXT" {
			t.Errorf("Expected TEXT attrs format, got %q", f)
		}
	})

	t.Run("Environment override", func(t *testing.T) {
		if config.Mqtt.Host != "mosquitto" {
			t.Errorf("Expected mqtt host from environment, got %q", config.Mqtt.Host)
		}
	})
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing station code",
			content: "database:\n  path: x.db\nstation:\n  name: test\n",
		},
		{
			name:    "unknown image",
			content: "database:\n  path: x.db\nstation:\n  code: \"58367\"\n  images: [satellite]\n",
		},
		{
			name:    "mqtt without host",
			content: "database:\n  path: x.db\nstation:\n  code: \"58367\"\nmqtt:\n  enabled: true\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
