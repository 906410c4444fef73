package main

import (
	"flag"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

// Settings mirrors the rego600.toml configuration file.
type Settings struct {
	SerialPort string `toml:"serial_port"`

	MqttServer   string `toml:"mqtt_server"`
	MqttClientID string `toml:"mqtt_client_id"`
	MqttUsername string `toml:"mqtt_username"`
	MqttPassword string `toml:"mqtt_password"`

	TopicPrefix string `toml:"topic_prefix"`
	HassPrefix  string `toml:"hass_prefix"`

	// Nominal pump power in kW: 4, 5, 7, 9, 11, 14 or 16. Selects the
	// wattage table and the auxiliary-heat labeling.
	PumpSizeKW int `toml:"pump_size_kw"`

	EnergyFile string `toml:"energy_file"`

	FullIntervalSeconds    int `toml:"full_interval_seconds"`
	DisplayIntervalSeconds int `toml:"display_interval_seconds"`
	HeartbeatSeconds       int `toml:"heartbeat_seconds"`

	LogLevel string `toml:"log_level"`
}

func defaultSettings() *Settings {
	hostname, _ := os.Hostname()
	return &Settings{
		SerialPort:             "/dev/ttyUSB0",
		MqttServer:             "tcp://127.0.0.1:1883",
		MqttClientID:           hostname + "_rego600",
		TopicPrefix:            "rego600",
		HassPrefix:             "homeassistant",
		PumpSizeKW:             5,
		EnergyFile:             "energy_total.json",
		FullIntervalSeconds:    15,
		DisplayIntervalSeconds: 1,
		HeartbeatSeconds:       30,
		LogLevel:               "info",
	}
}

// LoadSettings reads the TOML configuration, creating a default file on
// first run so an installation starts from a template it can edit.
func LoadSettings(path string) (*Settings, error) {
	settings := defaultSettings()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := toml.NewEncoder(f).Encode(settings); err != nil {
			return nil, err
		}
		log.Infof("Created default configuration at %s", path)
		return settings, nil
	}
	if _, err := toml.DecodeFile(path, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func ParseCommandLine() *Settings {
	configPath := flag.String("config", "rego600.toml", "Path to the TOML configuration file")
	flag.Parse()

	settings, err := LoadSettings(*configPath)
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	return settings
}

func (s *Settings) FullInterval() time.Duration {
	return time.Duration(s.FullIntervalSeconds) * time.Second
}

func (s *Settings) DisplayInterval() time.Duration {
	return time.Duration(s.DisplayIntervalSeconds) * time.Second
}

func (s *Settings) HeartbeatInterval() time.Duration {
	return time.Duration(s.HeartbeatSeconds) * time.Second
}
