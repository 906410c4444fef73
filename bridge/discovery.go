package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"rego600mqtt/rego"
)

// Version is logged at startup and advertised in the discovery device
// descriptor.
const Version = "26.01"

const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// Sensor values are published as raw tenths integers; Home Assistant
// applies the 16-bit fold and the /10 scaling through this template.
const scaleTemplate = "{% set v = value | int %}{% if v > 32767 %}{{ ((v - 65536) / 10) | round(1) }}{% else %}{{ (v / 10) | round(1) }}{% endif %}"

const onOffTemplate = "{{ 'ON' if value|int > 0 else 'OFF' }}"

func deviceInfo() map[string]interface{} {
	return map[string]interface{}{
		"identifiers":  []string{"rego600"},
		"name":         "REGO600 Monitor",
		"manufacturer": "IVT/Bosch",
		"model":        "Rego600-635",
		"sw_version":   Version,
	}
}

func uniqueID(name string) string {
	return "rego600_" + strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// entityConfig decorates a discovery payload with the availability and
// device blocks shared by every entity.
func (b *Bridge) entityConfig(config map[string]interface{}) map[string]interface{} {
	config["availability_topic"] = b.availabilityTopic()
	config["payload_available"] = payloadOnline
	config["payload_not_available"] = payloadOffline
	config["device"] = deviceInfo()
	return config
}

func (b *Bridge) publishConfig(component, uid string, config map[string]interface{}) {
	payload, err := json.Marshal(config)
	if err != nil {
		return
	}
	b.Publish(fmt.Sprintf("%s/%s/%s/config", b.HassPrefix, component, uid), 0, true, string(payload))
}

// publishDiscovery advertises every entity to Home Assistant. All
// payloads are static, derived from the register tables.
func (b *Bridge) publishDiscovery() {
	b.publishSensorDiscovery()
	b.publishBinarySensorDiscovery()
	b.publishLedDiscovery()
	b.publishDisplayDiscovery()
	b.publishKeyDiscovery()
	b.publishSettingDiscovery()
	b.publishPowerDiscovery()
}

func (b *Bridge) publishSensorDiscovery() {
	for name := range rego.SensorMap {
		uid := uniqueID(name)
		b.publishConfig("sensor", uid, b.entityConfig(map[string]interface{}{
			"name":                name,
			"state_topic":         b.topic("sensor/" + topicName(name)),
			"unique_id":           uid,
			"unit_of_measurement": "°C",
			"value_template":      scaleTemplate,
			"state_class":         "measurement",
			"icon":                "mdi:thermometer",
		}))
	}
}

func (b *Bridge) publishBinarySensorDiscovery() {
	for name := range b.binarySensors {
		uid := uniqueID(name)
		stateTopic := b.topic("sensor/" + topicName(name))
		if name == "Add Heat Percentage" {
			b.publishConfig("sensor", uid, b.entityConfig(map[string]interface{}{
				"name":                name,
				"state_topic":         stateTopic,
				"unique_id":           uid,
				"unit_of_measurement": "%",
				"value_template":      "{{ (value | float / 10) }}",
				"state_class":         "measurement",
				"icon":                "mdi:percent",
			}))
			continue
		}
		b.publishConfig("binary_sensor", uid, b.entityConfig(map[string]interface{}{
			"name":           name,
			"state_topic":    stateTopic,
			"unique_id":      uid,
			"value_template": onOffTemplate,
		}))
	}
}

func (b *Bridge) publishLedDiscovery() {
	for name := range rego.LedMap {
		uid := uniqueID(name)
		b.publishConfig("binary_sensor", uid, b.entityConfig(map[string]interface{}{
			"name":           name,
			"state_topic":    b.topic("led/" + topicName(name)),
			"unique_id":      uid,
			"value_template": onOffTemplate,
		}))
	}
}

func (b *Bridge) publishDisplayDiscovery() {
	for name := range rego.DisplayRows {
		uid := uniqueID("display " + name)
		b.publishConfig("sensor", uid, b.entityConfig(map[string]interface{}{
			"name":            "Display " + name,
			"state_topic":     b.topic("display/" + topicName(name)),
			"unique_id":       uid,
			"entity_category": "diagnostic",
			"value_template":  "{{ value }}",
			"icon":            "mdi:television",
		}))
	}
}

func (b *Bridge) publishKeyDiscovery() {
	for i := 1; i <= 3; i++ {
		uid := fmt.Sprintf("rego600_key_%d", i)
		b.publishConfig("button", uid, b.entityConfig(map[string]interface{}{
			"name":          fmt.Sprintf("REGO600 Key %d", i),
			"command_topic": b.topic(fmt.Sprintf("set/key/%d", i)),
			"payload_press": "1",
			"unique_id":     uid,
		}))
	}
	for _, direction := range []string{"left", "right"} {
		uid := "rego600_wheel_" + direction
		b.publishConfig("button", uid, b.entityConfig(map[string]interface{}{
			"name":          "REGO600 Wheel " + titleWords(direction),
			"command_topic": b.topic("set/key/wheel_" + direction),
			"payload_press": "1",
			"unique_id":     uid,
		}))
	}
}

func (b *Bridge) publishSettingDiscovery() {
	for _, s := range Settings {
		uid := "rego600_" + s.Key
		b.publishConfig("number", uid, b.entityConfig(map[string]interface{}{
			"name":                s.Name,
			"command_topic":       b.topic("set/setting/" + s.Key),
			"state_topic":         b.topic("setting/" + s.Key),
			"min":                 s.Min,
			"max":                 s.Max,
			"step":                s.Step,
			"unit_of_measurement": "°C",
			"value_template":      "{{ (value | float / 10) | round(1) }}",
			"command_template":    "{{ (value * 10) | int }}",
			"unique_id":           uid,
			"icon":                "mdi:cog",
		}))
	}
}

func (b *Bridge) publishPowerDiscovery() {
	for _, key := range append(append([]string(nil), powerKeys...), "total", "average") {
		uid := "rego600_power_" + key
		b.publishConfig("sensor", uid, b.entityConfig(map[string]interface{}{
			"name":                "Rego600 " + titleWords(key),
			"state_topic":         b.topic("power/" + key),
			"unit_of_measurement": "W",
			"device_class":        "power",
			"state_class":         "measurement",
			"unique_id":           uid,
		}))
	}
	uid := "rego600_energy_total"
	b.publishConfig("sensor", uid, b.entityConfig(map[string]interface{}{
		"name":                "Rego600 Total Energy",
		"state_topic":         b.topic("energy/total"),
		"unit_of_measurement": "kWh",
		"device_class":        "energy",
		"state_class":         "total_increasing",
		"unique_id":           uid,
	}))
}

func titleWords(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
