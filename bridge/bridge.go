// Package bridge connects the Rego600 register protocol to the MQTT
// telemetry and command model: it schedules the polling cadences,
// derives power and energy, maintains the availability signal and
// routes inbound commands to the controller.
package bridge

import (
	"math"
	"strconv"
	"strings"
	"time"

	average "github.com/RobinUS2/golang-moving-average"
	log "github.com/sirupsen/logrus"

	"rego600mqtt/energy"
	"rego600mqtt/rego"
)

type Publish func(topic string, qos byte, retained bool, payload string) error
type Subscribe func(topic string, callback func(topic, message string)) error

// Config contains the configuration parameters for a new Bridge.
type Config struct {
	Client      *rego.Client
	Publish     Publish
	Subscribe   Subscribe
	TopicPrefix string
	HassPrefix  string
	Profile     *rego.PumpProfile
	Energy      *energy.Accumulator

	FullInterval      time.Duration // defaults to 15s
	DisplayInterval   time.Duration // defaults to 1s
	HeartbeatInterval time.Duration // defaults to 30s
	Now               func() time.Time
}

// Bridge owns the scheduler state: cadence timestamps, the per-row
// display cache and the power average. The display cache is touched
// only by the display loop, the rest only by the Tick caller.
type Bridge struct {
	Config
	binarySensors map[string]uint16
	lastDisplay   map[string]string
	lastFull      time.Time
	lastHeartbeat time.Time
	powerAvg      *average.MovingAverage
}

func NewBridge(config *Config) *Bridge {
	b := &Bridge{
		Config:        *config,
		binarySensors: rego.BinarySensorMap(config.Profile),
		lastDisplay:   make(map[string]string),
		powerAvg:      newPowerAverage(),
	}
	if b.FullInterval == 0 {
		b.FullInterval = 15 * time.Second
	}
	if b.DisplayInterval == 0 {
		b.DisplayInterval = time.Second
	}
	if b.HeartbeatInterval == 0 {
		b.HeartbeatInterval = 30 * time.Second
	}
	if b.Now == nil {
		b.Now = time.Now
	}
	return b
}

func (b *Bridge) availabilityTopic() string {
	return b.TopicPrefix + "/availability"
}

func (b *Bridge) topic(sub string) string {
	return b.TopicPrefix + "/" + sub
}

func topicName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// Start subscribes to the command namespace, publishes the discovery
// descriptors and announces the bridge online. Called again after every
// MQTT reconnect; all publications are retained and idempotent.
func (b *Bridge) Start() error {
	if err := b.Subscribe(b.TopicPrefix+"/set/#", b.handleCommand); err != nil {
		return err
	}
	b.publishDiscovery()
	return b.Publish(b.availabilityTopic(), 1, true, payloadOnline)
}

// Tick fires whichever cadences are due. The caller drives it from a
// short idle loop; nothing here blocks beyond the serial exchanges.
func (b *Bridge) Tick() {
	now := b.Now()
	if now.Sub(b.lastHeartbeat) >= b.HeartbeatInterval {
		if err := b.Publish(b.availabilityTopic(), 1, true, payloadOnline); err != nil {
			log.Warnf("heartbeat failed: %s", err)
		} else {
			b.lastHeartbeat = now
		}
	}
	if now.Sub(b.lastFull) >= b.FullInterval {
		b.fullSweep(now)
		b.lastFull = now
	}
}

// fullSweep reads and publishes every category in fixed order: sensors,
// binary sensors, LEDs, power and energy, settings. A transport failure
// in one category aborts only the rest of that category.
func (b *Bridge) fullSweep(now time.Time) {
	b.publishRegisterMap(rego.SensorMap, b.Client.ReadSensor, "sensor")
	b.publishRegisterMap(b.binarySensors, b.Client.ReadSensor, "sensor")
	b.publishRegisterMap(rego.LedMap, b.Client.ReadLedState, "led")

	reading, err := b.readPower()
	if err != nil {
		log.Errorf("serial error while reading power states: %s", err)
	} else {
		for _, key := range powerKeys {
			b.Publish(b.topic("power/"+key), 0, true, strconv.Itoa(reading.Components[key]))
		}
		b.Publish(b.topic("power/total"), 0, true, strconv.Itoa(reading.Total))
		b.powerAvg.Add(float64(reading.Total))
		b.Publish(b.topic("power/average"), 0, true, strconv.Itoa(int(math.Round(b.powerAvg.Avg()))))

		total := b.Energy.Integrate(float64(reading.Total), now)
		b.Energy.MaybeSave(now)
		b.Publish(b.topic("energy/total"), 0, true, strconv.FormatFloat(total, 'f', 3, 64))
	}

	b.publishSettings()
}

// publishRegisterMap reads one category of registers and publishes each
// value that survived validation; absent values are skipped. A hard
// serial failure aborts the rest of the category, the next sweep starts
// fresh.
func (b *Bridge) publishRegisterMap(registers map[string]uint16, read func(uint16) (int, bool, error), prefix string) {
	for name, addr := range registers {
		value, ok, err := read(addr)
		if err != nil {
			log.Errorf("serial error while reading %s: %s", name, err)
			return
		}
		if !ok {
			continue
		}
		b.Publish(b.topic(prefix+"/"+topicName(name)), 0, true, strconv.Itoa(value))
	}
}

func (b *Bridge) publishSettings() {
	for _, s := range Settings {
		value, ok, err := b.Client.ReadSetting(rego.SettingsMap[s.Name])
		if err != nil {
			log.Errorf("serial error while reading setting %s: %s", s.Name, err)
			return
		}
		if !ok {
			continue
		}
		b.Publish(b.topic("setting/"+s.Key), 0, true, strconv.Itoa(value))
	}
}

// RunTickLoop drives the sweep and heartbeat cadences from a short idle
// ticker until stop closes. session reports the current MQTT session
// ID; a new session gets its subscriptions and the online announcement
// restored through Start. Returning only between ticks guarantees no
// sweep is in flight once the loop has exited, so Stop can run after.
func (b *Bridge) RunTickLoop(session func() int, stop <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	var sessionID int
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		if newSessionID := session(); sessionID != newSessionID {
			if err := b.Start(); err != nil {
				log.Errorf("Error starting bridge: %s", err)
				continue
			}
			sessionID = newSessionID
		}
		if sessionID != 0 {
			b.Tick()
		}
	}
}

// RunDisplayLoop polls the display rows until stop closes, publishing
// only rows whose text changed. Transport errors back off and retry;
// the loop never exits on its own.
func (b *Bridge) RunDisplayLoop(stop <-chan struct{}) {
	for {
		wait := b.DisplayInterval
		if err := b.DisplayPass(); err != nil {
			log.Errorf("display serial error: %s", err)
			wait = 2 * time.Second
		}
		select {
		case <-stop:
			return
		case <-time.After(wait):
		}
	}
}

// DisplayPass reads all display rows once, diffing each against the
// last published text. Rows that failed validation are skipped and
// retried on the next pass.
func (b *Bridge) DisplayPass() error {
	for name, addr := range rego.DisplayRows {
		text, ok, err := b.Client.ReadDisplayLine(addr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if prev, seen := b.lastDisplay[name]; !seen || prev != text {
			b.lastDisplay[name] = text
			b.Publish(b.topic("display/"+topicName(name)), 0, true, text)
		}
	}
	return nil
}

// handleCommand routes one inbound MQTT message. Payloads are integers
// in tenths of a unit; anything else is logged and dropped so a stray
// publish can never crash the dispatch path.
func (b *Bridge) handleCommand(topic, message string) {
	payload, err := strconv.Atoi(strings.TrimSpace(message))
	if err != nil {
		log.Warnf("ignoring invalid payload %q on %s", message, topic)
		return
	}

	settingPrefix := b.TopicPrefix + "/set/setting/"
	if strings.HasPrefix(topic, settingPrefix) {
		b.writeSetting(strings.TrimPrefix(topic, settingPrefix), payload)
		return
	}
	keyPrefix := b.TopicPrefix + "/set/key/"
	if strings.HasPrefix(topic, keyPrefix) {
		b.pressOrTurn(strings.TrimPrefix(topic, keyPrefix))
		return
	}
	log.Warnf("unexpected MQTT topic: %s", topic)
}

func (b *Bridge) writeSetting(key string, payload int) {
	for _, s := range Settings {
		if s.Key != key {
			continue
		}
		ok, err := b.Client.WriteSetting(rego.SettingsMap[s.Name], payload)
		switch {
		case err != nil:
			log.Errorf("serial error while writing setting %s: %s", s.Name, err)
		case !ok:
			log.Warnf("controller did not acknowledge setting %s", s.Name)
		default:
			log.Infof("updated setting %s → %d", s.Name, payload)
		}
		return
	}
	log.Warnf("unknown setting key: %s", key)
}

func (b *Bridge) pressOrTurn(key string) {
	switch key {
	case "1", "2", "3":
		name := "Key " + key
		ok, err := b.Client.PressKey(rego.KeypanelMap[name])
		switch {
		case err != nil:
			log.Errorf("serial error while pressing %s: %s", name, err)
		case !ok:
			log.Warnf("controller did not acknowledge %s", name)
		default:
			log.Infof("pressed %s", name)
		}
	case "wheel_left":
		b.turnWheel("left")
	case "wheel_right":
		b.turnWheel("right")
	default:
		log.Warnf("unknown key command: %s", key)
	}
}

func (b *Bridge) turnWheel(direction string) {
	ok, err := b.Client.TurnWheel(direction)
	switch {
	case err != nil:
		log.Errorf("serial error while turning wheel %s: %s", direction, err)
	case !ok:
		log.Warnf("controller did not acknowledge wheel turn %s", direction)
	default:
		log.Infof("turned wheel %s", direction)
	}
}

// Stop announces the bridge offline and flushes the energy total. The
// offline publish is best effort: if the broker is already gone the
// retained last-will covers it.
func (b *Bridge) Stop() {
	if err := b.Publish(b.availabilityTopic(), 1, true, payloadOffline); err != nil {
		log.Warnf("offline publish failed: %s", err)
	}
	b.Energy.Save()
}
