package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"rego600mqtt/bridge"
	"rego600mqtt/energy"
	"rego600mqtt/mqtt"
	"rego600mqtt/rego"
	"rego600mqtt/serial"
)

const (
	serialBaudRate = 19200
	serialTimeout  = time.Second
)

func main() {
	settings := ParseCommandLine()
	log.Infof("Starting Rego600-635 MQTT bridge - Version %s", bridge.Version)

	ctrlC := make(chan os.Signal, 1)
	signal.Notify(ctrlC, os.Interrupt, syscall.SIGTERM)

	port, err := serial.Open(&serial.Config{
		Port:     settings.SerialPort,
		BaudRate: serialBaudRate,
		Timeout:  serialTimeout,
	})
	if err != nil {
		log.Fatalf("Serial port error: %s", err)
	}
	log.Infof("Connected to %s", settings.SerialPort)

	client := rego.NewClient(&rego.ClientConfig{Port: port})

	acc := energy.Load(settings.EnergyFile, time.Now())
	log.Infof("Loaded accumulated energy: %.3f kWh", acc.Total())

	mqttClient := mqtt.New(&mqtt.Config{
		Server:      settings.MqttServer,
		ClientID:    settings.MqttClientID,
		Username:    settings.MqttUsername,
		Password:    settings.MqttPassword,
		WillTopic:   settings.TopicPrefix + "/availability",
		WillPayload: "offline",
	})

	b := bridge.NewBridge(&bridge.Config{
		Client:            client,
		Publish:           mqttClient.Publish,
		Subscribe:         mqttClient.Subscribe,
		TopicPrefix:       settings.TopicPrefix,
		HassPrefix:        settings.HassPrefix,
		Profile:           rego.ProfileFor(settings.PumpSizeKW),
		Energy:            acc,
		FullInterval:      settings.FullInterval(),
		DisplayInterval:   settings.DisplayInterval(),
		HeartbeatInterval: settings.HeartbeatInterval(),
	})

	stop := make(chan struct{})
	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		b.RunDisplayLoop(stop)
	}()
	log.Infof("Display monitor started (interval: %s)", settings.DisplayInterval())
	go func() {
		defer loops.Done()
		b.RunTickLoop(mqttClient.SessionID, stop)
	}()

	<-ctrlC
	log.Info("Monitoring stopped by the user.")

	// Both loops must drain before the offline announcement and the
	// energy flush; a sweep still in flight would race the accumulator.
	close(stop)
	loops.Wait()
	b.Stop()
	mqttClient.Close()
	port.Close()
	log.Infof("Energy saved at close: %.3f kWh", acc.Total())
}
