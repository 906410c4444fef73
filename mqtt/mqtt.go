// Package mqtt wraps the paho client with the reconnect and last-will
// behavior the bridge needs. Reconnects create a fresh session; the
// session ID lets the caller notice and resubscribe.
package mqtt

import (
	"crypto/tls"
	"errors"
	"sync"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Server   string
	ClientID string
	Username string
	Password string

	// Last-will published by the broker if the connection dies
	// uncleanly.
	WillTopic   string
	WillPayload string
}

// Client state is shared between the reconnect goroutine and the
// callers of Publish/Subscribe/SessionID, so every access goes through
// the mutex.
type Client struct {
	mu     sync.Mutex
	client MQTT.Client
	id     int
	closed bool
}

var ErrNotConnected = errors.New("MQTT client not connected")

func New(config *Config) *Client {
	m := &Client{}

	connOpts := MQTT.NewClientOptions().
		AddBroker(config.Server).
		SetClientID(config.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(false)

	if config.Username != "" {
		connOpts.SetUsername(config.Username)
		if config.Password != "" {
			connOpts.SetPassword(config.Password)
		}
	}

	if config.WillTopic != "" {
		connOpts.SetWill(config.WillTopic, config.WillPayload, 1, true)
	}

	tlsConfig := &tls.Config{InsecureSkipVerify: true, ClientAuth: tls.NoClientCert}
	connOpts.SetTLSConfig(tlsConfig)

	connOpts.OnConnectionLost = func(c MQTT.Client, err error) {
		log.Warnf("MQTT disconnected: %s", err)
	}

	connect := func() {
		log.Infof("Trying to connect to MQTT %s ...", config.Server)
		newClient := MQTT.NewClient(connOpts)
		token := newClient.Connect()
		token.Wait()
		if token.Error() == nil {
			m.mu.Lock()
			m.client = newClient
			m.id++
			id := m.id
			m.mu.Unlock()
			log.Infof("Connected to MQTT. Session ID %d", id)
		}
	}

	connect()
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			m.mu.Lock()
			closed, client := m.closed, m.client
			m.mu.Unlock()
			if closed {
				if client != nil {
					client.Disconnect(100)
				}
				return
			}
			if client == nil || !client.IsConnectionOpen() {
				connect()
			}
		}
	}()
	return m
}

// SessionID returns the current connection generation, 0 before the
// first successful connect.
func (m *Client) SessionID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *Client) connected() MQTT.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

func (m *Client) Publish(topic string, qos byte, retained bool, payload string) error {
	client := m.connected()
	if client == nil {
		return ErrNotConnected
	}
	token := client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Subscribe registers a callback that receives the concrete topic of
// each message, so wildcard subscriptions can route on the suffix.
func (m *Client) Subscribe(topic string, callback func(topic, message string)) error {
	client := m.connected()
	if client == nil {
		return ErrNotConnected
	}
	token := client.Subscribe(topic, 0, func(c MQTT.Client, msg MQTT.Message) {
		callback(msg.Topic(), string(msg.Payload()))
	})
	token.Wait()
	return token.Error()
}

func (m *Client) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
