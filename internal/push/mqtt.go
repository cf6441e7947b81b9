// Package push notifies screen devices over MQTT when their assigned
// content changes, so a device can refresh its page without polling the
// dashboard. The broker is optional; a nil *Client is safe to call and
// publishes nothing.
package push

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Command is the payload published to a screen's command topic.
type Command struct {
	Action   string `json:"action"`
	ScreenID string `json:"screen_id"`
}

const (
	ActionRefresh = "refresh"
	ActionStop    = "stop"
)

type Client struct {
	conn mqtt.Client
}

// Connect dials the broker and returns a ready client.
func Connect(brokerURL, clientID string) (*Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Error().Err(err).Msg("MQTT connection lost")
	}

	conn := mqtt.NewClient(opts)
	if token := conn.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Client{conn: conn}, nil
}

func topicFor(screenID string) string {
	return fmt.Sprintf("screens/%s/commands", screenID)
}

// NotifyScreen publishes a command to one screen's topic. Failures are
// logged, not returned: a missed push only delays the device until its next
// refresh.
func (c *Client) NotifyScreen(screenID, action string) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(Command{Action: action, ScreenID: screenID})
	if err != nil {
		return
	}
	token := c.conn.Publish(topicFor(screenID), 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		log.Error().Err(err).Str("screen_id", screenID).Str("action", action).
			Msg("failed to publish screen command")
		return
	}
	log.Debug().Str("screen_id", screenID).Str("action", action).Msg("published screen command")
}

// Close disconnects from the broker.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.conn.Disconnect(250)
}
