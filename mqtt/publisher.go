package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	transportboard "github.com/miaucl/swiss-transport-board"
	"github.com/miaucl/swiss-transport-board/config"
)

const connectTimeout = 10 * time.Second

// Publisher owns the broker connection and the topic layout for one journey.
type Publisher struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	journeyName string
	nodeID      string
}

// discoveryPayload is the Home Assistant discovery config for one sensor.
type discoveryPayload struct {
	Name              string          `json:"name"`
	UniqueID          string          `json:"unique_id"`
	StateTopic        string          `json:"state_topic"`
	AvailabilityTopic string          `json:"availability_topic"`
	UnitOfMeasurement string          `json:"unit_of_measurement,omitempty"`
	DeviceClass       string          `json:"device_class,omitempty"`
	Icon              string          `json:"icon,omitempty"`
	Device            discoveryDevice `json:"device"`
}

type discoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
}

// NewPublisher connects to the broker configured in cfg. The registered will
// flips the availability topic to offline on an unclean exit.
func NewPublisher(cfg config.MQTTConfig, journeyName string) (*Publisher, error) {
	p := &Publisher{
		cfg:         cfg,
		journeyName: journeyName,
		nodeID:      sanitizeNodeID(journeyName),
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetWill(p.availabilityTopic(), "offline", 1, true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	p.client = pahomqtt.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", cfg.Broker, err)
	}
	return p, nil
}

// Run announces the sensors and then mirrors every coordinator update to the
// broker. It returns when the updates channel is closed or the subscription
// is cancelled by the caller.
func (p *Publisher) Run(coord *transportboard.Coordinator, updates <-chan transportboard.Update) {
	if err := p.PublishDiscovery(); err != nil {
		log.Printf("mqtt discovery publish failed: %v", err)
	}
	for range updates {
		if err := p.PublishState(coord.Data(), coord.Healthy()); err != nil {
			log.Printf("mqtt state publish failed: %v", err)
		}
	}
}

// PublishDiscovery announces every sensor descriptor, retained.
func (p *Publisher) PublishDiscovery() error {
	for _, d := range transportboard.Sensors() {
		payload, err := json.Marshal(p.buildDiscoveryPayload(d))
		if err != nil {
			return fmt.Errorf("mqtt: encode discovery for %s: %w", d.Key, err)
		}
		if err := p.publish(p.discoveryTopic(d.Key), payload, true); err != nil {
			return err
		}
	}
	return nil
}

// PublishState publishes availability plus one retained state message per
// sensor view.
func (p *Publisher) PublishState(rs transportboard.ResultSet, healthy bool) error {
	availability := "offline"
	if healthy {
		availability = "online"
	}
	if err := p.publish(p.availabilityTopic(), []byte(availability), true); err != nil {
		return err
	}

	for _, sp := range transportboard.BuildSensorPayloads(rs) {
		if err := p.publish(p.stateTopic(sp.Key), []byte(stateString(sp)), true); err != nil {
			return err
		}
	}
	return nil
}

// Close flips availability to offline and disconnects.
func (p *Publisher) Close() {
	_ = p.publish(p.availabilityTopic(), []byte("offline"), true)
	p.client.Disconnect(250)
}

func (p *Publisher) publish(topic string, payload []byte, retained bool) error {
	token := p.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt: publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) buildDiscoveryPayload(d transportboard.SensorDescriptor) discoveryPayload {
	return discoveryPayload{
		Name:              fmt.Sprintf("%s %s", p.journeyName, d.Key),
		UniqueID:          fmt.Sprintf("%s_%s", p.nodeID, d.Key),
		StateTopic:        p.stateTopic(d.Key),
		AvailabilityTopic: p.availabilityTopic(),
		UnitOfMeasurement: d.Unit,
		DeviceClass:       string(d.DeviceClass),
		Icon:              d.Icon,
		Device: discoveryDevice{
			Identifiers:  []string{p.nodeID},
			Name:         p.journeyName,
			Manufacturer: "Opendata.ch",
		},
	}
}

func (p *Publisher) availabilityTopic() string {
	return p.cfg.TopicPrefix + "/" + p.nodeID + "/availability"
}

func (p *Publisher) stateTopic(key string) string {
	return p.cfg.TopicPrefix + "/" + p.nodeID + "/" + key
}

func (p *Publisher) discoveryTopic(key string) string {
	return fmt.Sprintf("%s/sensor/%s/%s/config", p.cfg.DiscoveryPrefix, p.nodeID, key)
}

// stateString flattens a sensor payload into an MQTT state message.
// Unavailable sensors report "unknown", matching the home-automation
// convention for missing values.
func stateString(sp transportboard.SensorPayload) string {
	if !sp.Available || sp.Value == nil {
		return "unknown"
	}
	switch v := sp.Value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case time.Time:
		// Payload builders flatten timestamps already; keep the wire
		// format stable if one ever arrives raw.
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// sanitizeNodeID derives a topic-safe identifier from the journey name.
func sanitizeNodeID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	id := strings.Trim(b.String(), "_")
	if id == "" {
		return "transport_board"
	}
	return id
}
