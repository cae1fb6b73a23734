package config

// JourneyConfig identifies the monitored journey. Start and Destination are
// the two required settings; Name is only used for display.
type JourneyConfig struct {
	Start       string `yaml:"start" validate:"required"`
	Destination string `yaml:"destination" validate:"required"`
	Name        string `yaml:"name"`
}

// UpstreamConfig tunes the transport.opendata.ch client.
type UpstreamConfig struct {
	URL       string `yaml:"url" validate:"omitempty,url"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// ServerConfig contains the HTTP server configuration.
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0"`
}

// MQTTConfig configures the optional home-automation bridge.
type MQTTConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Broker          string `yaml:"broker" validate:"omitempty,url"` // e.g. tcp://localhost:1883
	ClientID        string `yaml:"client_id"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	TopicPrefix     string `yaml:"topic_prefix"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Journey  JourneyConfig  `yaml:"journey" validate:"required"`
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}
