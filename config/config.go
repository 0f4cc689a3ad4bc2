package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	PizzaTrack PizzaTrackConfig `yaml:"pizzatrack"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	NotificationsTopicName string `yaml:"notifications_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type PizzaTrackConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	// SettingsBackend is "redis" (default) or "postgres".
	SettingsBackend string `yaml:"settings_backend"`

	// Kafka fan-out of notifications is optional; without it toasts only reach
	// the websocket and the log.
	PublishNotifications bool `yaml:"publish_notifications"`

	DeliveryMinutes        int `yaml:"delivery_minutes"`
	CountdownTickMillis    int `yaml:"countdown_tick_millis"`
	PollIntervalSeconds    int `yaml:"poll_interval_seconds"`
	PollLookbackSeconds    int `yaml:"poll_lookback_seconds"`
	PollRateLimitPerMinute int `yaml:"poll_rate_limit_per_minute"`

	CloudBaseURL string `yaml:"cloud_base_url"`
	CloudMode    string `yaml:"cloud_mode"` // "nrfcloud" | "fake"

	Menu []MenuItem `yaml:"menu"`
}

type MenuItem struct {
	Name  string `yaml:"name"`
	Price int    `yaml:"price"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
