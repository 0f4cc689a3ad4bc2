package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  notifications_topic_name: "pizza.notifications"
redis:
  host: "localhost"
  port: 6379
pizzatrack:
  http_addr: ":8080"
  settings_backend: "postgres"
  publish_notifications: true
  delivery_minutes: 30
  poll_interval_seconds: 5
  cloud_mode: "fake"
  menu:
    - name: "Margherita"
      price: 12
    - name: "Pepperoni"
      price: 14
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "pizza.notifications", cfg.Kafka.NotificationsTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.PizzaTrack.HTTPAddr)
	require.Equal(t, "postgres", cfg.PizzaTrack.SettingsBackend)
	require.True(t, cfg.PizzaTrack.PublishNotifications)
	require.Equal(t, 30, cfg.PizzaTrack.DeliveryMinutes)
	require.Len(t, cfg.PizzaTrack.Menu, 2)
	require.Equal(t, "Pepperoni", cfg.PizzaTrack.Menu[1].Name)
	require.Equal(t, 14, cfg.PizzaTrack.Menu[1].Price)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config file")
}
