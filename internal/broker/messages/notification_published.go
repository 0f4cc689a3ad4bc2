package messages

import "time"

// NotificationPublished is the Kafka payload of one toast.
type NotificationPublished struct {
	SessionID  string    `json:"session_id,omitempty"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle,omitempty"`
	Body       string    `json:"body"`
	Kind       string    `json:"kind"`
	DurationMS int       `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
