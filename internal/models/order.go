package models

import "time"

// Notification kinds understood by the toast widget.
const (
	NotificationSuccess = "success"
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

type Notification struct {
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle"`
	Body       string    `json:"body"`
	Kind       string    `json:"kind"`
	DurationMS int       `json:"duration_ms"`
	SessionID  string    `json:"session_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PromotionReason names the condition that made a pizza free.
type PromotionReason string

const (
	PromotionFlipped PromotionReason = "flipped"
	PromotionCold    PromotionReason = "cold"
	PromotionLate    PromotionReason = "late"
)

type Pizza struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

type Order struct {
	SessionID string    `json:"session_id"`
	Pizza     Pizza     `json:"pizza"`
	PlacedAt  time.Time `json:"placed_at"`
	Deadline  time.Time `json:"deadline"`
}

// BoardSnapshot is the full display state rendered by a client.
type BoardSnapshot struct {
	Order *Order `json:"order,omitempty"`

	DeliveryTime    string     `json:"delivery_time"`
	DeliveryCaption string     `json:"delivery_caption"`
	Cost            string     `json:"cost"`
	CostCaption     string     `json:"cost_caption"`
	Temperature     string     `json:"temperature"`
	Flipped         string     `json:"flipped"`
	FlipImage       string     `json:"flip_image"`
	Marker          Position   `json:"marker"`
	Center          Position   `json:"center"`
	Trail           []Position `json:"trail"`
	Destination     Position   `json:"destination"`
	PartnerOffice   Position   `json:"partner_office"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
