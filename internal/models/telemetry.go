package models

import "time"

// MessageKind is the closed set of telemetry message types the device sends.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindFlip
	KindPosition
	KindTemperature
)

// Device application ids as they appear in cloud messages.
const (
	AppIDFlip        = "FLIP"
	AppIDPosition    = "GPS"
	AppIDTemperature = "TEMP"
)

// FlipUpsideDown is the FLIP payload for a box that landed upside down.
const FlipUpsideDown = "UPSIDE_DOWN"

func ParseMessageKind(appID string) MessageKind {
	switch appID {
	case AppIDFlip:
		return KindFlip
	case AppIDPosition:
		return KindPosition
	case AppIDTemperature:
		return KindTemperature
	default:
		return KindUnknown
	}
}

func (k MessageKind) String() string {
	switch k {
	case KindFlip:
		return AppIDFlip
	case KindPosition:
		return AppIDPosition
	case KindTemperature:
		return AppIDTemperature
	default:
		return "UNKNOWN"
	}
}

// Message is one decoded device event. AppID keeps the raw tag so unknown
// kinds can still be logged.
type Message struct {
	Kind       MessageKind
	AppID      string
	Payload    string
	DeviceID   string
	ReceivedAt *time.Time
}

func NewMessage(appID, payload string) Message {
	return Message{Kind: ParseMessageKind(appID), AppID: appID, Payload: payload}
}

type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Position is a signed decimal latitude/longitude pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
