package model

import "encoding/json"

// EventRecord is the JSON representation of one audit event for storage.
type EventRecord struct {
	Seq       uint64          `json:"seq"`
	Pool      string          `json:"pool"`
	EventName string          `json:"event_name"`
	Decoded   json.RawMessage `json:"decoded"`
	EmittedAt string          `json:"emitted_at"`
}
