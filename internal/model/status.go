package model

import "time"

// PlantStatus is the engine's health verdict for display. It is only
// overwritten when the label changes, so ComputedAt reflects the last real
// transition rather than the last polling cycle.
type PlantStatus struct {
	Label         string    `json:"label"`
	SeverityColor string    `json:"severity_color"`
	ComputedAt    time.Time `json:"computed_at"`
}

// RelayCommand is one append-only entry on the pump command channel.
// The hardware consumer tolerates repeated identical commands, so the engine
// emits one every cycle without waiting for acknowledgement.
type RelayCommand struct {
	ID       string     `json:"id"`
	UserID   string     `json:"user_id"`
	State    RelayState `json:"relay_state"`
	Source   string     `json:"source"`
	IssuedAt time.Time  `json:"issued_at"`
}
