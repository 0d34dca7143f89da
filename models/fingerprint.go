package models

import (
	"time"
)

// Fingerprint records anonymous usage for one derived device identifier.
// SummaryIDs is drained exactly once when the device's user signs in and
// claims their history; the row itself is kept for audit.
type Fingerprint struct {
	Fingerprint string    `json:"fingerprint"`
	IPAddress   string    `json:"ip_address"`
	UseCount    int       `json:"use_count"`
	SummaryIDs  []string  `json:"summary_ids"`
	UsedAt      time.Time `json:"used_at"`
}
