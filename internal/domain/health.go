package domain

import "time"

// HealthReport is the outcome of a full sample transcription check. It is
// always produced, even when the check fails; Log combines the captured
// error message, stderr, and stdout for display.
type HealthReport struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Success     bool      `json:"success"`
	Log         string    `json:"log"`
}
