package analysis

import "fmt"

// Availability is the discriminant every analyzer result carries: either
// the analysis ran (Available true, payload populated) or it could not
// (Available false, Reason explains why). Analyzers never return partial
// payloads alongside Available:false.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Ok marks a result as available
func Ok() Availability {
	return Availability{Available: true}
}

// Unavailable builds a failed availability with a human-readable reason
func Unavailable(format string, args ...any) Availability {
	return Availability{Available: false, Reason: fmt.Sprintf(format, args...)}
}

// Insight is a ranked, human-readable finding surfaced by an analyzer
type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"` // "alta", "media", "baixa"
}
