package domain

// Phase is the ENSO state of a member ahead of the eruption.
type Phase string

const (
	ElNino  Phase = "El Nino"
	LaNina  Phase = "La Nina"
	Neutral Phase = "Neutral"
)

// Phases lists every phase in reporting order.
var Phases = []Phase{ElNino, Neutral, LaNina}

// MemberPhase is one member's classification.
type MemberPhase struct {
	Member     int     `json:"member"`
	WindowMean float64 `json:"window_mean"`
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	Phase      Phase   `json:"phase"`
}

// Classification holds the phase of every member plus the rule that produced it.
type Classification struct {
	EruptionIndex int `json:"eruption_index"`
	Window        int `json:"window"`
	// StdScale is non-zero when thresholds were ±StdScale·σ of each
	// member's window rather than fixed values.
	StdScale float64       `json:"std_scale,omitempty"`
	Members  []MemberPhase `json:"members"`
}

// Labels maps member ID to phase.
func (c Classification) Labels() map[int]Phase {
	out := make(map[int]Phase, len(c.Members))
	for _, m := range c.Members {
		out[m.Member] = m.Phase
	}
	return out
}

// Count returns how many members fell into a phase.
func (c Classification) Count(p Phase) int {
	n := 0
	for _, m := range c.Members {
		if m.Phase == p {
			n++
		}
	}
	return n
}
