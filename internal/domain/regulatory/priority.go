package regulatory

import "strings"

// Priority ranks how urgent a requirement is for an organisation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority in ascending order of urgency.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// NormalizePriority lowercases p and falls back to medium when blank.
func NormalizePriority(p Priority) Priority {
	p = Priority(strings.ToLower(strings.TrimSpace(string(p))))
	if p == "" {
		return PriorityMedium
	}
	return p
}
