package moderation

import "marketplace/internal/agents"

// MaxMessageLength bounds a message in Unicode code points
const MaxMessageLength = 1000

// Request is a chat message to classify
type Request struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

// Status is the moderation verdict
type Status string

const (
	StatusSafe            Status = "safe"
	StatusAbusive         Status = "abusive"
	StatusPhoneDetected   Status = "phone_detected"
	StatusPolicyViolation Status = "policy_violation"
)

// Severity grades a violation
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Action is what the platform should do with the message
type Action string

const (
	ActionNone   Action = "none"
	ActionWarn   Action = "warn"
	ActionBlock  Action = "block"
	ActionReview Action = "review"
)

// PreAnalysis holds the local heuristic signals computed before prompting
type PreAnalysis struct {
	PhoneDetected            bool `json:"phone_detected"`
	AbusiveDetected          bool `json:"abusive_detected"`
	ExternalPlatformDetected bool `json:"external_platform_detected"`
}

// Result is a moderation verdict
type Result struct {
	Status            Status          `json:"status"`
	Reason            string          `json:"reason"`
	Confidence        float64         `json:"confidence"`
	DetectedElements  []string        `json:"detected_elements"`
	Severity          Severity        `json:"severity"`
	ActionRecommended Action          `json:"action_recommended"`
	PreAnalysis       PreAnalysis     `json:"pre_analysis"`
	Metadata          agents.Metadata `json:"metadata"`
}
