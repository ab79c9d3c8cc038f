// Package model defines the core data structures shared across the GroomSafe
// pipeline: sanitized conversations in, explainable risk assessments out.
// All content fields carry abstracted text only; raw message content never
// enters the system.
package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrValidation marks structurally invalid input rejected before scoring.
// Check with errors.Is.
var ErrValidation = errors.New("validation failed")

// SenderRole identifies who sent a message in a conversation.
type SenderRole string

const (
	RoleAdult   SenderRole = "adult"
	RoleMinor   SenderRole = "minor"
	RoleUnknown SenderRole = "unknown"
)

// Valid reports whether the role is one of the known values.
func (r SenderRole) Valid() bool {
	switch r {
	case RoleAdult, RoleMinor, RoleUnknown:
		return true
	}
	return false
}

// GroomingStage represents progression stages in a grooming pattern.
// Stages are ordered by severity; StageOrder lists them from least to
// most severe.
type GroomingStage string

const (
	StageInitialContact      GroomingStage = "initial_contact"
	StageTrustBuilding       GroomingStage = "trust_building"
	StageEmotionalDependency GroomingStage = "emotional_dependency"
	StageIsolationAttempts   GroomingStage = "isolation_attempts"
	StageEscalationRisk      GroomingStage = "escalation_risk"
	StageUnknown             GroomingStage = "unknown"
)

// StageOrder is the canonical severity ordering of classifiable stages.
// Classification ties resolve to the earlier stage in this order.
var StageOrder = []GroomingStage{
	StageInitialContact,
	StageTrustBuilding,
	StageEmotionalDependency,
	StageIsolationAttempts,
	StageEscalationRisk,
}

// Title returns a human-readable form of the stage ("isolation_attempts"
// becomes "Isolation Attempts").
func (s GroomingStage) Title() string {
	switch s {
	case StageInitialContact:
		return "Initial Contact"
	case StageTrustBuilding:
		return "Trust Building"
	case StageEmotionalDependency:
		return "Emotional Dependency"
	case StageIsolationAttempts:
		return "Isolation Attempts"
	case StageEscalationRisk:
		return "Escalation Risk"
	default:
		return "Unknown"
	}
}

// RiskLevel buckets a 0-100 risk score.
type RiskLevel string

const (
	LevelMinimal  RiskLevel = "minimal"  // 0-20
	LevelLow      RiskLevel = "low"      // 21-40
	LevelModerate RiskLevel = "moderate" // 41-60
	LevelHigh     RiskLevel = "high"     // 61-80
	LevelCritical RiskLevel = "critical" // 81-100
)

// RiskLevels lists all levels from least to most severe.
var RiskLevels = []RiskLevel{LevelMinimal, LevelLow, LevelModerate, LevelHigh, LevelCritical}

// RiskLevelForScore maps a 0-100 score to its level bucket.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score <= 20:
		return LevelMinimal
	case score <= 40:
		return LevelLow
	case score <= 60:
		return LevelModerate
	case score <= 80:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// IsHighRisk reports whether the level counts against analyst high-risk
// exposure limits.
func (l RiskLevel) IsHighRisk() bool {
	return l == LevelHigh || l == LevelCritical
}

// Message is a single message in a sanitized conversation. AbstractedText is
// the sanitized, non-explicit representation produced upstream.
type Message struct {
	MessageID      uuid.UUID      `json:"message_id"`
	Timestamp      time.Time      `json:"timestamp"`
	SenderRole     SenderRole     `json:"sender_role"`
	AbstractedText string         `json:"abstracted_text"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Conversation is an anonymized message sequence under analysis.
type Conversation struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Messages       []Message `json:"messages"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time,omitempty"`
	PlatformType   string    `json:"platform_type,omitempty"`
	IsSynthetic    bool      `json:"is_synthetic,omitempty"`
}

// Validate checks structural requirements: at least one message, and a
// known sender role on every message.
func (c *Conversation) Validate() error {
	if len(c.Messages) < 1 {
		return fmt.Errorf("%w: conversation must contain at least one message", ErrValidation)
	}
	for i, m := range c.Messages {
		if !m.SenderRole.Valid() {
			return fmt.Errorf("%w: message %d: invalid sender role %q", ErrValidation, i, m.SenderRole)
		}
	}
	return nil
}

// SortedMessages returns the messages in timestamp order without mutating
// the conversation.
func (c *Conversation) SortedMessages() []Message {
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// AdultMessages returns messages sent by the adult participant, in
// timestamp order.
func (c *Conversation) AdultMessages() []Message {
	var out []Message
	for _, m := range c.SortedMessages() {
		if m.SenderRole == RoleAdult {
			out = append(out, m)
		}
	}
	return out
}

// DurationHours is the span between the earliest and latest message, in
// hours. Returns 0 for conversations with fewer than two messages.
func (c *Conversation) DurationHours() float64 {
	if len(c.Messages) < 2 {
		return 0
	}
	min, max := c.Messages[0].Timestamp, c.Messages[0].Timestamp
	for _, m := range c.Messages[1:] {
		if m.Timestamp.Before(min) {
			min = m.Timestamp
		}
		if m.Timestamp.After(max) {
			max = m.Timestamp
		}
	}
	return max.Sub(min).Hours()
}
