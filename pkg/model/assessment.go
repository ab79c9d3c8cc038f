package model

import (
	"time"

	"github.com/google/uuid"
)

// FeatureVersion identifies the behavioral feature extraction algorithm in
// effect. Bump when feature semantics change so stored assessments remain
// comparable.
const FeatureVersion = "1.0.0"

// ModelVersion identifies the risk scoring model in effect.
const ModelVersion = "1.0.0"

// BehavioralFeatures holds the eight behavioral signals extracted from a
// conversation. Every score is in [0, 1]. No content semantics beyond fixed
// multilingual keyword matching are involved.
type BehavioralFeatures struct {
	ConversationID uuid.UUID `json:"conversation_id"`

	// Temporal patterns
	ContactFrequencyScore       float64 `json:"contact_frequency_score"`
	PersistenceAfterNonResponse float64 `json:"persistence_after_nonresponse"`
	TimeOfDayIrregularity       float64 `json:"time_of_day_irregularity"`

	// Relational patterns
	EmotionalDependencyIndicators float64 `json:"emotional_dependency_indicators"`
	IsolationPressure             float64 `json:"isolation_pressure"`
	SecrecyPressure               float64 `json:"secrecy_pressure"`

	// Platform behavior
	PlatformMigrationAttempts float64 `json:"platform_migration_attempts"`

	// Linguistic patterns
	ToneShiftScore float64 `json:"tone_shift_score"`

	ExtractionTimestamp time.Time `json:"extraction_timestamp"`
	FeatureVersion      string    `json:"feature_version"`
}

// Values returns all eight feature scores in canonical order: contact
// frequency, persistence, time irregularity, emotional dependency,
// isolation, secrecy, platform migration, tone shift.
func (f *BehavioralFeatures) Values() []float64 {
	return []float64{
		f.ContactFrequencyScore,
		f.PersistenceAfterNonResponse,
		f.TimeOfDayIrregularity,
		f.EmotionalDependencyIndicators,
		f.IsolationPressure,
		f.SecrecyPressure,
		f.PlatformMigrationAttempts,
		f.ToneShiftScore,
	}
}

// FeatureNames lists the feature identifiers in the same order as Values.
var FeatureNames = []string{
	"contact_frequency_score",
	"persistence_after_nonresponse",
	"time_of_day_irregularity",
	"emotional_dependency_indicators",
	"isolation_pressure",
	"secrecy_pressure",
	"platform_migration_attempts",
	"tone_shift_score",
}

// FeatureContribution records how much a single feature contributed to the
// final risk score.
type FeatureContribution struct {
	FeatureName        string  `json:"feature_name"`
	Value              float64 `json:"value"`
	ContributionWeight float64 `json:"contribution_weight"`
	Description        string  `json:"description"`
}

// RiskAssessment is the explainable output of the scoring pipeline. It
// signals risk; it never assigns guilt.
type RiskAssessment struct {
	AssessmentID   uuid.UUID `json:"assessment_id"`
	ConversationID uuid.UUID `json:"conversation_id"`

	GroomingRiskScore float64   `json:"grooming_risk_score"` // 0-100
	ConfidenceLevel   float64   `json:"confidence_level"`    // 0-1
	RiskLevel         RiskLevel `json:"risk_level"`

	CurrentStage    GroomingStage `json:"current_stage"`
	StageConfidence float64       `json:"stage_confidence"`

	FeatureContributions []FeatureContribution `json:"feature_contributions"`
	ReasoningSummary     string                `json:"reasoning_summary"`

	AssessmentTimestamp time.Time `json:"assessment_timestamp"`
	ModelVersion        string    `json:"model_version"`
	RequiresHumanReview bool      `json:"requires_human_review"`
}

// TimelineEvent is an abstracted point on a conversation timeline, safe for
// visualization. No message content appears here.
type TimelineEvent struct {
	Timestamp   time.Time     `json:"timestamp"`
	EventType   string        `json:"event_type"`
	Description string        `json:"description"`
	RiskLevel   RiskLevel     `json:"risk_level"`
	Stage       GroomingStage `json:"stage,omitempty"`
}

// ShieldSummary is the analyst-safe representation of a conversation.
// It carries only abstract metrics and clinical descriptions; raw message
// text never appears in any field.
type ShieldSummary struct {
	ConversationID uuid.UUID `json:"conversation_id"`

	MessageCount              int     `json:"message_count"`
	ConversationDurationHours float64 `json:"conversation_duration_hours"`
	TemporalPatternSummary    string  `json:"temporal_pattern_summary"`
	BehavioralCluster         string  `json:"behavioral_cluster"`

	KeyRiskIndicators []string        `json:"key_risk_indicators"`
	TimelineEvents    []TimelineEvent `json:"timeline_events"`

	ExposureLevel          string `json:"exposure_level"` // minimal, moderate, detailed
	AnalystSafetyCertified bool   `json:"analyst_safety_certified"`
}

// AuditEntry is one record in the immutable decision trail.
type AuditEntry struct {
	LogID          uuid.UUID `json:"log_id"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID uuid.UUID `json:"conversation_id"`
	AssessmentID   uuid.UUID `json:"assessment_id,omitempty"`

	ActionType string `json:"action_type"`
	Actor      string `json:"actor"`

	RiskScore float64       `json:"risk_score,omitempty"`
	RiskLevel RiskLevel     `json:"risk_level,omitempty"`
	Stage     GroomingStage `json:"stage,omitempty"`

	DecisionRationale string         `json:"decision_rationale"`
	ModelVersion      string         `json:"model_version"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}
