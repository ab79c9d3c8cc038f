package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

// Contribution tier boundaries for feature analysis.
const (
	highContributionThreshold     = 0.1
	moderateContributionThreshold = 0.05
)

// Explanation is the full transparency record for an assessment. It answers:
// why was this flagged, which features contributed, and how did risk evolve.
type Explanation struct {
	AssessmentID   string `json:"assessment_id"`
	ConversationID string `json:"conversation_id"`
	Timestamp      string `json:"timestamp"`
	ModelVersion   string `json:"model_version"`

	Summary            string             `json:"summary"`
	FlaggingRationale  FlaggingRationale  `json:"flagging_rationale"`
	FeatureAnalysis    FeatureAnalysis    `json:"feature_analysis"`
	StageAnalysis      StageAnalysis      `json:"stage_analysis"`
	RiskEvolution      RiskEvolution      `json:"risk_evolution"`
	ConfidenceAnalysis ConfidenceAnalysis `json:"confidence_analysis"`
	Recommendations    []string           `json:"recommendations"`
	Limitations        []string           `json:"limitations"`
}

// FlaggingRationale explains why a conversation was (or was not) flagged.
type FlaggingRationale struct {
	Flagged        bool     `json:"flagged"`
	PrimaryReasons []string `json:"primary_reasons"`
	RiskLevel      string   `json:"risk_level"`
	RequiresAction bool     `json:"requires_action"`
}

// ContributorDetail describes one feature's contribution.
type ContributorDetail struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
	Description  string  `json:"description,omitempty"`
}

// FeatureAnalysis tiers the feature contributions and interprets the
// dominant pattern.
type FeatureAnalysis struct {
	TopContributors      []ContributorDetail `json:"top_contributors"`
	ModerateContributors []ContributorDetail `json:"moderate_contributors"`
	FeatureCount         map[string]int      `json:"feature_count"`
	Interpretation       string              `json:"interpretation"`
}

// StageAnalysis describes the classified stage and what to watch for next.
type StageAnalysis struct {
	CurrentStage       string   `json:"current_stage"`
	StageConfidence    float64  `json:"stage_confidence"`
	Severity           string   `json:"severity"`
	TypicalDuration    string   `json:"typical_duration"`
	PotentialNextStage string   `json:"potential_next_stage"`
	WarningSigns       []string `json:"warning_signs"`
}

// RiskEvolution summarizes how risk developed over the conversation span.
type RiskEvolution struct {
	ConversationDurationHours float64 `json:"conversation_duration_hours"`
	MessageCount              int     `json:"message_count"`
	ProgressionRate           string  `json:"progression_rate"`
	RiskTrajectory            string  `json:"risk_trajectory"`
	TimelineSummary           string  `json:"timeline_summary"`
}

// ConfidenceAnalysis explains the confidence level of the assessment.
type ConfidenceAnalysis struct {
	ConfidenceScore float64  `json:"confidence_score"`
	ConfidenceLabel string   `json:"confidence_label"`
	Factors         []string `json:"factors"`
	Reliability     string   `json:"reliability"`
}

// ExplanationBuilder produces explanations and formal audit reports from
// completed assessments. Stateless and safe for concurrent use.
type ExplanationBuilder struct{}

// NewExplanationBuilder creates an explanation builder.
func NewExplanationBuilder() *ExplanationBuilder {
	return &ExplanationBuilder{}
}

// Build assembles the complete explanation for an assessment.
func (b *ExplanationBuilder) Build(
	assessment *model.RiskAssessment,
	features *model.BehavioralFeatures,
	conv *model.Conversation,
) *Explanation {
	return &Explanation{
		AssessmentID:       assessment.AssessmentID.String(),
		ConversationID:     assessment.ConversationID.String(),
		Timestamp:          assessment.AssessmentTimestamp.Format(time.RFC3339),
		ModelVersion:       assessment.ModelVersion,
		Summary:            b.summary(assessment),
		FlaggingRationale:  b.flaggingRationale(assessment, features),
		FeatureAnalysis:    b.featureAnalysis(assessment.FeatureContributions),
		StageAnalysis:      b.stageAnalysis(assessment),
		RiskEvolution:      b.riskEvolution(conv, assessment),
		ConfidenceAnalysis: b.confidenceAnalysis(assessment, conv),
		Recommendations:    b.recommendations(assessment),
		Limitations:        Limitations(),
	}
}

func (b *ExplanationBuilder) summary(assessment *model.RiskAssessment) string {
	review := "not required"
	if assessment.RequiresHumanReview {
		review = "IS REQUIRED"
	}
	return fmt.Sprintf(
		"Risk assessment classified as %s with score %.1f/100 (confidence: %.2f). "+
			"Conversation stage: %s. Human review %s.",
		strings.ToUpper(string(assessment.RiskLevel)),
		assessment.GroomingRiskScore,
		assessment.ConfidenceLevel,
		assessment.CurrentStage.Title(),
		review,
	)
}

func (b *ExplanationBuilder) flaggingRationale(assessment *model.RiskAssessment, features *model.BehavioralFeatures) FlaggingRationale {
	var reasons []string

	if assessment.GroomingRiskScore > 60 {
		reasons = append(reasons, fmt.Sprintf(
			"High risk score (%.1f/100) exceeds safety threshold",
			assessment.GroomingRiskScore))
	}

	if assessment.CurrentStage == model.StageIsolationAttempts ||
		assessment.CurrentStage == model.StageEscalationRisk {
		reasons = append(reasons, "Advanced grooming stage detected: "+assessment.CurrentStage.Title())
	}

	// Tone shift is excluded here; it is too weak a signal to flag on alone
	flagFeatures := []struct {
		name  string
		value float64
	}{
		{"Emotional dependency patterns", features.EmotionalDependencyIndicators},
		{"Isolation pressure", features.IsolationPressure},
		{"Secrecy pressure", features.SecrecyPressure},
		{"Platform migration attempts", features.PlatformMigrationAttempts},
		{"Contact frequency escalation", features.ContactFrequencyScore},
		{"Persistence after non-response", features.PersistenceAfterNonResponse},
	}

	var highRisk []string
	for _, f := range flagFeatures {
		if f.value > 0.6 {
			highRisk = append(highRisk, fmt.Sprintf("%s (%.2f)", f.name, f.value))
		}
	}
	if len(highRisk) > 0 {
		reasons = append(reasons, "High-risk behavioral patterns: "+strings.Join(highRisk, ", "))
	}

	if len(reasons) == 0 {
		reasons = []string{"Moderate behavioral signals warrant monitoring"}
	}

	return FlaggingRationale{
		Flagged:        assessment.GroomingRiskScore > 40,
		PrimaryReasons: reasons,
		RiskLevel:      string(assessment.RiskLevel),
		RequiresAction: assessment.RequiresHumanReview,
	}
}

func (b *ExplanationBuilder) featureAnalysis(contributions []model.FeatureContribution) FeatureAnalysis {
	var high, moderate, low []model.FeatureContribution
	for _, c := range contributions {
		switch {
		case c.ContributionWeight > highContributionThreshold:
			high = append(high, c)
		case c.ContributionWeight > moderateContributionThreshold:
			moderate = append(moderate, c)
		default:
			low = append(low, c)
		}
	}

	top := make([]ContributorDetail, 0, 5)
	for i, c := range high {
		if i >= 5 {
			break
		}
		top = append(top, ContributorDetail{
			Feature:      c.FeatureName,
			Value:        c.Value,
			Contribution: c.ContributionWeight,
			Description:  c.Description,
		})
	}

	mod := make([]ContributorDetail, 0, len(moderate))
	for _, c := range moderate {
		mod = append(mod, ContributorDetail{
			Feature:      c.FeatureName,
			Value:        c.Value,
			Contribution: c.ContributionWeight,
		})
	}

	return FeatureAnalysis{
		TopContributors:      top,
		ModerateContributors: mod,
		FeatureCount: map[string]int{
			"high":     len(high),
			"moderate": len(moderate),
			"low":      len(low),
		},
		Interpretation: interpretFeaturePattern(high),
	}
}

// interpretFeaturePattern names the dominant behavioral strategy implied by
// the high-contributing features.
func interpretFeaturePattern(high []model.FeatureContribution) string {
	if len(high) == 0 {
		return "No significant behavioral patterns detected"
	}

	names := make(map[string]bool, len(high))
	for _, c := range high {
		names[c.FeatureName] = true
	}

	if names["emotional_dependency_indicators"] {
		if names["isolation_pressure"] {
			return "Pattern suggests emotional manipulation with isolation tactics"
		}
		return "Pattern suggests emotional manipulation strategy"
	}
	if names["platform_migration_attempts"] && names["secrecy_pressure"] {
		return "Pattern suggests attempt to move conversation to private channels"
	}
	if names["contact_frequency_score"] && names["persistence_after_nonresponse"] {
		return "Pattern suggests escalating and persistent contact behavior"
	}

	return "Multiple behavioral risk indicators detected"
}

func (b *ExplanationBuilder) stageAnalysis(assessment *model.RiskAssessment) StageAnalysis {
	analysis := StageAnalysis{
		CurrentStage:    assessment.CurrentStage.Title(),
		StageConfidence: assessment.StageConfidence,
	}

	switch assessment.CurrentStage {
	case model.StageInitialContact:
		analysis.Severity = "low"
		analysis.TypicalDuration = "days to weeks"
		analysis.PotentialNextStage = "Trust Building"
		analysis.WarningSigns = []string{"Increasing contact frequency", "Personal questions"}
	case model.StageTrustBuilding:
		analysis.Severity = "moderate"
		analysis.TypicalDuration = "weeks to months"
		analysis.PotentialNextStage = "Emotional Dependency"
		analysis.WarningSigns = []string{"Emotional manipulation", "Isolation attempts"}
	case model.StageEmotionalDependency:
		analysis.Severity = "high"
		analysis.TypicalDuration = "variable"
		analysis.PotentialNextStage = "Isolation Attempts"
		analysis.WarningSigns = []string{"Secrecy requests", "Platform migration"}
	case model.StageIsolationAttempts:
		analysis.Severity = "critical"
		analysis.TypicalDuration = "variable"
		analysis.PotentialNextStage = "Escalation Risk"
		analysis.WarningSigns = []string{"Off-platform contact", "Meeting requests"}
	case model.StageEscalationRisk:
		analysis.Severity = "critical"
		analysis.TypicalDuration = "immediate"
		analysis.PotentialNextStage = "None (intervention required)"
		analysis.WarningSigns = []string{"All escalation indicators"}
	default:
		analysis.Severity = "unknown"
		analysis.TypicalDuration = "unknown"
		analysis.PotentialNextStage = "unknown"
		analysis.WarningSigns = []string{}
	}

	return analysis
}

func (b *ExplanationBuilder) riskEvolution(conv *model.Conversation, assessment *model.RiskAssessment) RiskEvolution {
	duration := conv.DurationHours()

	rate := "unknown"
	if duration > 0 {
		switch {
		case duration < 24:
			rate = "rapid (less than 24 hours)"
		case duration < 168:
			rate = "moderate (days)"
		default:
			rate = "gradual (weeks or more)"
		}
	}

	return RiskEvolution{
		ConversationDurationHours: duration,
		MessageCount:              len(conv.Messages),
		ProgressionRate:           rate,
		RiskTrajectory:            trajectory(assessment.GroomingRiskScore),
		TimelineSummary: fmt.Sprintf(
			"Conversation spanned %.1f hours with %d messages, reaching %s stage",
			duration, len(conv.Messages),
			strings.ReplaceAll(string(assessment.CurrentStage), "_", " ")),
	}
}

func trajectory(score float64) string {
	switch {
	case score < 30:
		return "stable at low risk"
	case score < 60:
		return "increasing to moderate risk"
	case score < 80:
		return "escalating to high risk"
	default:
		return "critical escalation"
	}
}

func (b *ExplanationBuilder) confidenceAnalysis(assessment *model.RiskAssessment, conv *model.Conversation) ConfidenceAnalysis {
	confidence := assessment.ConfidenceLevel

	var factors []string
	if len(conv.Messages) < 5 {
		factors = append(factors, "Limited data (few messages)")
	} else if len(conv.Messages) > 20 {
		factors = append(factors, "Sufficient data (many messages)")
	}

	label := "low"
	if confidence > 0.7 {
		label = "high"
	} else if confidence > 0.5 {
		label = "moderate"
	}

	return ConfidenceAnalysis{
		ConfidenceScore: confidence,
		ConfidenceLabel: label,
		Factors:         factors,
		Reliability: "High confidence assessments are more reliable for decision-making. " +
			"Low confidence assessments may require additional data or human review.",
	}
}

func (b *ExplanationBuilder) recommendations(assessment *model.RiskAssessment) []string {
	var recs []string

	switch {
	case assessment.GroomingRiskScore >= 80:
		recs = append(recs,
			"URGENT: Immediate human review required",
			"Escalate to platform safety team",
			"Consider emergency intervention protocols",
			"Preserve all evidence for potential investigation",
			"Activate victim support resources",
		)
	case assessment.GroomingRiskScore >= 60:
		recs = append(recs,
			"High-priority human review required within 24 hours",
			"Consider platform-level safety interventions",
			"Monitor for escalation patterns",
			"Prepare support resources",
		)
	case assessment.GroomingRiskScore >= 40:
		recs = append(recs,
			"Increased monitoring recommended",
			"Track feature progression over time",
			"Consider educational interventions",
		)
	default:
		recs = append(recs,
			"Continue baseline monitoring",
			"Track for pattern changes",
		)
	}

	switch assessment.CurrentStage {
	case model.StageEscalationRisk:
		recs = append(recs, "CRITICAL: Immediate action required")
	case model.StageIsolationAttempts:
		recs = append(recs,
			"Alert platform safety team",
			"Document evidence for investigation",
		)
	}

	return recs
}

// Limitations documents the fixed system caveats attached to every
// explanation and report.
func Limitations() []string {
	return []string{
		"This is a risk signaling system, not a criminal accusation tool",
		"False positives are possible; human review is essential",
		"System analyzes behavioral patterns, not content semantics",
		"Effectiveness depends on data quality and completeness",
		"Cultural and contextual factors may not be fully captured",
		"System is designed as one component of comprehensive safety measures",
		"Regular model updates and validation are required for accuracy",
	}
}

// AuditReport renders a formal plain-text report for legal and compliance
// use.
func (b *ExplanationBuilder) AuditReport(
	assessment *model.RiskAssessment,
	features *model.BehavioralFeatures,
	conv *model.Conversation,
) string {
	explanation := b.Build(assessment, features, conv)

	rule := strings.Repeat("=", 80)
	sep := strings.Repeat("-", 80)

	var sb strings.Builder
	write := func(lines ...string) {
		for _, l := range lines {
			sb.WriteString(l)
			sb.WriteByte('\n')
		}
	}

	write(
		rule,
		"GROOMSAFE RISK ASSESSMENT AUDIT REPORT",
		rule,
		"",
		"Assessment ID: "+explanation.AssessmentID,
		"Conversation ID: "+explanation.ConversationID,
		"Timestamp: "+explanation.Timestamp,
		"Model Version: "+explanation.ModelVersion,
		"",
		sep,
		"SUMMARY",
		sep,
		explanation.Summary,
		"",
		sep,
		"RISK METRICS",
		sep,
		fmt.Sprintf("Risk Score: %.2f/100", assessment.GroomingRiskScore),
		"Risk Level: "+strings.ToUpper(string(assessment.RiskLevel)),
		fmt.Sprintf("Confidence: %.2f", assessment.ConfidenceLevel),
		"Stage: "+assessment.CurrentStage.Title(),
		fmt.Sprintf("Stage Confidence: %.2f", assessment.StageConfidence),
		"",
		sep,
		"PRIMARY RISK FACTORS",
		sep,
	)

	for _, reason := range explanation.FlaggingRationale.PrimaryReasons {
		write("- " + reason)
	}

	write("", sep, "TOP CONTRIBUTING FEATURES", sep)
	for _, contrib := range explanation.FeatureAnalysis.TopContributors {
		write(fmt.Sprintf("- %s: %.3f (contribution: %.3f)",
			contrib.Feature, contrib.Value, contrib.Contribution))
		write("  " + contrib.Description)
	}

	write("", sep, "RECOMMENDATIONS", sep)
	for _, rec := range explanation.Recommendations {
		write("- " + rec)
	}

	write("", sep, "LIMITATIONS", sep)
	for _, lim := range explanation.Limitations {
		write("- " + lim)
	}

	write("", rule, "END OF REPORT", rule)

	return sb.String()
}
