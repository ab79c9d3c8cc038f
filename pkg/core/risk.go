package core

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

// Default human review thresholds on the 0-100 scale. Deployments tune
// them through WithReviewThresholds.
const (
	HumanReviewThreshold = 60.0
	CriticalThreshold    = 80.0
)

// Critical feature threshold for the synergy boost. Emotional dependency,
// isolation, and secrecy above this level compound each other.
const criticalFeatureThreshold = 0.5

// FeatureWeights assigns relative importance to each behavioral feature.
// Weights must sum to 1.0.
type FeatureWeights struct {
	ContactFrequency    float64
	Persistence         float64
	TimeIrregularity    float64
	EmotionalDependency float64
	Isolation           float64
	Secrecy             float64
	PlatformMigration   float64
	ToneShift           float64
}

// DefaultFeatureWeights returns the standard weighting. Critical warning
// signs (emotional dependency, isolation, secrecy) carry the bulk of the
// weight.
func DefaultFeatureWeights() FeatureWeights {
	return FeatureWeights{
		ContactFrequency:    0.10,
		Persistence:         0.13,
		TimeIrregularity:    0.08,
		EmotionalDependency: 0.22,
		Isolation:           0.20,
		Secrecy:             0.18,
		PlatformMigration:   0.06,
		ToneShift:           0.03,
	}
}

// Validate checks that the weights sum to 1.0 within floating point
// tolerance.
func (w FeatureWeights) Validate() error {
	sum := w.ContactFrequency + w.Persistence + w.TimeIrregularity +
		w.EmotionalDependency + w.Isolation + w.Secrecy +
		w.PlatformMigration + w.ToneShift
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("feature weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

// ordered returns the weights in the canonical feature order.
func (w FeatureWeights) ordered() []float64 {
	return []float64{
		w.ContactFrequency,
		w.Persistence,
		w.TimeIrregularity,
		w.EmotionalDependency,
		w.Isolation,
		w.Secrecy,
		w.PlatformMigration,
		w.ToneShift,
	}
}

// StageMultiplier scales the base risk by progression severity. The
// escalation multiplier deliberately exceeds 1.0 so critical cases saturate
// the scale.
func StageMultiplier(stage model.GroomingStage) float64 {
	switch stage {
	case model.StageInitialContact:
		return 0.4
	case model.StageTrustBuilding:
		return 0.6
	case model.StageEmotionalDependency:
		return 0.8
	case model.StageIsolationAttempts:
		return 0.95
	case model.StageEscalationRisk:
		return 1.2
	default:
		return 0.5
	}
}

// featureDescriptions maps feature names to display descriptions, in
// canonical feature order.
var featureDescriptions = []string{
	"Escalation in contact frequency over time",
	"Continued messaging despite non-response",
	"Messaging at unusual hours",
	"Patterns suggesting emotional manipulation",
	"Attempts to isolate target from others",
	"Requests for secrecy or privacy",
	"Attempts to move conversation to other platforms",
	"Changes in linguistic tone over time",
}

// RiskSynthesizer combines a feature vector and a stage classification into
// a 0-100 risk score with explainable contributions.
type RiskSynthesizer struct {
	weights           FeatureWeights
	reviewThreshold   float64
	criticalThreshold float64
}

// SynthesizerOption is a functional option for configuring RiskSynthesizer.
type SynthesizerOption func(*RiskSynthesizer)

// WithWeights overrides the default feature weights.
func WithWeights(w FeatureWeights) SynthesizerOption {
	return func(s *RiskSynthesizer) {
		s.weights = w
	}
}

// WithReviewThresholds overrides the scores that trigger human review. The
// risk-level buckets are fixed; only the review decision moves.
func WithReviewThresholds(review, critical float64) SynthesizerOption {
	return func(s *RiskSynthesizer) {
		s.reviewThreshold = review
		s.criticalThreshold = critical
	}
}

// NewRiskSynthesizer creates a synthesizer with default weights and review
// thresholds. Returns an error if configured weights do not sum to 1.0 or
// the thresholds are out of order.
func NewRiskSynthesizer(opts ...SynthesizerOption) (*RiskSynthesizer, error) {
	s := &RiskSynthesizer{
		weights:           DefaultFeatureWeights(),
		reviewThreshold:   HumanReviewThreshold,
		criticalThreshold: CriticalThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	if s.reviewThreshold < 0 || s.reviewThreshold > s.criticalThreshold || s.criticalThreshold > 100 {
		return nil, fmt.Errorf("review thresholds must satisfy 0 <= review <= critical <= 100, got %.1f/%.1f",
			s.reviewThreshold, s.criticalThreshold)
	}
	return s, nil
}

// Synthesize produces the full risk assessment for a conversation's
// extracted features and classified stage.
func (s *RiskSynthesizer) Synthesize(
	conv *model.Conversation,
	features *model.BehavioralFeatures,
	stage model.GroomingStage,
	stageConfidence float64,
) *model.RiskAssessment {
	baseRisk := s.baseRisk(features)
	multiplier := StageMultiplier(stage)

	finalScore := math.Min(baseRisk*multiplier*100.0, 100.0)

	confidence := s.confidence(features, stageConfidence, len(conv.Messages))
	contributions := s.contributions(features, multiplier)

	assessment := &model.RiskAssessment{
		AssessmentID:         uuid.New(),
		ConversationID:       conv.ConversationID,
		GroomingRiskScore:    finalScore,
		ConfidenceLevel:      confidence,
		RiskLevel:            model.RiskLevelForScore(finalScore),
		CurrentStage:         stage,
		StageConfidence:      stageConfidence,
		FeatureContributions: contributions,
		AssessmentTimestamp:  time.Now().UTC(),
		ModelVersion:         model.ModelVersion,
		RequiresHumanReview:  s.requiresHumanReview(finalScore, stage, confidence),
	}
	assessment.ReasoningSummary = s.reasoning(assessment, features, len(conv.Messages))

	return assessment
}

// baseRisk is the weighted feature sum plus a synergy boost when multiple
// critical features are simultaneously elevated.
func (s *RiskSynthesizer) baseRisk(features *model.BehavioralFeatures) float64 {
	values := features.Values()
	weights := s.weights.ordered()

	weighted := 0.0
	for i, v := range values {
		weighted += v * weights[i]
	}

	critical := []float64{
		features.EmotionalDependencyIndicators,
		features.IsolationPressure,
		features.SecrecyPressure,
	}
	highCount := 0
	for _, c := range critical {
		if c > criticalFeatureThreshold {
			highCount++
		}
	}
	if highCount >= 2 {
		boost := 0.15 * float64(highCount-1)
		weighted = math.Min(weighted+boost, 1.0)
	}

	return clip01(weighted)
}

// confidence blends data quantity, stage confidence, and feature
// consistency. More messages and a flatter feature vector mean a more
// trustworthy score.
func (s *RiskSynthesizer) confidence(features *model.BehavioralFeatures, stageConfidence float64, messageCount int) float64 {
	var dataConfidence float64
	switch {
	case messageCount < 5:
		dataConfidence = 0.3
	case messageCount < 10:
		dataConfidence = 0.5
	case messageCount < 20:
		dataConfidence = 0.7
	default:
		dataConfidence = 0.9
	}

	featureVariance := variance(features.Values())
	consistency := 1.0 - math.Min(featureVariance, 0.5)*2.0

	overall := dataConfidence*0.4 + stageConfidence*0.3 + consistency*0.3
	return clip01(overall)
}

// contributions computes value x weight x multiplier per feature, sorted by
// contribution descending.
func (s *RiskSynthesizer) contributions(features *model.BehavioralFeatures, multiplier float64) []model.FeatureContribution {
	values := features.Values()
	weights := s.weights.ordered()

	contributions := make([]model.FeatureContribution, 0, len(values))
	for i, v := range values {
		contributions = append(contributions, model.FeatureContribution{
			FeatureName:        model.FeatureNames[i],
			Value:              v,
			ContributionWeight: v * weights[i] * multiplier,
			Description:        featureDescriptions[i],
		})
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].ContributionWeight > contributions[j].ContributionWeight
	})

	return contributions
}

// displayNames maps feature vector positions to reasoning display labels.
var displayNames = []string{
	"Contact frequency escalation",
	"Persistence after non-response",
	"Unusual messaging hours",
	"Emotional dependency patterns",
	"Isolation pressure",
	"Secrecy requests",
	"Platform migration attempts",
	"Tone shifts",
}

// reasoning builds the pipe-delimited human-readable summary.
func (s *RiskSynthesizer) reasoning(assessment *model.RiskAssessment, features *model.BehavioralFeatures, messageCount int) string {
	type factor struct {
		name  string
		value float64
	}
	values := features.Values()
	factors := make([]factor, len(values))
	for i, v := range values {
		factors[i] = factor{name: displayNames[i], value: v}
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].value > factors[j].value
	})

	topText := ""
	for _, f := range factors[:3] {
		if f.value <= 0.3 {
			continue
		}
		if topText != "" {
			topText += ", "
		}
		topText += fmt.Sprintf("%s (%.2f)", f.name, f.value)
	}

	summary := fmt.Sprintf("Risk Score: %.1f/100 | Classification: %s | %s | Message Count: %d",
		assessment.GroomingRiskScore,
		assessment.CurrentStage.Title(),
		StageDescription(assessment.CurrentStage),
		messageCount,
	)
	if topText != "" {
		summary += " | Primary Risk Factors: " + topText
	}
	return summary
}

// requiresHumanReview applies the review triggers: critical or high scores,
// escalation stage regardless of score, and isolation stage at moderate
// confidence.
func (s *RiskSynthesizer) requiresHumanReview(score float64, stage model.GroomingStage, confidence float64) bool {
	if score >= s.criticalThreshold {
		return true
	}
	if score >= s.reviewThreshold {
		return true
	}
	if stage == model.StageEscalationRisk {
		return true
	}
	if stage == model.StageIsolationAttempts && confidence > 0.5 {
		return true
	}
	return false
}
