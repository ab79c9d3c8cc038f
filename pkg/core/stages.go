package core

import (
	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

// Stage score argmax thresholds.
const (
	// initialContactThreshold bounds the "low signal" region scored as
	// initial contact.
	initialContactThreshold = 0.2

	// minStageScore is the floor below which classification falls back to
	// initial contact at fixed 0.5 confidence.
	minStageScore = 0.15

	// minStageConfidence is the floor applied to every classification.
	minStageConfidence = 0.1
)

// ProgressionClassifier maps a behavioral feature vector onto the grooming
// progression stages. Classification is a pure function of the features.
type ProgressionClassifier struct{}

// NewProgressionClassifier creates a stage classifier.
func NewProgressionClassifier() *ProgressionClassifier {
	return &ProgressionClassifier{}
}

// StageScores holds the raw per-stage scores prior to argmax. Exposed for
// explanation and debugging output.
type StageScores map[model.GroomingStage]float64

// Classify returns the most likely stage and a confidence in [0.1, 1].
// Ties resolve to the earlier stage in model.StageOrder. When every stage
// score is below the floor, the conversation is treated as ambiguous
// initial contact.
func (p *ProgressionClassifier) Classify(features *model.BehavioralFeatures) (model.GroomingStage, float64) {
	scores := p.Scores(features)

	best := model.StageOrder[0]
	bestScore := scores[best]
	for _, stage := range model.StageOrder[1:] {
		if scores[stage] > bestScore {
			best = stage
			bestScore = scores[stage]
		}
	}

	if bestScore < minStageScore {
		return model.StageInitialContact, 0.5
	}

	// Margin over the runner-up sharpens confidence
	runnerUp := 0.0
	for _, stage := range model.StageOrder {
		if stage == best {
			continue
		}
		if scores[stage] > runnerUp {
			runnerUp = scores[stage]
		}
	}
	margin := bestScore - runnerUp

	confidence := clip01(bestScore + margin*0.5)
	if confidence < minStageConfidence {
		confidence = minStageConfidence
	}

	return best, confidence
}

// Scores computes the raw score for every classifiable stage.
func (p *ProgressionClassifier) Scores(features *model.BehavioralFeatures) StageScores {
	return StageScores{
		model.StageInitialContact:      p.scoreInitialContact(features),
		model.StageTrustBuilding:       p.scoreTrustBuilding(features),
		model.StageEmotionalDependency: p.scoreEmotionalDependency(features),
		model.StageIsolationAttempts:   p.scoreIsolationAttempts(features),
		model.StageEscalationRisk:      p.scoreEscalationRisk(features),
	}
}

// scoreInitialContact rewards uniformly low behavioral signals.
func (p *ProgressionClassifier) scoreInitialContact(features *model.BehavioralFeatures) float64 {
	avg := mean(features.Values())
	if avg < initialContactThreshold {
		return 1.0 - avg/initialContactThreshold
	}
	return 0.0
}

// scoreTrustBuilding rewards moderate contact and rapport signals while
// penalizing isolation and secrecy pressure. The band (0.2, 0.5) is
// amplified; everything outside it is damped.
func (p *ProgressionClassifier) scoreTrustBuilding(features *model.BehavioralFeatures) float64 {
	contact := features.ContactFrequencyScore * 0.4
	emotional := features.EmotionalDependencyIndicators * 0.3
	tone := features.ToneShiftScore * 0.3

	pressure := (features.IsolationPressure + features.SecrecyPressure) / 2.0

	score := (contact + emotional + tone) * (1.0 - pressure*0.5)

	if score > 0.2 && score < 0.5 {
		return score * 2.0
	}
	return score * 0.5
}

func (p *ProgressionClassifier) scoreEmotionalDependency(features *model.BehavioralFeatures) float64 {
	score := features.EmotionalDependencyIndicators*0.5 +
		features.ContactFrequencyScore*0.25 +
		features.PersistenceAfterNonResponse*0.25
	return clip01(score)
}

func (p *ProgressionClassifier) scoreIsolationAttempts(features *model.BehavioralFeatures) float64 {
	score := features.IsolationPressure*0.35 +
		features.SecrecyPressure*0.35 +
		features.PlatformMigrationAttempts*0.30
	return clip01(score)
}

// scoreEscalationRisk combines the breadth of elevated features (count above
// 0.6) with their intensity (mean of those above 0.5).
func (p *ProgressionClassifier) scoreEscalationRisk(features *model.BehavioralFeatures) float64 {
	values := features.Values()

	highCount := 0
	var elevated []float64
	for _, v := range values {
		if v > 0.6 {
			highCount++
		}
		if v > 0.5 {
			elevated = append(elevated, v)
		}
	}

	score := (float64(highCount)/float64(len(values)))*0.5 + mean(elevated)*0.5
	return clip01(score)
}

// StageDescription returns a clinical description of a stage, suitable for
// reports and analyst summaries.
func StageDescription(stage model.GroomingStage) string {
	switch stage {
	case model.StageInitialContact:
		return "Initial contact phase with minimal behavioral signals. " +
			"Conversation appears exploratory with low risk indicators."
	case model.StageTrustBuilding:
		return "Trust building phase characterized by increasing contact frequency " +
			"and developing rapport. Moderate behavioral signals present."
	case model.StageEmotionalDependency:
		return "Emotional dependency phase with patterns suggesting emotional " +
			"manipulation or dependency building. Elevated risk indicators."
	case model.StageIsolationAttempts:
		return "Isolation attempt phase showing secrecy pressure, isolation tactics, " +
			"or platform migration attempts. High risk indicators present."
	case model.StageEscalationRisk:
		return "Escalation risk phase with multiple high-risk behavioral signals. " +
			"Urgent patterns detected requiring immediate review."
	default:
		return "Unable to classify stage due to insufficient data or ambiguous patterns."
	}
}

// StageRecommendations returns the recommended actions for a stage.
func StageRecommendations(stage model.GroomingStage) []string {
	switch stage {
	case model.StageInitialContact:
		return []string{
			"Continue monitoring conversation patterns",
			"Establish baseline behavioral metrics",
			"No immediate intervention required",
		}
	case model.StageTrustBuilding:
		return []string{
			"Increased monitoring recommended",
			"Track feature progression over time",
			"Consider educational interventions for potential victim",
		}
	case model.StageEmotionalDependency:
		return []string{
			"High-priority monitoring required",
			"Human review recommended within 24 hours",
			"Consider platform-level safety interventions",
			"Prepare support resources for potential victim",
		}
	case model.StageIsolationAttempts:
		return []string{
			"Urgent human review required",
			"Consider immediate safety interventions",
			"Alert platform safety team",
			"Document evidence for potential investigation",
		}
	case model.StageEscalationRisk:
		return []string{
			"CRITICAL: Immediate human review required",
			"Escalate to platform safety team immediately",
			"Consider emergency intervention protocols",
			"Preserve all evidence for law enforcement",
			"Activate victim support resources",
		}
	default:
		return []string{
			"Gather additional data for classification",
			"Manual review may be required",
			"Continue baseline monitoring",
		}
	}
}
