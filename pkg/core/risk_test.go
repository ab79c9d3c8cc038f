package core

import (
	"strings"
	"testing"
	"time"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

func TestFeatureWeights_Validate(t *testing.T) {
	if err := DefaultFeatureWeights().Validate(); err != nil {
		t.Errorf("Default weights should validate: %v", err)
	}

	bad := DefaultFeatureWeights()
	bad.ToneShift = 0.5
	if err := bad.Validate(); err == nil {
		t.Error("Weights not summing to 1.0 should fail validation")
	}
}

func TestNewRiskSynthesizer_RejectsBadWeights(t *testing.T) {
	bad := DefaultFeatureWeights()
	bad.Isolation = 0.9
	if _, err := NewRiskSynthesizer(WithWeights(bad)); err == nil {
		t.Error("NewRiskSynthesizer should reject invalid weights")
	}
}

func TestStageMultiplier(t *testing.T) {
	cases := []struct {
		stage model.GroomingStage
		want  float64
	}{
		{model.StageInitialContact, 0.4},
		{model.StageTrustBuilding, 0.6},
		{model.StageEmotionalDependency, 0.8},
		{model.StageIsolationAttempts, 0.95},
		{model.StageEscalationRisk, 1.2},
		{model.StageUnknown, 0.5},
	}
	for _, c := range cases {
		if got := StageMultiplier(c.stage); got != c.want {
			t.Errorf("StageMultiplier(%s) = %v, want %v", c.stage, got, c.want)
		}
	}
}

func TestBaseRisk_SynergyBoost(t *testing.T) {
	s, err := NewRiskSynthesizer()
	if err != nil {
		t.Fatal(err)
	}

	// One critical feature elevated: no boost
	single := featureVector(map[string]float64{"emotional": 0.8})
	if got, want := s.baseRisk(single), 0.8*0.22; !almostEqual(got, want) {
		t.Errorf("baseRisk = %v, want %v without synergy", got, want)
	}

	// Two critical features elevated: +0.15
	double := featureVector(map[string]float64{"emotional": 0.8, "isolation": 0.8})
	want := 0.8*0.22 + 0.8*0.20 + 0.15
	if got := s.baseRisk(double); !almostEqual(got, want) {
		t.Errorf("baseRisk = %v, want %v with one synergy boost", got, want)
	}

	// All three elevated: +0.30
	triple := featureVector(map[string]float64{"emotional": 0.8, "isolation": 0.8, "secrecy": 0.8})
	want = 0.8*0.22 + 0.8*0.20 + 0.8*0.18 + 0.30
	if got := s.baseRisk(triple); !almostEqual(got, want) {
		t.Errorf("baseRisk = %v, want %v with two synergy boosts", got, want)
	}
}

func TestSynthesize_BenignConversation(t *testing.T) {
	s, err := NewRiskSynthesizer()
	if err != nil {
		t.Fatal(err)
	}

	conv := conversation(
		adultMsg(0, "Welcome to the study group"),
		minorMsg(time.Hour, "Thanks, happy to join"),
		adultMsg(2*time.Hour, "The next session covers chapter four"),
	)

	assessment := s.Synthesize(conv, featureVector(nil), model.StageInitialContact, 0.9)

	if assessment.GroomingRiskScore != 0 {
		t.Errorf("score = %v, want 0 for zero features", assessment.GroomingRiskScore)
	}
	if assessment.RiskLevel != model.LevelMinimal {
		t.Errorf("level = %s, want minimal", assessment.RiskLevel)
	}
	if assessment.RequiresHumanReview {
		t.Error("Benign conversation should not require human review")
	}
	if assessment.ConversationID != conv.ConversationID {
		t.Error("Assessment should carry the conversation ID")
	}
	if assessment.ModelVersion != model.ModelVersion {
		t.Errorf("ModelVersion = %q, want %q", assessment.ModelVersion, model.ModelVersion)
	}
}

func TestSynthesize_HighRiskConversation(t *testing.T) {
	s, err := NewRiskSynthesizer()
	if err != nil {
		t.Fatal(err)
	}

	conv := conversation(
		adultMsg(0, "a"),
		adultMsg(time.Hour, "b"),
		minorMsg(2*time.Hour, "c"),
	)
	f := featureVector(map[string]float64{
		"contact":     0.9,
		"persistence": 0.9,
		"emotional":   0.9,
		"isolation":   0.9,
		"secrecy":     0.9,
		"migration":   0.9,
	})

	assessment := s.Synthesize(conv, f, model.StageIsolationAttempts, 0.9)

	if assessment.GroomingRiskScore < 80 {
		t.Errorf("score = %v, want critical range for saturated features", assessment.GroomingRiskScore)
	}
	if !assessment.RiskLevel.IsHighRisk() {
		t.Errorf("level = %s, want high risk", assessment.RiskLevel)
	}
	if !assessment.RequiresHumanReview {
		t.Error("Critical score must trigger human review")
	}
}

func TestSynthesize_ScoreSaturatesAt100(t *testing.T) {
	s, err := NewRiskSynthesizer()
	if err != nil {
		t.Fatal(err)
	}

	all := map[string]float64{}
	for _, name := range []string{"contact", "persistence", "time_irregularity", "emotional", "isolation", "secrecy", "migration", "tone"} {
		all[name] = 1.0
	}
	conv := conversation(adultMsg(0, "a"), adultMsg(time.Hour, "b"))

	assessment := s.Synthesize(conv, featureVector(all), model.StageEscalationRisk, 1.0)
	if assessment.GroomingRiskScore != 100 {
		t.Errorf("score = %v, want saturation at 100", assessment.GroomingRiskScore)
	}
}

func TestRequiresHumanReview(t *testing.T) {
	cases := []struct {
		name       string
		score      float64
		stage      model.GroomingStage
		confidence float64
		want       bool
	}{
		{"low score", 30, model.StageTrustBuilding, 0.9, false},
		{"review threshold", 60, model.StageTrustBuilding, 0.9, true},
		{"critical threshold", 85, model.StageInitialContact, 0.9, true},
		{"escalation stage regardless of score", 10, model.StageEscalationRisk, 0.2, true},
		{"isolation with confidence", 30, model.StageIsolationAttempts, 0.6, true},
		{"isolation without confidence", 30, model.StageIsolationAttempts, 0.4, false},
	}

	s, err := NewRiskSynthesizer()
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cases {
		if got := s.requiresHumanReview(c.score, c.stage, c.confidence); got != c.want {
			t.Errorf("%s: requiresHumanReview = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestWithReviewThresholds(t *testing.T) {
	s, err := NewRiskSynthesizer(WithReviewThresholds(50, 70))
	if err != nil {
		t.Fatal(err)
	}

	if !s.requiresHumanReview(55, model.StageTrustBuilding, 0.9) {
		t.Error("Score 55 should trigger review at a lowered threshold of 50")
	}
	if s.requiresHumanReview(45, model.StageTrustBuilding, 0.9) {
		t.Error("Score 45 should not trigger review at threshold 50")
	}

	if _, err := NewRiskSynthesizer(WithReviewThresholds(80, 60)); err == nil {
		t.Error("Out-of-order thresholds should be rejected")
	}
	if _, err := NewRiskSynthesizer(WithReviewThresholds(-1, 60)); err == nil {
		t.Error("Negative review threshold should be rejected")
	}
}

func TestRiskLevelForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  model.RiskLevel
	}{
		{0, model.LevelMinimal},
		{20, model.LevelMinimal},
		{21, model.LevelLow},
		{40, model.LevelLow},
		{41, model.LevelModerate},
		{60, model.LevelModerate},
		{61, model.LevelHigh},
		{80, model.LevelHigh},
		{81, model.LevelCritical},
		{100, model.LevelCritical},
	}
	for _, c := range cases {
		if got := model.RiskLevelForScore(c.score); got != c.want {
			t.Errorf("RiskLevelForScore(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestContributions_SortedDescending(t *testing.T) {
	s, err := NewRiskSynthesizer()
	if err != nil {
		t.Fatal(err)
	}

	f := featureVector(map[string]float64{
		"emotional": 0.9,
		"isolation": 0.5,
		"tone":      1.0,
	})
	conv := conversation(adultMsg(0, "a"), adultMsg(time.Hour, "b"))
	assessment := s.Synthesize(conv, f, model.StageEmotionalDependency, 0.8)

	contributions := assessment.FeatureContributions
	if len(contributions) != 8 {
		t.Fatalf("contributions = %d entries, want 8", len(contributions))
	}
	for i := 1; i < len(contributions); i++ {
		if contributions[i].ContributionWeight > contributions[i-1].ContributionWeight {
			t.Fatal("Contributions must be sorted by weight descending")
		}
	}
	if contributions[0].FeatureName != "emotional_dependency_indicators" {
		t.Errorf("top contributor = %s, want emotional_dependency_indicators", contributions[0].FeatureName)
	}
}

func TestReasoningSummary(t *testing.T) {
	s, err := NewRiskSynthesizer()
	if err != nil {
		t.Fatal(err)
	}

	f := featureVector(map[string]float64{"emotional": 0.9, "isolation": 0.8, "secrecy": 0.7})
	conv := conversation(adultMsg(0, "a"), adultMsg(time.Hour, "b"), minorMsg(2*time.Hour, "c"))
	assessment := s.Synthesize(conv, f, model.StageIsolationAttempts, 0.8)

	summary := assessment.ReasoningSummary
	for _, want := range []string{"Risk Score:", "Classification: Isolation Attempts", "Message Count: 3", "Primary Risk Factors:", "Emotional dependency patterns"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Reasoning summary missing %q:\n%s", want, summary)
		}
	}
}
