package shield

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

func testConversation() *model.Conversation {
	base := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	texts := []string{
		"I understand you in a way nobody else can",
		"Thanks",
		"This is just between us, our secret",
		"Let's move to WhatsApp, more private there",
		"Are you still there? Miss talking to you",
	}
	roles := []model.SenderRole{
		model.RoleAdult, model.RoleMinor, model.RoleAdult, model.RoleAdult, model.RoleAdult,
	}

	messages := make([]model.Message, len(texts))
	for i := range texts {
		messages[i] = model.Message{
			MessageID:      uuid.New(),
			Timestamp:      base.Add(time.Duration(i) * time.Hour),
			SenderRole:     roles[i],
			AbstractedText: texts[i],
		}
	}
	return &model.Conversation{
		ConversationID: uuid.New(),
		Messages:       messages,
		StartTime:      messages[0].Timestamp,
		EndTime:        messages[len(messages)-1].Timestamp,
		PlatformType:   "social_media",
		IsSynthetic:    true,
	}
}

func testFeatures() *model.BehavioralFeatures {
	return &model.BehavioralFeatures{
		EmotionalDependencyIndicators: 0.8,
		IsolationPressure:             0.7,
		SecrecyPressure:               0.7,
		PlatformMigrationAttempts:     0.7,
		TimeOfDayIrregularity:         0.7,
	}
}

func testAssessment(conv *model.Conversation) *model.RiskAssessment {
	return &model.RiskAssessment{
		AssessmentID:        uuid.New(),
		ConversationID:      conv.ConversationID,
		GroomingRiskScore:   78,
		ConfidenceLevel:     0.7,
		RiskLevel:           model.LevelHigh,
		CurrentStage:        model.StageIsolationAttempts,
		StageConfidence:     0.8,
		AssessmentTimestamp: time.Now().UTC(),
		ModelVersion:        model.ModelVersion,
		RequiresHumanReview: true,
	}
}

func TestBuildSummary_NoRawContent(t *testing.T) {
	s := NewSummarizer()
	conv := testConversation()
	summary := s.BuildSummary(conv, testAssessment(conv), testFeatures(), ExposureDetailed)

	data, err := json.Marshal(summary)
	if err != nil {
		t.Fatal(err)
	}
	serialized := string(data)

	// No message text may ever appear in an analyst summary
	for _, m := range conv.Messages {
		if strings.Contains(serialized, m.AbstractedText) {
			t.Fatalf("Summary leaks message content: %q", m.AbstractedText)
		}
	}
	if !summary.AnalystSafetyCertified {
		t.Error("Summary should be marked analyst-safety certified")
	}
}

func TestBuildSummary_Indicators(t *testing.T) {
	s := NewSummarizer()
	conv := testConversation()
	summary := s.BuildSummary(conv, testAssessment(conv), testFeatures(), ExposureModerate)

	joined := strings.Join(summary.KeyRiskIndicators, " | ")
	for _, want := range []string{
		"Emotional manipulation indicators",
		"Isolation attempt signals",
		"Secrecy or privacy pressure",
		"Platform migration attempts",
		"Isolation attempt phase detected",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("Indicators missing %q: %s", want, joined)
		}
	}
}

func TestBuildSummary_BenignIndicators(t *testing.T) {
	s := NewSummarizer()
	conv := testConversation()

	assessment := testAssessment(conv)
	assessment.CurrentStage = model.StageInitialContact
	assessment.GroomingRiskScore = 5
	assessment.RiskLevel = model.LevelMinimal

	summary := s.BuildSummary(conv, assessment, &model.BehavioralFeatures{}, ExposureMinimal)
	if len(summary.KeyRiskIndicators) != 1 || summary.KeyRiskIndicators[0] != "No significant risk indicators" {
		t.Errorf("Benign indicators = %v", summary.KeyRiskIndicators)
	}
	if summary.BehavioralCluster != "Low Risk Behavioral Pattern" {
		t.Errorf("Cluster = %q, want low risk pattern", summary.BehavioralCluster)
	}
}

func TestBuildSummary_UnknownLevelFallsBackToMinimal(t *testing.T) {
	s := NewSummarizer()
	conv := testConversation()

	summary := s.BuildSummary(conv, testAssessment(conv), testFeatures(), "verbose")
	if summary.ExposureLevel != ExposureMinimal {
		t.Errorf("ExposureLevel = %q, want minimal fallback", summary.ExposureLevel)
	}
}

func TestBehavioralCluster_Tiers(t *testing.T) {
	s := NewSummarizer()

	moderate := &model.BehavioralFeatures{SecrecyPressure: 0.5}
	if got := s.behavioralCluster(moderate); got != "Moderate Risk: Secrecy Pressure" {
		t.Errorf("cluster = %q", got)
	}

	high := &model.BehavioralFeatures{EmotionalDependencyIndicators: 0.9}
	if got := s.behavioralCluster(high); got != "High Risk: Emotional Manipulation" {
		t.Errorf("cluster = %q", got)
	}
}

func TestTimelineEvents_MigrationMarkerDetailedOnly(t *testing.T) {
	s := NewSummarizer()
	conv := testConversation()
	assessment := testAssessment(conv)
	features := testFeatures()

	hasMigration := func(events []model.TimelineEvent) bool {
		for _, e := range events {
			if e.EventType == "platform_migration" {
				return true
			}
		}
		return false
	}

	detailed := s.BuildSummary(conv, assessment, features, ExposureDetailed)
	if !hasMigration(detailed.TimelineEvents) {
		t.Error("Detailed summary should carry the migration marker")
	}

	minimal := s.BuildSummary(conv, assessment, features, ExposureMinimal)
	if hasMigration(minimal.TimelineEvents) {
		t.Error("Minimal summary must not carry the migration marker")
	}
}

func TestTimelineEvents_MidpointRiskDiscount(t *testing.T) {
	s := NewSummarizer()
	conv := testConversation()
	assessment := testAssessment(conv)

	summary := s.BuildSummary(conv, assessment, testFeatures(), ExposureMinimal)

	var midpoint *model.TimelineEvent
	for i := range summary.TimelineEvents {
		if summary.TimelineEvents[i].EventType == "behavioral_shift" {
			midpoint = &summary.TimelineEvents[i]
		}
	}
	if midpoint == nil {
		t.Fatal("Expected a midpoint event for a 5-message conversation")
	}
	// 78 * 0.6 = 46.8 -> moderate
	if midpoint.RiskLevel != model.LevelModerate {
		t.Errorf("Midpoint level = %s, want moderate", midpoint.RiskLevel)
	}
}

func TestBuildVisualization(t *testing.T) {
	s := NewSummarizer()
	conv := testConversation()
	assessment := testAssessment(conv)

	viz := s.BuildVisualization(conv, testFeatures(), assessment)

	if viz.RiskScoreGauge.Score != 78 || viz.RiskScoreGauge.Level != model.LevelHigh {
		t.Errorf("Gauge = %+v", viz.RiskScoreGauge)
	}
	if len(viz.FeatureRadar) != 8 {
		t.Errorf("Radar has %d entries, want 8", len(viz.FeatureRadar))
	}
	if len(viz.TemporalHeatmap.MessageCounts) != 24 {
		t.Errorf("Heatmap has %d buckets, want 24", len(viz.TemporalHeatmap.MessageCounts))
	}
	// Adult messages land at 23:00, 01:00, 02:00, 03:00; one message per hour
	if viz.TemporalHeatmap.MessageCounts[23] != 1 {
		t.Errorf("Heatmap[23] = %d, want 1", viz.TemporalHeatmap.MessageCounts[23])
	}
	if viz.StageProgression.CurrentStage != model.StageIsolationAttempts {
		t.Errorf("StageProgression = %+v", viz.StageProgression)
	}
}

func TestTemporalSummary_Intensity(t *testing.T) {
	s := NewSummarizer()

	// 5 messages in 4 hours: 1.25 msg/hr -> low intensity, high irregularity
	conv := testConversation()
	got := s.temporalSummary(conv, testFeatures())
	if !strings.HasPrefix(got, "Low messaging intensity") {
		t.Errorf("temporalSummary = %q, want low intensity prefix", got)
	}
	if !strings.Contains(got, "with significant off-hours activity") {
		t.Errorf("temporalSummary = %q, want off-hours note", got)
	}
}
