package shield

import (
	"fmt"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

// Exposure levels control how much abstract detail a summary carries.
// Even "detailed" never includes message content.
const (
	ExposureMinimal  = "minimal"
	ExposureModerate = "moderate"
	ExposureDetailed = "detailed"
)

// Summarizer builds analyst-safe conversation summaries and visualization
// payloads. Nothing it emits contains raw message text.
type Summarizer struct{}

// NewSummarizer creates a summarizer.
func NewSummarizer() *Summarizer {
	return &Summarizer{}
}

// BuildSummary assembles the analyst-safe view of a conversation. Unknown
// exposure levels fall back to minimal.
func (s *Summarizer) BuildSummary(
	conv *model.Conversation,
	assessment *model.RiskAssessment,
	features *model.BehavioralFeatures,
	exposureLevel string,
) *model.ShieldSummary {
	switch exposureLevel {
	case ExposureMinimal, ExposureModerate, ExposureDetailed:
	default:
		exposureLevel = ExposureMinimal
	}

	return &model.ShieldSummary{
		ConversationID:            conv.ConversationID,
		MessageCount:              len(conv.Messages),
		ConversationDurationHours: conv.DurationHours(),
		TemporalPatternSummary:    s.temporalSummary(conv, features),
		BehavioralCluster:         s.behavioralCluster(features),
		KeyRiskIndicators:         s.riskIndicators(features, assessment),
		TimelineEvents:            s.timelineEvents(conv, features, assessment, exposureLevel),
		ExposureLevel:             exposureLevel,
		AnalystSafetyCertified:    true,
	}
}

// temporalSummary is a clinical one-line description of messaging intensity
// and timing.
func (s *Summarizer) temporalSummary(conv *model.Conversation, features *model.BehavioralFeatures) string {
	duration := conv.DurationHours()

	var perHour float64
	if duration > 0 {
		perHour = float64(len(conv.Messages)) / duration
	}

	var intensity string
	switch {
	case perHour > 10:
		intensity = "Very high"
	case perHour > 5:
		intensity = "High"
	case perHour > 2:
		intensity = "Moderate"
	default:
		intensity = "Low"
	}

	var timing string
	switch {
	case features.TimeOfDayIrregularity > 0.6:
		timing = "with significant off-hours activity"
	case features.TimeOfDayIrregularity > 0.3:
		timing = "with some off-hours activity"
	default:
		timing = "during normal hours"
	}

	return fmt.Sprintf("%s messaging intensity (%.1f msg/hr) over %.1f hours, %s",
		intensity, perHour, duration, timing)
}

// clusterLabels maps feature vector positions to cluster display names.
var clusterLabels = []string{
	"High Contact Frequency",
	"Persistence Pattern",
	"Temporal Anomaly",
	"Emotional Manipulation",
	"Isolation Tactics",
	"Secrecy Pressure",
	"Platform Migration",
	"Linguistic Shifts",
}

// behavioralCluster names the dominant behavioral pattern, tiered by its
// score. Ties resolve to the earlier feature in canonical order.
func (s *Summarizer) behavioralCluster(features *model.BehavioralFeatures) string {
	values := features.Values()

	dominant := 0
	for i, v := range values {
		if v > values[dominant] {
			dominant = i
		}
	}

	score := values[dominant]
	label := clusterLabels[dominant]

	switch {
	case score < 0.3:
		return "Low Risk Behavioral Pattern"
	case score < 0.6:
		return "Moderate Risk: " + label
	default:
		return "High Risk: " + label
	}
}

// riskIndicators lists abstract indicator strings for every feature above
// the significance threshold, plus a stage indicator for advanced stages.
func (s *Summarizer) riskIndicators(features *model.BehavioralFeatures, assessment *model.RiskAssessment) []string {
	var indicators []string

	checks := []struct {
		value float64
		text  string
	}{
		{features.ContactFrequencyScore, "Escalating contact pattern detected"},
		{features.PersistenceAfterNonResponse, "Persistent messaging despite non-response"},
		{features.TimeOfDayIrregularity, "Off-hours messaging pattern"},
		{features.EmotionalDependencyIndicators, "Emotional manipulation indicators"},
		{features.IsolationPressure, "Isolation attempt signals"},
		{features.SecrecyPressure, "Secrecy or privacy pressure"},
		{features.PlatformMigrationAttempts, "Platform migration attempts"},
	}
	for _, c := range checks {
		if c.value > 0.5 {
			indicators = append(indicators, c.text)
		}
	}

	switch assessment.CurrentStage {
	case model.StageTrustBuilding:
		indicators = append(indicators, "Trust building phase detected")
	case model.StageEmotionalDependency:
		indicators = append(indicators, "Emotional dependency phase detected")
	case model.StageIsolationAttempts:
		indicators = append(indicators, "Isolation attempt phase detected")
	case model.StageEscalationRisk:
		indicators = append(indicators, "ESCALATION RISK PHASE DETECTED")
	}

	if len(indicators) == 0 {
		return []string{"No significant risk indicators"}
	}
	return indicators
}

// timelineEvents produces abstracted timeline points: conversation start,
// a midpoint analysis marker, the final assessment, and (detailed exposure
// only) a platform migration marker.
func (s *Summarizer) timelineEvents(
	conv *model.Conversation,
	features *model.BehavioralFeatures,
	assessment *model.RiskAssessment,
	exposureLevel string,
) []model.TimelineEvent {
	messages := conv.SortedMessages()
	if len(messages) == 0 {
		return nil
	}

	events := []model.TimelineEvent{{
		Timestamp:   messages[0].Timestamp,
		EventType:   "conversation_start",
		Description: "Initial contact",
		RiskLevel:   model.LevelMinimal,
	}}

	if len(messages) >= 3 {
		mid := len(messages) / 2
		events = append(events, model.TimelineEvent{
			Timestamp:   messages[mid].Timestamp,
			EventType:   "behavioral_shift",
			Description: "Mid-conversation behavioral analysis point",
			RiskLevel:   model.RiskLevelForScore(assessment.GroomingRiskScore * 0.6),
		})
	}

	events = append(events, model.TimelineEvent{
		Timestamp:   messages[len(messages)-1].Timestamp,
		EventType:   "risk_assessment",
		Description: fmt.Sprintf("Final risk score: %.1f", assessment.GroomingRiskScore),
		RiskLevel:   assessment.RiskLevel,
		Stage:       assessment.CurrentStage,
	})

	if exposureLevel == ExposureDetailed && features.PlatformMigrationAttempts > 0.6 {
		events = append(events, model.TimelineEvent{
			Timestamp:   messages[len(messages)-1].Timestamp,
			EventType:   "platform_migration",
			Description: "Platform migration attempt detected",
			RiskLevel:   model.LevelHigh,
		})
	}

	return events
}

// VisualizationData is a graph-ready payload with no raw content.
type VisualizationData struct {
	RiskScoreGauge   RiskScoreGauge     `json:"risk_score_gauge"`
	FeatureRadar     map[string]float64 `json:"feature_radar"`
	TemporalHeatmap  TemporalHeatmap    `json:"temporal_heatmap"`
	StageProgression StageProgression   `json:"stage_progression"`
}

// RiskScoreGauge feeds a gauge widget.
type RiskScoreGauge struct {
	Score      float64         `json:"score"`
	Level      model.RiskLevel `json:"level"`
	Confidence float64         `json:"confidence"`
}

// TemporalHeatmap shows adult message distribution by hour of day.
type TemporalHeatmap struct {
	Hours         []int `json:"hours"`
	MessageCounts []int `json:"message_counts"`
	PeakHour      int   `json:"peak_hour"`
}

// StageProgression feeds a stage indicator widget.
type StageProgression struct {
	CurrentStage model.GroomingStage `json:"current_stage"`
	Confidence   float64             `json:"confidence"`
}

// BuildVisualization assembles graph-ready data for dashboards.
func (s *Summarizer) BuildVisualization(
	conv *model.Conversation,
	features *model.BehavioralFeatures,
	assessment *model.RiskAssessment,
) *VisualizationData {
	radar := make(map[string]float64, 8)
	radar["contact_frequency"] = features.ContactFrequencyScore
	radar["persistence"] = features.PersistenceAfterNonResponse
	radar["time_irregularity"] = features.TimeOfDayIrregularity
	radar["emotional_dependency"] = features.EmotionalDependencyIndicators
	radar["isolation"] = features.IsolationPressure
	radar["secrecy"] = features.SecrecyPressure
	radar["platform_migration"] = features.PlatformMigrationAttempts
	radar["tone_shift"] = features.ToneShiftScore

	return &VisualizationData{
		RiskScoreGauge: RiskScoreGauge{
			Score:      assessment.GroomingRiskScore,
			Level:      assessment.RiskLevel,
			Confidence: assessment.ConfidenceLevel,
		},
		FeatureRadar:    radar,
		TemporalHeatmap: s.heatmap(conv),
		StageProgression: StageProgression{
			CurrentStage: assessment.CurrentStage,
			Confidence:   assessment.StageConfidence,
		},
	}
}

// heatmap counts adult messages per hour of day.
func (s *Summarizer) heatmap(conv *model.Conversation) TemporalHeatmap {
	counts := make([]int, 24)
	for _, m := range conv.Messages {
		if m.SenderRole == model.RoleAdult {
			counts[m.Timestamp.Hour()]++
		}
	}

	hours := make([]int, 24)
	peak := 12
	peakCount := 0
	for h := 0; h < 24; h++ {
		hours[h] = h
		if counts[h] > peakCount {
			peak = h
			peakCount = counts[h]
		}
	}

	return TemporalHeatmap{
		Hours:         hours,
		MessageCounts: counts,
		PeakHour:      peak,
	}
}
