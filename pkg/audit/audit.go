// Package audit maintains the immutable decision trail required for legal
// defensibility. Every assessment, review trigger, and intervention is
// recorded through a Store; queries and compliance reports read it back.
package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

// Actor identities recorded on system-generated entries.
const (
	ActorScoringEngine   = "groomsafe_risk_scoring_engine"
	ActorAutomatedTriage = "groomsafe_automated_triage"
	ActorSystem          = "groomsafe_system"
)

// Filter selects audit entries. Zero values match everything.
type Filter struct {
	ConversationID uuid.UUID
	AssessmentID   uuid.UUID
	ActionType     string
	StartTime      time.Time
	EndTime        time.Time
	RiskLevel      model.RiskLevel
}

// Matches reports whether an entry passes the filter.
func (f Filter) Matches(e *model.AuditEntry) bool {
	if f.ConversationID != uuid.Nil && e.ConversationID != f.ConversationID {
		return false
	}
	if f.AssessmentID != uuid.Nil && e.AssessmentID != f.AssessmentID {
		return false
	}
	if f.ActionType != "" && e.ActionType != f.ActionType {
		return false
	}
	if !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime) {
		return false
	}
	if f.RiskLevel != "" && e.RiskLevel != f.RiskLevel {
		return false
	}
	return true
}

// Store persists audit entries. Implementations must be safe for concurrent
// use and append-only; entries are never updated or deleted.
type Store interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	Query(ctx context.Context, filter Filter) ([]model.AuditEntry, error)
}

// Logger writes structured audit entries through a Store.
type Logger struct {
	store Store
}

// NewLogger creates an audit logger on top of a store.
func NewLogger(store Store) *Logger {
	return &Logger{store: store}
}

func (l *Logger) append(ctx context.Context, entry *model.AuditEntry) error {
	if entry.LogID == uuid.Nil {
		entry.LogID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return l.store.Append(ctx, entry)
}

// AssessmentCreated records a completed risk assessment.
func (l *Logger) AssessmentCreated(ctx context.Context, assessment *model.RiskAssessment) error {
	return l.append(ctx, &model.AuditEntry{
		ConversationID:    assessment.ConversationID,
		AssessmentID:      assessment.AssessmentID,
		ActionType:        "assessment_created",
		Actor:             ActorScoringEngine,
		RiskScore:         assessment.GroomingRiskScore,
		RiskLevel:         assessment.RiskLevel,
		Stage:             assessment.CurrentStage,
		DecisionRationale: assessment.ReasoningSummary,
		ModelVersion:      assessment.ModelVersion,
		Metadata: map[string]any{
			"confidence":       assessment.ConfidenceLevel,
			"stage_confidence": assessment.StageConfidence,
			"requires_review":  assessment.RequiresHumanReview,
		},
	})
}

// HumanReviewTriggered records an automated escalation to human review.
func (l *Logger) HumanReviewTriggered(ctx context.Context, conversationID, assessmentID uuid.UUID, reason string, score float64, level model.RiskLevel) error {
	return l.append(ctx, &model.AuditEntry{
		ConversationID:    conversationID,
		AssessmentID:      assessmentID,
		ActionType:        "human_review_triggered",
		Actor:             ActorAutomatedTriage,
		RiskScore:         score,
		RiskLevel:         level,
		DecisionRationale: reason,
		ModelVersion:      model.ModelVersion,
	})
}

// HumanReviewCompleted records the outcome of a human review.
func (l *Logger) HumanReviewCompleted(ctx context.Context, conversationID, assessmentID uuid.UUID, reviewerID, outcome, notes, actionTaken string) error {
	return l.append(ctx, &model.AuditEntry{
		ConversationID:    conversationID,
		AssessmentID:      assessmentID,
		ActionType:        "human_review_completed",
		Actor:             "human_reviewer_" + reviewerID,
		DecisionRationale: notes,
		ModelVersion:      "N/A",
		Metadata: map[string]any{
			"review_outcome": outcome,
			"action_taken":   actionTaken,
		},
	})
}

// InterventionAction records a safety intervention (account suspension,
// content removal, and so on).
func (l *Logger) InterventionAction(ctx context.Context, conversationID, assessmentID uuid.UUID, interventionType, details, actor string) error {
	return l.append(ctx, &model.AuditEntry{
		ConversationID:    conversationID,
		AssessmentID:      assessmentID,
		ActionType:        "intervention_" + interventionType,
		Actor:             actor,
		DecisionRationale: details,
		ModelVersion:      "N/A",
		Metadata: map[string]any{
			"intervention_type": interventionType,
		},
	})
}

// FalsePositiveReported records reviewer feedback for model improvement.
func (l *Logger) FalsePositiveReported(ctx context.Context, conversationID, assessmentID uuid.UUID, reportedBy, reason string, originalScore float64) error {
	return l.append(ctx, &model.AuditEntry{
		ConversationID:    conversationID,
		AssessmentID:      assessmentID,
		ActionType:        "false_positive_reported",
		Actor:             reportedBy,
		RiskScore:         originalScore,
		DecisionRationale: reason,
		ModelVersion:      model.ModelVersion,
		Metadata: map[string]any{
			"feedback_type": "false_positive",
		},
	})
}

// SystemEvent records a general system event not tied to any conversation.
func (l *Logger) SystemEvent(ctx context.Context, eventType, description string, metadata map[string]any) error {
	return l.append(ctx, &model.AuditEntry{
		ConversationID:    uuid.New(),
		ActionType:        "system_" + eventType,
		Actor:             ActorSystem,
		DecisionRationale: description,
		ModelVersion:      model.ModelVersion,
		Metadata:          metadata,
	})
}

// ConversationTimeline returns the chronological audit trail for a
// conversation.
func (l *Logger) ConversationTimeline(ctx context.Context, conversationID uuid.UUID) ([]model.AuditEntry, error) {
	entries, err := l.store.Query(ctx, Filter{ConversationID: conversationID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// AssessmentHistory returns every entry related to an assessment.
func (l *Logger) AssessmentHistory(ctx context.Context, assessmentID uuid.UUID) ([]model.AuditEntry, error) {
	return l.store.Query(ctx, Filter{AssessmentID: assessmentID})
}

// ComplianceReport aggregates audit activity over a date range.
type ComplianceReport struct {
	PeriodStart            time.Time      `json:"period_start"`
	PeriodEnd              time.Time      `json:"period_end"`
	TotalAssessments       int            `json:"total_assessments"`
	RiskLevelDistribution  map[string]int `json:"risk_level_distribution"`
	HumanReviewsTriggered  int            `json:"human_reviews_triggered"`
	InterventionsPerformed int            `json:"interventions_performed"`
	FalsePositivesReported int            `json:"false_positives_reported"`
	FalsePositiveRate      float64        `json:"false_positive_rate"`
	HumanReviewRate        float64        `json:"human_review_rate"`
}

// GenerateComplianceReport computes audit metrics for a date range.
func (l *Logger) GenerateComplianceReport(ctx context.Context, start, end time.Time) (*ComplianceReport, error) {
	entries, err := l.store.Query(ctx, Filter{StartTime: start, EndTime: end})
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	report := &ComplianceReport{
		PeriodStart:           start,
		PeriodEnd:             end,
		RiskLevelDistribution: make(map[string]int, len(model.RiskLevels)),
	}
	for _, level := range model.RiskLevels {
		report.RiskLevelDistribution[string(level)] = 0
	}

	for _, e := range entries {
		switch {
		case e.ActionType == "assessment_created":
			report.TotalAssessments++
			if e.RiskLevel != "" {
				report.RiskLevelDistribution[string(e.RiskLevel)]++
			}
		case e.ActionType == "human_review_triggered":
			report.HumanReviewsTriggered++
		case strings.HasPrefix(e.ActionType, "intervention_"):
			report.InterventionsPerformed++
		case e.ActionType == "false_positive_reported":
			report.FalsePositivesReported++
		}
	}

	if report.TotalAssessments > 0 {
		report.FalsePositiveRate = float64(report.FalsePositivesReported) / float64(report.TotalAssessments)
		report.HumanReviewRate = float64(report.HumanReviewsTriggered) / float64(report.TotalAssessments)
	}

	return report, nil
}
