// Package core implements the GroomSafe scoring pipeline: behavioral feature
// extraction, progression stage classification, risk synthesis, and
// explanation building. The pipeline is deterministic; identical input always
// produces identical output.
package core

import (
	"math"
	"time"

	"github.com/CyberSecurityUP/GroomSafe/pkg/lexicon"
	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

// Normal messaging hours. Messages outside [NormalHourStart, NormalHourEnd)
// count as irregular; late night hours (23:00-06:00) count as highly
// irregular as well.
const (
	NormalHourStart = 9
	NormalHourEnd   = 21
)

// Keyword match divisor factors. A category score is
// matches / max(adultCount * factor, 1), clipped to [0, 1]. Lower factors
// make a category more sensitive.
const (
	emotionalMatchFactor = 0.3
	isolationMatchFactor = 0.2
	secrecyMatchFactor   = 0.15
	migrationMatchFactor = 0.15
)

// FeatureExtractor derives the eight behavioral signals from a conversation.
// It inspects timing, sender roles, message lengths, and fixed phrase
// matches only.
type FeatureExtractor struct {
	phrases *lexicon.Registry
}

// ExtractorOption is a functional option for configuring FeatureExtractor.
type ExtractorOption func(*FeatureExtractor)

// WithLexicon overrides the phrase registry used for keyword categories.
func WithLexicon(r *lexicon.Registry) ExtractorOption {
	return func(e *FeatureExtractor) {
		e.phrases = r
	}
}

// NewFeatureExtractor creates an extractor backed by the global phrase
// registry unless overridden.
func NewFeatureExtractor(opts ...ExtractorOption) *FeatureExtractor {
	e := &FeatureExtractor{
		phrases: lexicon.Get(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract computes all eight behavioral features. Conversations with fewer
// than two messages return an all-zero vector; there is not enough signal
// for any temporal or relational measurement.
func (e *FeatureExtractor) Extract(conv *model.Conversation) *model.BehavioralFeatures {
	features := &model.BehavioralFeatures{
		ConversationID:      conv.ConversationID,
		ExtractionTimestamp: time.Now().UTC(),
		FeatureVersion:      model.FeatureVersion,
	}

	if len(conv.Messages) < 2 {
		return features
	}

	messages := conv.SortedMessages()
	adult := conv.AdultMessages()

	features.ContactFrequencyScore = e.contactFrequency(adult)
	features.PersistenceAfterNonResponse = e.persistence(messages)
	features.TimeOfDayIrregularity = e.timeIrregularity(adult)
	features.EmotionalDependencyIndicators = e.keywordScore(adult, lexicon.CategoryEmotionalDependency, emotionalMatchFactor)
	features.IsolationPressure = e.keywordScore(adult, lexicon.CategoryIsolation, isolationMatchFactor)
	features.SecrecyPressure = e.keywordScore(adult, lexicon.CategorySecrecy, secrecyMatchFactor)
	features.PlatformMigrationAttempts = e.keywordScore(adult, lexicon.CategoryPlatformMigration, migrationMatchFactor)
	features.ToneShiftScore = e.toneShift(adult)

	return features
}

// contactFrequency measures escalation in adult messaging density between
// the first and second halves of the adult timeline.
func (e *FeatureExtractor) contactFrequency(adult []model.Message) float64 {
	if len(adult) < 3 {
		return 0.0
	}

	midpoint := len(adult) / 2
	firstHalf := adult[:midpoint]
	secondHalf := adult[midpoint:]

	firstDuration := firstHalf[len(firstHalf)-1].Timestamp.Sub(firstHalf[0].Timestamp).Hours()
	secondDuration := secondHalf[len(secondHalf)-1].Timestamp.Sub(secondHalf[0].Timestamp).Hours()

	// Near-instant halves give meaningless densities
	if firstDuration < 0.1 || secondDuration < 0.1 {
		return 0.0
	}

	firstDensity := float64(len(firstHalf)) / math.Max(firstDuration, 0.1)
	secondDensity := float64(len(secondHalf)) / math.Max(secondDuration, 0.1)

	var escalation float64
	if firstDensity < 0.01 {
		if secondDensity > 0.1 {
			escalation = 1.0
		} else {
			escalation = 0.0
		}
	} else {
		escalation = math.Min(secondDensity/firstDensity, 3.0) / 3.0
	}

	return clip01(escalation)
}

// persistence measures runs of consecutive adult messages broken only by
// minor responses. Unknown-role messages do not break a run.
func (e *FeatureExtractor) persistence(messages []model.Message) float64 {
	if len(messages) < 3 {
		return 0.0
	}

	var runs []int
	current := 0
	for _, m := range messages {
		switch m.SenderRole {
		case model.RoleAdult:
			current++
		case model.RoleMinor:
			if current > 0 {
				runs = append(runs, current)
			}
			current = 0
		}
	}
	if current > 0 {
		runs = append(runs, current)
	}

	if len(runs) == 0 {
		return 0.0
	}

	maxRun := 0
	sum := 0
	for _, r := range runs {
		if r > maxRun {
			maxRun = r
		}
		sum += r
	}
	avgRun := float64(sum) / float64(len(runs))

	// Runs of 5+ consecutive messages indicate high persistence
	score := (float64(maxRun)*0.5 + avgRun*0.5) / 5.0
	return clip01(score)
}

// timeIrregularity weights off-hours adult messaging, with late night hours
// counted twice (once as irregular, once as highly irregular).
func (e *FeatureExtractor) timeIrregularity(adult []model.Message) float64 {
	if len(adult) == 0 {
		return 0.0
	}

	irregular := 0
	highlyIrregular := 0
	for _, m := range adult {
		hour := m.Timestamp.Hour()
		if hour >= 23 || hour < 6 {
			highlyIrregular++
			irregular++
		} else if hour < NormalHourStart || hour >= NormalHourEnd {
			irregular++
		}
	}

	irregularRatio := float64(irregular) / float64(len(adult))
	highlyIrregularRatio := float64(highlyIrregular) / float64(len(adult))

	return clip01(irregularRatio*0.5 + highlyIrregularRatio*0.5)
}

// keywordScore counts adult messages containing at least one phrase from
// the category, once per message, normalized by the category's divisor
// factor.
func (e *FeatureExtractor) keywordScore(adult []model.Message, cat lexicon.Category, factor float64) float64 {
	if len(adult) == 0 {
		return 0.0
	}

	matches := 0
	for _, m := range adult {
		if e.phrases.Matches(m.AbstractedText, cat) {
			matches++
		}
	}

	score := float64(matches) / math.Max(float64(len(adult))*factor, 1.0)
	return clip01(score)
}

// toneShift compares average adult message length between the early and
// late halves of the conversation. A 50% length change saturates the score.
func (e *FeatureExtractor) toneShift(adult []model.Message) float64 {
	if len(adult) < 4 {
		return 0.0
	}

	midpoint := len(adult) / 2
	earlyAvg := avgLength(adult[:midpoint])
	lateAvg := avgLength(adult[midpoint:])

	if earlyAvg <= 0 {
		return 0.0
	}

	lengthShift := math.Abs(lateAvg-earlyAvg) / earlyAvg
	return clip01(lengthShift / 0.5)
}

func avgLength(messages []model.Message) float64 {
	if len(messages) == 0 {
		return 0.0
	}
	total := 0
	for _, m := range messages {
		total += len(m.AbstractedText)
	}
	return float64(total) / float64(len(messages))
}
