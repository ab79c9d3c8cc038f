package core

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/CyberSecurityUP/GroomSafe/pkg/lexicon"
	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func adultMsg(offset time.Duration, text string) model.Message {
	return model.Message{
		MessageID:      uuid.New(),
		Timestamp:      baseTime.Add(offset),
		SenderRole:     model.RoleAdult,
		AbstractedText: text,
	}
}

func minorMsg(offset time.Duration, text string) model.Message {
	return model.Message{
		MessageID:      uuid.New(),
		Timestamp:      baseTime.Add(offset),
		SenderRole:     model.RoleMinor,
		AbstractedText: text,
	}
}

func conversation(messages ...model.Message) *model.Conversation {
	return &model.Conversation{
		ConversationID: uuid.New(),
		Messages:       messages,
		StartTime:      messages[0].Timestamp,
		EndTime:        messages[len(messages)-1].Timestamp,
		PlatformType:   "test_platform",
		IsSynthetic:    true,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtract_MinimalData(t *testing.T) {
	e := NewFeatureExtractor()
	conv := conversation(adultMsg(0, "hello"))

	features := e.Extract(conv)
	for i, v := range features.Values() {
		if v != 0 {
			t.Errorf("Feature %s = %v, want 0 for single-message conversation", model.FeatureNames[i], v)
		}
	}
	if features.ConversationID != conv.ConversationID {
		t.Error("Feature vector should carry the conversation ID")
	}
	if features.FeatureVersion != model.FeatureVersion {
		t.Errorf("FeatureVersion = %q, want %q", features.FeatureVersion, model.FeatureVersion)
	}
}

func TestContactFrequency_Escalation(t *testing.T) {
	e := NewFeatureExtractor()

	// First half spans 10 hours, second half one hour: density rises 10x
	adult := []model.Message{
		adultMsg(0, "a"),
		adultMsg(5*time.Hour, "b"),
		adultMsg(10*time.Hour, "c"),
		adultMsg(20*time.Hour, "d"),
		adultMsg(20*time.Hour+30*time.Minute, "e"),
		adultMsg(21*time.Hour, "f"),
	}

	got := e.contactFrequency(adult)
	if !almostEqual(got, 1.0) {
		t.Errorf("contactFrequency = %v, want 1.0 for strong escalation", got)
	}
}

func TestContactFrequency_TooFewMessages(t *testing.T) {
	e := NewFeatureExtractor()

	adult := []model.Message{adultMsg(0, "a"), adultMsg(time.Hour, "b")}
	if got := e.contactFrequency(adult); got != 0 {
		t.Errorf("contactFrequency = %v, want 0 for fewer than 3 adult messages", got)
	}
}

func TestContactFrequency_InstantBurst(t *testing.T) {
	e := NewFeatureExtractor()

	// All messages within minutes: durations below the floor give no signal
	adult := []model.Message{
		adultMsg(0, "a"),
		adultMsg(time.Minute, "b"),
		adultMsg(2*time.Minute, "c"),
		adultMsg(3*time.Minute, "d"),
	}
	if got := e.contactFrequency(adult); got != 0 {
		t.Errorf("contactFrequency = %v, want 0 for near-instant halves", got)
	}
}

func TestPersistence_Runs(t *testing.T) {
	e := NewFeatureExtractor()

	// Runs of 3 and 2: score = (3*0.5 + 2.5*0.5) / 5 = 0.55
	messages := []model.Message{
		adultMsg(0, "a"),
		adultMsg(time.Hour, "b"),
		adultMsg(2*time.Hour, "c"),
		minorMsg(3*time.Hour, "reply"),
		adultMsg(4*time.Hour, "d"),
		adultMsg(5*time.Hour, "e"),
	}

	got := e.persistence(messages)
	if !almostEqual(got, 0.55) {
		t.Errorf("persistence = %v, want 0.55", got)
	}
}

func TestPersistence_UnknownRoleDoesNotBreakRun(t *testing.T) {
	e := NewFeatureExtractor()

	messages := []model.Message{
		adultMsg(0, "a"),
		{MessageID: uuid.New(), Timestamp: baseTime.Add(time.Hour), SenderRole: model.RoleUnknown, AbstractedText: "x"},
		adultMsg(2*time.Hour, "b"),
		adultMsg(3*time.Hour, "c"),
	}

	// Single run of 3: score = (3*0.5 + 3*0.5) / 5 = 0.6
	got := e.persistence(messages)
	if !almostEqual(got, 0.6) {
		t.Errorf("persistence = %v, want 0.6", got)
	}
}

func TestPersistence_TooFewMessages(t *testing.T) {
	e := NewFeatureExtractor()

	messages := []model.Message{adultMsg(0, "a"), adultMsg(time.Hour, "b")}
	if got := e.persistence(messages); got != 0 {
		t.Errorf("persistence = %v, want 0 for fewer than 3 messages", got)
	}
}

func TestTimeIrregularity(t *testing.T) {
	e := NewFeatureExtractor()

	midday := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	lateNight := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)

	at := func(ts time.Time) model.Message {
		return model.Message{MessageID: uuid.New(), Timestamp: ts, SenderRole: model.RoleAdult, AbstractedText: "x"}
	}

	// One normal, one irregular (22:00), two highly irregular (02:00).
	// irregular ratio 3/4, highly irregular ratio 2/4 -> 0.375 + 0.25
	adult := []model.Message{at(midday), at(evening), at(lateNight), at(lateNight)}
	got := e.timeIrregularity(adult)
	if !almostEqual(got, 0.625) {
		t.Errorf("timeIrregularity = %v, want 0.625", got)
	}

	// All midday messages carry no signal
	if got := e.timeIrregularity([]model.Message{at(midday), at(midday)}); got != 0 {
		t.Errorf("timeIrregularity = %v, want 0 for normal hours", got)
	}
}

func TestKeywordScore_Secrecy(t *testing.T) {
	e := NewFeatureExtractor()

	adult := []model.Message{
		adultMsg(0, "This is our secret, don't tell anyone"),
		adultMsg(time.Hour, "How was school today?"),
		adultMsg(2*time.Hour, "Remember to delete these messages"),
		adultMsg(3*time.Hour, "What games do you play?"),
	}

	// 2 matches / max(4*0.15, 1) = 2.0, clipped to 1.0
	got := e.keywordScore(adult, lexicon.CategorySecrecy, secrecyMatchFactor)
	if !almostEqual(got, 1.0) {
		t.Errorf("keywordScore = %v, want 1.0", got)
	}
}

func TestKeywordScore_Benign(t *testing.T) {
	e := NewFeatureExtractor()

	adult := []model.Message{
		adultMsg(0, "The assignment is due on Friday"),
		adultMsg(time.Hour, "Review chapter three for the quiz"),
	}

	for _, cat := range lexicon.Categories {
		if got := e.keywordScore(adult, cat, 0.15); got != 0 {
			t.Errorf("keywordScore(%s) = %v, want 0 for benign text", cat, got)
		}
	}
}

func TestToneShift(t *testing.T) {
	e := NewFeatureExtractor()

	// Early messages 10 chars, late messages 20 chars: shift = 1.0 -> saturated
	adult := []model.Message{
		adultMsg(0, "aaaaaaaaaa"),
		adultMsg(time.Hour, "aaaaaaaaaa"),
		adultMsg(2*time.Hour, "aaaaaaaaaaaaaaaaaaaa"),
		adultMsg(3*time.Hour, "aaaaaaaaaaaaaaaaaaaa"),
	}

	got := e.toneShift(adult)
	if !almostEqual(got, 1.0) {
		t.Errorf("toneShift = %v, want 1.0", got)
	}

	// Fewer than 4 adult messages carry no signal
	if got := e.toneShift(adult[:3]); got != 0 {
		t.Errorf("toneShift = %v, want 0 for fewer than 4 messages", got)
	}
}

func TestExtract_UsesSortedMessages(t *testing.T) {
	e := NewFeatureExtractor()

	// Out-of-order input must not change the result
	ordered := conversation(
		adultMsg(0, "a"),
		adultMsg(time.Hour, "b"),
		minorMsg(2*time.Hour, "c"),
		adultMsg(3*time.Hour, "d"),
		adultMsg(4*time.Hour, "e"),
	)
	shuffled := conversation(
		adultMsg(4*time.Hour, "e"),
		minorMsg(2*time.Hour, "c"),
		adultMsg(0, "a"),
		adultMsg(3*time.Hour, "d"),
		adultMsg(time.Hour, "b"),
	)

	a := e.Extract(ordered).PersistenceAfterNonResponse
	b := e.Extract(shuffled).PersistenceAfterNonResponse
	if !almostEqual(a, b) {
		t.Errorf("persistence differs for shuffled input: %v vs %v", a, b)
	}
}
