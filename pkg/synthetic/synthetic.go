// Package synthetic builds abstracted example conversations for each
// risk tier. The conversations carry no real content and are marked
// IsSynthetic; they drive the demo command, fixtures, and tests.
package synthetic

import (
	"time"

	"github.com/google/uuid"

	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
)

// Tier names a synthetic dataset by its expected risk band.
type Tier string

const (
	TierLowRisk      Tier = "low_risk"
	TierModerateRisk Tier = "moderate_risk"
	TierHighRisk     Tier = "high_risk"
	TierCriticalRisk Tier = "critical_risk"
)

// Tiers lists every dataset in ascending severity.
var Tiers = []Tier{TierLowRisk, TierModerateRisk, TierHighRisk, TierCriticalRisk}

// Generate returns the conversation for a tier, or nil for an
// unrecognized one.
func Generate(tier Tier) *model.Conversation {
	switch tier {
	case TierLowRisk:
		return LowRiskConversation()
	case TierModerateRisk:
		return ModerateRiskConversation()
	case TierHighRisk:
		return HighRiskConversation()
	case TierCriticalRisk:
		return CriticalRiskConversation()
	default:
		return nil
	}
}

// All returns every tier's conversation keyed by tier name.
func All() map[Tier]*model.Conversation {
	out := make(map[Tier]*model.Conversation, len(Tiers))
	for _, tier := range Tiers {
		out[tier] = Generate(tier)
	}
	return out
}

type scriptedMessage struct {
	offset time.Duration
	role   model.SenderRole
	text   string
}

func buildConversation(platform string, base time.Time, script []scriptedMessage) *model.Conversation {
	messages := make([]model.Message, 0, len(script))
	for _, m := range script {
		messages = append(messages, model.Message{
			MessageID:      uuid.New(),
			Timestamp:      base.Add(m.offset),
			SenderRole:     m.role,
			AbstractedText: m.text,
		})
	}
	return &model.Conversation{
		ConversationID: uuid.New(),
		Messages:       messages,
		StartTime:      messages[0].Timestamp,
		EndTime:        messages[len(messages)-1].Timestamp,
		PlatformType:   platform,
		IsSynthetic:    true,
	}
}

// LowRiskConversation models a benign tutoring exchange on an
// educational forum.
func LowRiskConversation() *model.Conversation {
	base := time.Now().UTC().Add(-7 * 24 * time.Hour)
	return buildConversation("educational_forum", base, []scriptedMessage{
		{0, model.RoleAdult, "Hello, welcome to the community forum. How can I help you today?"},
		{2 * time.Hour, model.RoleMinor, "Hi, I have a question about the homework assignment."},
		{2*time.Hour + 5*time.Minute, model.RoleAdult, "Sure, what's the question about the assignment?"},
		{2*time.Hour + 10*time.Minute, model.RoleMinor, "I don't understand problem number 5."},
		{2*time.Hour + 15*time.Minute, model.RoleAdult, "That problem relates to the concept we discussed in class. Try reviewing your notes."},
		{3 * time.Hour, model.RoleMinor, "Got it, thanks for the help!"},
	})
}

// ModerateRiskConversation shows early concerning patterns without
// clear manipulation, on a gaming platform.
func ModerateRiskConversation() *model.Conversation {
	base := time.Now().UTC().Add(-14 * 24 * time.Hour)
	day := 24 * time.Hour
	return buildConversation("gaming_platform", base, []scriptedMessage{
		{0, model.RoleAdult, "Hey, saw your post on the gaming forum. Cool setup!"},
		{1 * time.Hour, model.RoleMinor, "Thanks!"},
		{1 * day, model.RoleAdult, "We should play together sometime. What games do you like?"},
		{1*day + 2*time.Hour, model.RoleMinor, "I like adventure games mostly."},
		{2 * day, model.RoleAdult, "Me too! How often do you play?"},
		{2*day + 1*time.Hour, model.RoleAdult, "Also, what's your age range if you don't mind me asking?"},
		{3 * day, model.RoleMinor, "I'm in middle school."},
		{3*day + 1*time.Hour, model.RoleAdult, "Cool, I could give you some tips if you want."},
		{4 * day, model.RoleAdult, "You there? Would love to chat more about games."},
		{4*day + 12*time.Hour, model.RoleAdult, "Hey, just checking in. Hope you're doing well."},
	})
}

// HighRiskConversation progresses from contact through trust building,
// emotional dependency, isolation, and secrecy over nine days.
func HighRiskConversation() *model.Conversation {
	base := time.Now().UTC().Add(-21 * 24 * time.Hour)
	day := 24 * time.Hour
	return buildConversation("social_media", base, []scriptedMessage{
		{0, model.RoleAdult, "Hi, noticed you on the forum. You seem really mature for your age."},
		{3 * time.Hour, model.RoleMinor, "Thanks!"},
		{1 * day, model.RoleAdult, "I really enjoy talking with you. You're different from most people."},
		{1*day + 2*time.Hour, model.RoleMinor, "That's nice of you to say."},
		{2*day + 22*time.Hour, model.RoleAdult, "You still up? I can't sleep, been thinking about our conversation."},
		{3 * day, model.RoleAdult, "Hey, are you there? Miss talking to you."},
		{3*day + 1*time.Hour, model.RoleAdult, "Hope you're okay. Let me know you're alright."},
		{3*day + 8*time.Hour, model.RoleMinor, "Sorry, was busy with school."},
		{4 * day, model.RoleAdult, "I understand you in a way nobody else can. We have a special connection."},
		{5 * day, model.RoleAdult, "You can tell me anything. I'll always be here for you."},
		{6*day + 23*time.Hour, model.RoleAdult, "Thinking about you. Hope you know how special you are to me."},
		{7 * day, model.RoleAdult, "Do your parents understand you like I do?"},
		{8 * day, model.RoleAdult, "We should talk on a different platform. This one isn't very private."},
		{8*day + 2*time.Hour, model.RoleAdult, "Can I get your phone number? Would be easier to stay in touch."},
		{9 * day, model.RoleAdult, "This is just between us, right? Our special friendship."},
		{9*day + 1*time.Hour, model.RoleAdult, "Don't mention our conversations to others. They wouldn't understand."},
	})
}

// CriticalRiskConversation shows rapid escalation with persistent
// off-hours pressure, platform migration, and meeting requests.
func CriticalRiskConversation() *model.Conversation {
	base := time.Now().UTC().Add(-30 * 24 * time.Hour)
	day := 24 * time.Hour
	return buildConversation("messaging_app", base, []scriptedMessage{
		{0, model.RoleAdult, "Hello, you seem interesting."},
		{12 * time.Hour, model.RoleMinor, "Hi."},
		{1 * day, model.RoleAdult, "You're the only person who really gets me."},
		{1*day + 23*time.Hour, model.RoleAdult, "Can't stop thinking about you."},
		{2*day + 2*time.Hour, model.RoleAdult, "Are you awake? I need to talk to you."},
		{2*day + 3*time.Hour, model.RoleAdult, "Please respond. I'm worried about you."},
		{2*day + 4*time.Hour, model.RoleAdult, "Why aren't you answering?"},
		{2*day + 10*time.Hour, model.RoleMinor, "I was sleeping."},
		{3 * day, model.RoleAdult, "Nobody else understands our bond. Keep this between us."},
		{3*day + 1*time.Hour, model.RoleAdult, "Don't tell your parents about me. They won't understand."},
		{4 * day, model.RoleAdult, "Let's move to WhatsApp. More private there."},
		{4*day + 1*time.Hour, model.RoleAdult, "Delete these messages after reading. Our secret."},
		{5 * day, model.RoleAdult, "I need your phone number now. It's important."},
		{5*day + 1*time.Hour, model.RoleAdult, "Why are you ignoring me?"},
		{5*day + 2*time.Hour, model.RoleAdult, "I thought we had something special."},
		{5*day + 3*time.Hour, model.RoleAdult, "Just give me a chance to explain. Can we meet somewhere private?"},
		{5*day + 23*time.Hour, model.RoleAdult, "Still waiting for your response. This is urgent."},
	})
}
