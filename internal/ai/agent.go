package ai

import (
	"strings"

	"github.com/arunshreyas/Marketa-server/internal/model"
)

// DefaultAgent is the fallback persona when a campaign has no type or the
// conversation is not attached to a campaign.
const DefaultAgent = "content"

// SelectAgent maps a campaign type to the agent persona that drafts replies
// for it.
func SelectAgent(campaignType model.CampaignType) string {
	switch model.CampaignType(strings.ToLower(string(campaignType))) {
	case model.CampaignFunnel:
		return "funnel"
	case model.CampaignAds:
		return "ads"
	case model.CampaignResearch:
		return "research"
	case model.CampaignContent:
		return "content"
	default:
		return DefaultAgent
	}
}

var agentPrompts = map[string]string{
	"funnel":   "You are a marketing funnel strategist. Design conversion paths, lead magnets and nurture sequences for the user's campaign.",
	"ads":      "You are a paid advertising specialist. Write ad copy and targeting suggestions for the user's campaign.",
	"research": "You are a market research analyst. Surface audience insights, competitor angles and positioning for the user's campaign.",
	"content":  "You are a marketing content writer. Draft clear, on-brand marketing copy for the user's campaign.",
}

// AgentPrompt returns the system prompt for an agent persona.
func AgentPrompt(agent string) string {
	if p, ok := agentPrompts[agent]; ok {
		return p
	}
	return agentPrompts[DefaultAgent]
}
