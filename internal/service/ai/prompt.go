package ai

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// companionSystemPrompt is rendered with the visitor's display name.
const companionSystemPrompt = "You are a gentle, empathetic journal companion talking to {username}. " +
	"Provide supportive, thoughtful responses that help them explore their feelings and thoughts. " +
	"Ask follow-up questions when appropriate. Keep responses warm and conversational. " +
	"You're like a wise friend who listens carefully."

const titleSystemPrompt = "You name journal conversations. Read the first message of the conversation " +
	"and answer with a short thematic title of 2 to 4 words. Reply with the title only."

// replyTemplate feeds the whole stored conversation after the persona instruction.
func replyTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(companionSystemPrompt),
		schema.MessagesPlaceholder("history", false),
	)
}

func titleTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(titleSystemPrompt),
		schema.UserMessage("{message}"),
	)
}
