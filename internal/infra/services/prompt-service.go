package services

import "strings"

// SystemPrompt is the fixed directive sent ahead of every conversation.
const SystemPrompt = "You are a helpful AI assistant. You DO have access to the previous messages in the conversation " +
	"because they are included in the chat history. If the user asks about previous questions, use the chat history provided."

const noContextMarker = "No context."

type PromptComposer struct{}

func NewPromptComposer() *PromptComposer {
	return &PromptComposer{}
}

// Compose wraps the user message with the retrieved chunks as a bulleted list.
func (PromptComposer) Compose(userMessage string, contextChunks []string) string {
	contextStr := noContextMarker
	if len(contextChunks) > 0 {
		bullets := make([]string, len(contextChunks))
		for i, chunk := range contextChunks {
			bullets[i] = "- " + chunk
		}
		contextStr = strings.Join(bullets, "\n\n")
	}

	var b strings.Builder
	b.WriteString("You are an AI assistant that uses the provided context to answer questions.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(contextStr)
	b.WriteString("\n\nWhen answering, be concise but clear. If the context is not sufficient, say so explicitly.\n\n")
	b.WriteString("User question: ")
	b.WriteString(userMessage)
	return b.String()
}
