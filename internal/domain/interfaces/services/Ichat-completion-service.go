package Iservices

import (
	"context"

	"rag-chat/internal/domain/entities"
)

// IChatCompletionClient sends an ordered message list to a hosted LLM and
// returns the reply text.
type IChatCompletionClient interface {
	Complete(ctx context.Context, messages []entities.ChatTurn) (string, error)
}
