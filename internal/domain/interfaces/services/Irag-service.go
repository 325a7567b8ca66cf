package Iservices

import (
	"context"

	"rag-chat/internal/domain/dto"
	"rag-chat/internal/domain/entities"
)

type IContextRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

type IPromptComposer interface {
	Compose(userMessage string, contextChunks []string) string
}

// IChatOrchestrator runs one retrieval augmented chat turn for a user.
type IChatOrchestrator interface {
	Chat(ctx context.Context, request dto.ChatRequest) (dto.ChatResponse, error)
}

// ITranscriptReader exposes a user's recorded conversation.
type ITranscriptReader interface {
	History(ctx context.Context, userID string) ([]entities.ChatTurn, error)
}
