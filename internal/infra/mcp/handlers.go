package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"rag-chat/internal/domain/dto"
	Iservices "rag-chat/internal/domain/interfaces/services"
	"rag-chat/internal/infra/logger"
	"rag-chat/internal/infra/services"

	"github.com/mark3labs/mcp-go/mcp"
)

const defaultTopK = 3

type Handlers struct {
	orchestrator Iservices.IChatOrchestrator
	retriever    Iservices.IContextRetriever
	transcripts  Iservices.ITranscriptReader
	log          *logger.Logger
}

func NewHandlers(orchestrator Iservices.IChatOrchestrator, retriever Iservices.IContextRetriever, transcripts Iservices.ITranscriptReader, log *logger.Logger) *Handlers {
	return &Handlers{orchestrator: orchestrator, retriever: retriever, transcripts: transcripts, log: log}
}

// Chat handles the chat tool. The result text is the ChatResponse as JSON.
func (h *Handlers) Chat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}

	response, err := h.orchestrator.Chat(ctx, dto.ChatRequest{
		UserID:  request.GetString("user_id", ""),
		Message: message,
	})
	if err != nil {
		h.log.Warn(fmt.Sprintf("chat tool failed: %v", err))
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}
	return jsonResult(response)
}

func (h *Handlers) RetrieveContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	topK := request.GetInt("top_k", defaultTopK)
	if topK <= 0 {
		return mcp.NewToolResultError("top_k must be a positive number"), nil
	}

	chunks, err := h.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		h.log.Warn(fmt.Sprintf("retrieve_context tool failed: %v", err))
		return mcp.NewToolResultError(fmt.Sprintf("retrieval failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"query": query, "chunks": chunks})
}

func (h *Handlers) History(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", services.AnonymousUserID)

	turns, err := h.transcripts.History(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history lookup failed: %v", err)), nil
	}
	return jsonResult(dto.HistoryResponse{UserID: userID, Turns: turns})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
