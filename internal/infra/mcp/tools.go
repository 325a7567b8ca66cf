package mcp

import (
	Iservices "rag-chat/internal/domain/interfaces/services"
	"rag-chat/internal/infra/logger"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "rag-chat"
	ServerVersion = "0.1.0"
)

// NewServer builds an MCP server exposing the chat pipeline as tools.
func NewServer(orchestrator Iservices.IChatOrchestrator, retriever Iservices.IContextRetriever, transcripts Iservices.ITranscriptReader, log *logger.Logger) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(ServerName, ServerVersion)
	RegisterTools(server, NewHandlers(orchestrator, retriever, transcripts, log))
	return server
}

// RegisterTools registers chat, retrieve_context and history.
func RegisterTools(server *mcpserver.MCPServer, handlers *Handlers) {
	server.AddTool(mcp.Tool{
		Name:        "chat",
		Description: "Ask the assistant a question. The answer is grounded on the indexed documents and the user's recent conversation.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "The question or message to send",
				},
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation owner; omitted means the shared anonymous conversation",
				},
			},
			Required: []string{"message"},
		},
	}, handlers.Chat)

	server.AddTool(mcp.Tool{
		Name:        "retrieve_context",
		Description: "Return the indexed text chunks most similar to a query, most similar first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"top_k": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of chunks to return (default: 3)",
					"default":     3,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.RetrieveContext)

	server.AddTool(mcp.Tool{
		Name:        "history",
		Description: "Return the recorded conversation of a user, oldest turn first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation owner; omitted means the shared anonymous conversation",
				},
			},
		},
	}, handlers.History)
}
