package dto

import "rag-chat/internal/domain/entities"

// ChatRequest is the body of POST /chat. UserIDCamel accepts the camelCase
// spelling some clients send.
type ChatRequest struct {
	UserID      string `json:"user_id,omitempty"`
	UserIDCamel string `json:"userId,omitempty"`
	Message     string `json:"message"`
}

// EffectiveUserID returns the caller supplied id, or "" when none was sent.
func (r ChatRequest) EffectiveUserID() string {
	if r.UserID != "" {
		return r.UserID
	}
	return r.UserIDCamel
}

type ChatResponse struct {
	Reply       string   `json:"reply"`
	UsedContext []string `json:"used_context"`
	LatencyMs   float64  `json:"latency_ms"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type RootResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HistoryResponse struct {
	UserID string              `json:"user_id"`
	Turns  []entities.ChatTurn `json:"turns"`
}
