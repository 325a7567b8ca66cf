package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"rag-chat/internal/domain/apperrors"
	"rag-chat/internal/domain/dto"
	Iservices "rag-chat/internal/domain/interfaces/services"
	"rag-chat/internal/infra/logger"

	"github.com/gorilla/mux"
)

const (
	rootMessage     = "AI RAG Backend is running"
	maxRequestBytes = 1 << 20
)

type HttpHandlers struct {
	Logger       *logger.Logger
	Orchestrator Iservices.IChatOrchestrator
	Transcripts  Iservices.ITranscriptReader
}

func NewHttpHandlers(logger *logger.Logger, orchestrator Iservices.IChatOrchestrator, transcripts Iservices.ITranscriptReader) *HttpHandlers {
	return &HttpHandlers{Logger: logger, Orchestrator: orchestrator, Transcripts: transcripts}
}

func (th *HttpHandlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.RootResponse{Message: rootMessage})
}

func (th *HttpHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// Chat handles POST /chat.
//
// The body is {"user_id": "...", "message": "..."}; "userId" is accepted as
// well and a missing id falls back to the shared anonymous transcript.
// Malformed JSON answers 400, a missing message 422 and any provider or
// index failure 500 with the raw error text in "detail".
func (th *HttpHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var request dto.ChatRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := decoder.Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Detail: fmt.Sprintf("invalid JSON body: %s", err.Error())})
		return
	}

	response, err := th.Orchestrator.Chat(r.Context(), request)
	if err != nil {
		th.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// History handles GET /chat/{userId}/history.
func (th *HttpHandlers) History(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	turns, err := th.Transcripts.History(r.Context(), userID)
	if err != nil {
		th.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryResponse{UserID: userID, Turns: turns})
}

func (th *HttpHandlers) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		th.Logger.Error(fmt.Sprintf("Request failed: %s", err.Error()))
	}
	writeJSON(w, status, dto.ErrorResponse{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
