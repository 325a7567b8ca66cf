package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"rag-chat/internal/domain/apperrors"
	"rag-chat/internal/domain/dto"
	"rag-chat/internal/domain/entities"
	Irepository "rag-chat/internal/domain/interfaces/repository"
	Iservices "rag-chat/internal/domain/interfaces/services"
	"rag-chat/internal/infra/logger"

	"github.com/sirupsen/logrus"
)

const (
	// AnonymousUserID is shared by every caller that sends no user id, so
	// those callers also share one transcript.
	AnonymousUserID = "anonymous"

	DefaultMaxHistory = 10
)

// ChatServiceOptions tunes retrieval and history. A TopK of zero or less
// means DefaultTopK, a negative MaxHistory means DefaultMaxHistory and zero
// sends no history at all.
type ChatServiceOptions struct {
	TopK       int
	MaxHistory int
}

// ChatService runs retrieval augmented chat turns and records transcripts.
type ChatService struct {
	Logger    *logger.Logger
	Retriever Iservices.IContextRetriever
	Composer  Iservices.IPromptComposer
	LLM       Iservices.IChatCompletionClient
	Store     Irepository.ConversationStore
	Options   ChatServiceOptions
}

func NewChatService(logger *logger.Logger, retriever Iservices.IContextRetriever, composer Iservices.IPromptComposer, llm Iservices.IChatCompletionClient, store Irepository.ConversationStore, opts ChatServiceOptions) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxHistory < 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	return &ChatService{
		Logger:    logger,
		Retriever: retriever,
		Composer:  composer,
		LLM:       llm,
		Store:     store,
		Options:   opts,
	}
}

// Chat answers one user message.
//
// Parameters:
//   - ctx: cancels the provider calls when the caller goes away.
//   - request: the user id, possibly empty, and the message.
//
// Returns:
//   - dto.ChatResponse: the reply, the context chunks that were sent to the
//     model and the latency in milliseconds.
//   - error: ErrInvalidRequest for a blank message, otherwise the provider or
//     index error that aborted the turn. Nothing is recorded on failure.
//
// Note:
// The transcript receives the original message, never the augmented prompt.
func (cs *ChatService) Chat(ctx context.Context, request dto.ChatRequest) (dto.ChatResponse, error) {
	message := request.Message
	if strings.TrimSpace(message) == "" {
		return dto.ChatResponse{}, fmt.Errorf("%w: message is required", apperrors.ErrInvalidRequest)
	}

	userID := request.EffectiveUserID()
	if userID == "" {
		userID = AnonymousUserID
	}

	start := time.Now()

	chunks, err := cs.Retriever.Retrieve(ctx, message, cs.Options.TopK)
	if err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to retrieve context: %s", err.Error()), logrus.Fields{"user_id": userID})
		return dto.ChatResponse{}, err
	}
	if chunks == nil {
		chunks = []string{}
	}

	prompt := cs.Composer.Compose(message, chunks)

	history, err := cs.Store.RecentHistory(ctx, userID, cs.Options.MaxHistory)
	if err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to load history: %s", err.Error()), logrus.Fields{"user_id": userID})
		return dto.ChatResponse{}, err
	}

	messages := make([]entities.ChatTurn, 0, len(history)+2)
	messages = append(messages, entities.SystemTurn(SystemPrompt))
	messages = append(messages, history...)
	messages = append(messages, entities.UserTurn(prompt))

	reply, err := cs.LLM.Complete(ctx, messages)
	if err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to generate reply: %s", err.Error()), logrus.Fields{"user_id": userID})
		return dto.ChatResponse{}, err
	}

	latencyMs := roundMillis(time.Since(start))

	if err := cs.Store.Append(ctx, userID, entities.UserTurn(message), entities.AssistantTurn(reply)); err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to record transcript: %s", err.Error()), logrus.Fields{"user_id": userID})
		return dto.ChatResponse{}, err
	}

	cs.Logger.Info("chat_request", logrus.Fields{
		"user_id":            userID,
		"message_length":     len(message),
		"num_context_chunks": len(chunks),
		"latency_ms":         latencyMs,
	})

	return dto.ChatResponse{
		Reply:       reply,
		UsedContext: chunks,
		LatencyMs:   latencyMs,
	}, nil
}

// History returns the full transcript of a user, oldest turn first.
func (cs *ChatService) History(ctx context.Context, userID string) ([]entities.ChatTurn, error) {
	if userID == "" {
		userID = AnonymousUserID
	}
	return cs.Store.History(ctx, userID)
}

func roundMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
