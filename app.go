package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rag-chat/internal/config"
	"rag-chat/internal/domain/apperrors"
	Irepository "rag-chat/internal/domain/interfaces/repository"
	Iservices "rag-chat/internal/domain/interfaces/services"
	"rag-chat/internal/infra/corpus"
	"rag-chat/internal/infra/logger"
	"rag-chat/internal/infra/provider"
	"rag-chat/internal/infra/repository"
	"rag-chat/internal/infra/services"
	"rag-chat/internal/infra/vectorindex"
	client "rag-chat/internal/pkg"

	"github.com/sirupsen/logrus"
)

// app holds the wired chat pipeline shared by every subcommand.
type app struct {
	settings  *config.Settings
	log       *logger.Logger
	index     Irepository.VectorIndex
	seeder    *corpus.Seeder
	retriever *services.ContextRetriever
	chat      *services.ChatService
	closers   []func(context.Context) error
}

func newApp(ctx context.Context, settings *config.Settings, log *logger.Logger) (*app, error) {
	a := &app{settings: settings, log: log}

	openAIConfig := provider.OpenAIConfig{
		APIKey:         settings.OpenAIAPIKey,
		BaseURL:        settings.OpenAIBaseURL,
		ChatModel:      settings.OpenAIModel,
		EmbeddingModel: settings.EmbeddingModel,
		Temperature:    settings.Temperature,
		Timeout:        settings.ProviderTimeout,
	}
	embeddingClient, err := provider.NewOpenAIEmbeddingClient(openAIConfig)
	if err != nil {
		return nil, err
	}
	chatClient, err := provider.NewOpenAIChatClient(openAIConfig)
	if err != nil {
		return nil, err
	}

	var embedder Iservices.IEmbeddingClient = embeddingClient
	var llm Iservices.IChatCompletionClient = chatClient
	if settings.MaxRetries > 0 {
		retrier := provider.NewRetrier(settings.MaxRetries, settings.RetryDelay)
		retrier.OnRetry = func(attempt int, delay time.Duration, err error) {
			log.Warn(fmt.Sprintf("Provider call failed, retrying: %s", err.Error()), logrus.Fields{
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
			})
		}
		embedder = provider.NewRetryingEmbeddingClient(embeddingClient, retrier)
		llm = provider.NewRetryingChatClient(chatClient, retrier)
	}

	switch settings.VectorStore {
	case config.VectorStoreMemory:
		a.index = vectorindex.NewMemoryIndex()
	default:
		a.index = vectorindex.NewQdrantIndex(vectorindex.QdrantConfig{
			URL:    settings.QdrantURL,
			APIKey: settings.QdrantAPIKey,
		})
	}

	var store Irepository.ConversationStore
	switch settings.ConversationStore {
	case config.ConversationStoreMongo:
		mongoClient, err := client.MongoClient(ctx, settings.MongoURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mongoClient.Disconnect)

		mongoStore := repository.NewMongoConversationStore(mongoClient.Database(settings.MongoDatabase))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("create transcript indexes: %w", err)
		}
		store = mongoStore
	default:
		store = repository.NewMemoryConversationStore()
	}

	a.seeder = corpus.NewSeeder(embedder, a.index, settings.CollectionName, log)
	a.retriever = services.NewContextRetriever(embedder, a.index, settings.CollectionName, log)
	a.chat = services.NewChatService(log, a.retriever, services.NewPromptComposer(), llm, store, services.ChatServiceOptions{
		TopK:       settings.TopK,
		MaxHistory: settings.MaxHistory,
	})
	return a, nil
}

// seed rebuilds the collection from the configured corpus.
func (a *app) seed(ctx context.Context) (int, error) {
	documents, err := corpus.Load(a.settings.CorpusPath)
	if err != nil {
		return 0, err
	}
	return a.seeder.Seed(ctx, documents)
}

// ensureIndexed seeds only when the collection is missing or empty.
func (a *app) ensureIndexed(ctx context.Context) error {
	count, err := a.index.Count(ctx, a.settings.CollectionName)
	if err != nil && !errors.Is(err, apperrors.ErrCollectionNotFound) {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = a.seed(ctx)
	return err
}

func (a *app) close(ctx context.Context) {
	for _, closeFn := range a.closers {
		if err := closeFn(ctx); err != nil {
			a.log.Warn(fmt.Sprintf("Error closing resource: %s", err.Error()))
		}
	}
	a.closers = nil
}
