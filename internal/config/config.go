package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"rag-chat/internal/domain/apperrors"

	"github.com/joho/godotenv"
)

const (
	VectorStoreQdrant = "qdrant"
	VectorStoreMemory = "memory"

	ConversationStoreMemory = "memory"
	ConversationStoreMongo  = "mongo"
)

// Settings is the process configuration, read once at startup.
type Settings struct {
	OpenAIAPIKey      string
	OpenAIModel       string
	EmbeddingModel    string
	OpenAIBaseURL     string
	Temperature       float32
	ProviderTimeout   time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	Port              string
	LogLevel          string
	LogJSON           bool
	VectorStore       string
	QdrantURL         string
	QdrantAPIKey      string
	CollectionName    string
	CorpusPath        string
	ConversationStore string
	MongoURI          string
	MongoDatabase     string
	TopK              int
	MaxHistory        int
}

// LoadEnv loads a .env file into the process environment when one exists.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	return godotenv.Load(filenames...)
}

// Load reads Settings from the environment. A missing OPENAI_API_KEY is an
// apperrors.ErrConfiguration and the process must not start.
func Load() (*Settings, error) {
	s := &Settings{
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o"),
		EmbeddingModel:    getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		Temperature:       float32(getEnvFloat("OPENAI_TEMPERATURE", 0.2)),
		ProviderTimeout:   getEnvDuration("OPENAI_TIMEOUT", 60*time.Second),
		MaxRetries:        getEnvInt("OPENAI_MAX_RETRIES", 2),
		RetryDelay:        getEnvDuration("OPENAI_RETRY_DELAY", 500*time.Millisecond),
		Port:              getEnv("PORT", "8000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogJSON:           !strings.EqualFold(os.Getenv("LOG_FORMAT"), "text"),
		VectorStore:       strings.ToLower(getEnv("VECTOR_STORE", VectorStoreQdrant)),
		QdrantURL:         strings.TrimRight(getEnv("QDRANT_URL", "http://qdrant:6333"), "/"),
		QdrantAPIKey:      os.Getenv("QDRANT_API_KEY"),
		CollectionName:    getEnv("COLLECTION_NAME", "demo_docs"),
		CorpusPath:        os.Getenv("CORPUS_PATH"),
		ConversationStore: strings.ToLower(getEnv("CONVERSATION_STORE", ConversationStoreMemory)),
		MongoURI:          os.Getenv("MONGODB_URI"),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "ragchat"),
		TopK:              getEnvInt("RETRIEVAL_TOP_K", 3),
		MaxHistory:        getEnvInt("MAX_HISTORY_MESSAGES", 10),
	}

	if s.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set in environment or .env file", apperrors.ErrConfiguration)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if s.TopK < 1 {
		return fmt.Errorf("%w: RETRIEVAL_TOP_K must be at least 1, got %d", apperrors.ErrConfiguration, s.TopK)
	}
	if s.MaxHistory < 0 {
		return fmt.Errorf("%w: MAX_HISTORY_MESSAGES must not be negative, got %d", apperrors.ErrConfiguration, s.MaxHistory)
	}
	if s.MaxRetries < 0 || s.MaxRetries > 10 {
		return fmt.Errorf("%w: OPENAI_MAX_RETRIES must be 0-10, got %d", apperrors.ErrConfiguration, s.MaxRetries)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("%w: OPENAI_TEMPERATURE must be 0-2, got %v", apperrors.ErrConfiguration, s.Temperature)
	}

	switch s.VectorStore {
	case VectorStoreQdrant, VectorStoreMemory:
	default:
		return fmt.Errorf("%w: unknown VECTOR_STORE %q", apperrors.ErrConfiguration, s.VectorStore)
	}

	switch s.ConversationStore {
	case ConversationStoreMemory:
	case ConversationStoreMongo:
		if s.MongoURI == "" {
			return fmt.Errorf("%w: MONGODB_URI is required when CONVERSATION_STORE=mongo", apperrors.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown CONVERSATION_STORE %q", apperrors.ErrConfiguration, s.ConversationStore)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
