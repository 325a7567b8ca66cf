package services

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"rag-chat/internal/domain/entities"
	"rag-chat/internal/infra/logger"
)

// keywordEmbedder maps text onto topic axes so similarity is predictable.
type keywordEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
	empty bool
}

var topicKeywords = [][]string{
	{"architecture", "frontend", "backend"},
	{"rag", "chunk", "retriev"},
	{"latency", "cost", "caching"},
}

func (e *keywordEmbedder) Embed(ctx context.Context, texts []string) ([]entities.Vector, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	if e.empty {
		return []entities.Vector{}, nil
	}

	out := make([]entities.Vector, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		v := make(entities.Vector, len(topicKeywords)+1)
		for axis, words := range topicKeywords {
			for _, w := range words {
				v[axis] += float32(strings.Count(lower, w))
			}
		}
		v[len(topicKeywords)] = 0.1
		out[i] = v
	}
	return out, nil
}

type recordingLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	received [][]entities.ChatTurn
}

func (l *recordingLLM) Complete(ctx context.Context, messages []entities.ChatTurn) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.received = append(l.received, append([]entities.ChatTurn(nil), messages...))
	if l.err != nil {
		return "", l.err
	}
	return l.reply, nil
}

func (l *recordingLLM) last() []entities.ChatTurn {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.received) == 0 {
		return nil
	}
	return l.received[len(l.received)-1]
}

func testLogger(buf *bytes.Buffer) *logger.Logger {
	log := logger.NewLogger(context.Background(), true, "debug")
	log.SetOutput(buf)
	return log
}
