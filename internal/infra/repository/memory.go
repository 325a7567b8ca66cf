package repository

import (
	"context"
	"sync"

	"rag-chat/internal/domain/entities"
)

// MemoryConversationStore keeps transcripts in process memory. Each user has
// its own lock so appends for different users never contend.
type MemoryConversationStore struct {
	mu    sync.Mutex
	users map[string]*userTranscript
}

type userTranscript struct {
	mu    sync.RWMutex
	turns []entities.ChatTurn
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{users: make(map[string]*userTranscript)}
}

func (s *MemoryConversationStore) transcript(userID string, create bool) *userTranscript {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.users[userID]
	if !ok && create {
		t = &userTranscript{}
		s.users[userID] = t
	}
	return t
}

// History returns a copy of the full transcript. Unknown users get an empty
// slice.
func (s *MemoryConversationStore) History(ctx context.Context, userID string) ([]entities.ChatTurn, error) {
	return s.RecentHistory(ctx, userID, -1)
}

// RecentHistory returns a copy of the last maxTurns turns, oldest first.
// A negative maxTurns means all of them; zero means none.
func (s *MemoryConversationStore) RecentHistory(ctx context.Context, userID string, maxTurns int) ([]entities.ChatTurn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := s.transcript(userID, false)
	if t == nil || maxTurns == 0 {
		return []entities.ChatTurn{}, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	turns := t.turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	out := make([]entities.ChatTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append adds turns to the end of the user's transcript as one unit.
func (s *MemoryConversationStore) Append(ctx context.Context, userID string, turns ...entities.ChatTurn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}

	t := s.transcript(userID, true)
	t.mu.Lock()
	t.turns = append(t.turns, turns...)
	t.mu.Unlock()
	return nil
}
