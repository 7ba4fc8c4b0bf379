package store

import (
	"context"
	"sort"
	"sync"

	"github.com/arunshreyas/Marketa-server/internal/model"
)

// MemoryStore is a process-local Store used for tests and local development.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*model.User
	brands        map[string]*model.Brand
	campaigns     map[string]*model.Campaign
	conversations map[string]*model.Conversation
	messages      map[string]*model.Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*model.User),
		brands:        make(map[string]*model.Brand),
		campaigns:     make(map[string]*model.Campaign),
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string]*model.Message),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *MemoryStore) CreateBrand(ctx context.Context, brand *model.Brand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := *brand
	s.brands[brand.ID] = &b
	return nil
}

func (s *MemoryStore) GetBrand(ctx context.Context, id string) (*model.Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.brands[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *b
	return &out, nil
}

func (s *MemoryStore) GetBrandByUser(ctx context.Context, userID string) (*model.Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.brands {
		if b.UserID == userID {
			out := *b
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateBrand(ctx context.Context, brand *model.Brand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.brands[brand.ID]; !ok {
		return ErrNotFound
	}
	b := *brand
	s.brands[brand.ID] = &b
	return nil
}

func (s *MemoryStore) DeleteBrand(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.brands[id]; !ok {
		return ErrNotFound
	}
	delete(s.brands, id)
	return nil
}

func (s *MemoryStore) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *campaign
	s.campaigns[campaign.ID] = &c
	return nil
}

func (s *MemoryStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) ListCampaignsByUser(ctx context.Context, userID string) ([]model.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Campaign
	for _, c := range s.campaigns {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateCampaign(ctx context.Context, campaign *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[campaign.ID]; !ok {
		return ErrNotFound
	}
	c := *campaign
	s.campaigns[campaign.ID] = &c
	return nil
}

func (s *MemoryStore) DeleteCampaign(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[id]; !ok {
		return ErrNotFound
	}
	delete(s.campaigns, id)
	return nil
}

func (s *MemoryStore) UpdateCampaignAggregates(ctx context.Context, id string, last *model.LastMessage, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return ErrNotFound
	}
	if last != nil {
		l := *last
		c.LastMessage = &l
		c.UpdatedAt = last.Timestamp
	}
	c.MessageCount += delta
	if c.MessageCount < 0 {
		c.MessageCount = 0
	}
	return nil
}

func (s *MemoryStore) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *conv
	s.conversations[conv.ID] = &c
	return nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) ListConversationsByUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Conversation
	for _, c := range s.conversations {
		if c.UserID == userID && c.Status != model.StatusDeleted {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateConversation(ctx context.Context, conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conv.ID]; !ok {
		return ErrNotFound
	}
	c := *conv
	s.conversations[conv.ID] = &c
	return nil
}

func (s *MemoryStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(s.conversations, id)
	return nil
}

func (s *MemoryStore) UpdateConversationAggregates(ctx context.Context, id string, last *model.LastMessage, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	if last != nil {
		l := *last
		c.LastMessage = &l
		c.UpdatedAt = last.Timestamp
	}
	c.MessageCount += delta
	if c.MessageCount < 0 {
		c.MessageCount = 0
	}
	return nil
}

func (s *MemoryStore) SetConversationAggregates(ctx context.Context, id string, last *model.LastMessage, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	if last != nil {
		l := *last
		c.LastMessage = &l
	} else {
		c.LastMessage = nil
	}
	if count < 0 {
		count = 0
	}
	c.MessageCount = count
	return nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := *msg
	s.messages[msg.ID] = &m
	return nil
}

func (s *MemoryStore) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *m
	return &out, nil
}

func (s *MemoryStore) ListMessagesByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) DeleteMessagesByConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.messages {
		if m.ConversationID == conversationID {
			delete(s.messages, id)
		}
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
