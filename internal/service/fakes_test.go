package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/contract"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/llm"
)

// memStore is an in-memory transcript store behind the repository contracts.
type memStore struct {
	mu        sync.Mutex
	chats     map[string]entity.Chat
	messages  map[string][]entity.Message
	mutations int
	failOp    string
}

func newMemStore() *memStore {
	return &memStore{
		chats:    make(map[string]entity.Chat),
		messages: make(map[string][]entity.Message),
	}
}

func (s *memStore) fail(op string) error {
	if s.failOp == op {
		return errors.New("connection reset by peer")
	}
	return nil
}

func (s *memStore) snapshot() (map[string]entity.Chat, map[string][]entity.Message) {
	chats := make(map[string]entity.Chat, len(s.chats))
	for k, v := range s.chats {
		chats[k] = v
	}
	messages := make(map[string][]entity.Message, len(s.messages))
	for k, v := range s.messages {
		messages[k] = append([]entity.Message(nil), v...)
	}
	return chats, messages
}

func (s *memStore) chatMessages(chatId string) []entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Message(nil), s.messages[chatId]...)
}

func (s *memStore) chat(chatId string) (entity.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatId]
	return c, ok
}

func (s *memStore) mutationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations
}

type memFactory struct {
	store *memStore
}

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUnitOfWork{store: f.store}
}

type memUnitOfWork struct {
	store        *memStore
	inTx         bool
	savedChats   map[string]entity.Chat
	savedMessage map[string][]entity.Message
}

func (u *memUnitOfWork) Begin(ctx context.Context) error {
	if err := u.store.fail("begin"); err != nil {
		return err
	}
	u.store.mu.Lock()
	u.savedChats, u.savedMessage = u.store.snapshot()
	u.store.mu.Unlock()
	u.inTx = true
	return nil
}

func (u *memUnitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	return nil
}

func (u *memUnitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.mu.Lock()
	u.store.chats, u.store.messages = u.savedChats, u.savedMessage
	u.store.mu.Unlock()
	u.inTx = false
	return nil
}

func (u *memUnitOfWork) ChatRepository() contract.ChatRepository {
	return &memChatRepository{store: u.store}
}

func (u *memUnitOfWork) MessageRepository() contract.MessageRepository {
	return &memMessageRepository{store: u.store}
}

type memChatRepository struct {
	store *memStore
}

func matchChat(c entity.Chat, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if c.Id != sp.ID {
				return false
			}
		case specification.UserOwnedBy:
			if c.UserId != sp.UserID {
				return false
			}
		}
	}
	return true
}

func (r *memChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("create"); err != nil {
		return err
	}
	if _, exists := r.store.chats[chat.Id]; exists {
		return fmt.Errorf("duplicate key %s", chat.Id)
	}
	r.store.chats[chat.Id] = *chat
	r.store.mutations++
	return nil
}

func (r *memChatRepository) CreateIfAbsent(ctx context.Context, chat *entity.Chat) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("create"); err != nil {
		return err
	}
	if _, exists := r.store.chats[chat.Id]; !exists {
		r.store.chats[chat.Id] = *chat
		r.store.mutations++
	}
	return nil
}

func (r *memChatRepository) Touch(ctx context.Context, id string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c, ok := r.store.chats[id]; ok {
		c.UpdatedAt = at
		c.Version++
		r.store.chats[id] = c
		r.store.mutations++
	}
	return nil
}

func (r *memChatRepository) UpdateVisibility(ctx context.Context, id, userId string, isPublic bool) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.chats[id]
	if !ok || c.UserId != userId {
		return 0, nil
	}
	c.IsPublic = isPublic
	r.store.chats[id] = c
	r.store.mutations++
	return 1, nil
}

func (r *memChatRepository) DeleteOwned(ctx context.Context, id, userId string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.chats[id]
	if !ok || c.UserId != userId {
		return 0, nil
	}
	delete(r.store.chats, id)
	delete(r.store.messages, id) // ON DELETE CASCADE
	r.store.mutations++
	return 1, nil
}

func (r *memChatRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	chats, err := r.FindAll(ctx, specs...)
	if err != nil || len(chats) == 0 {
		return nil, err
	}
	return chats[0], nil
}

func (r *memChatRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("find"); err != nil {
		return nil, err
	}
	result := make([]*entity.Chat, 0)
	for _, c := range r.store.chats {
		if matchChat(c, specs) {
			c := c
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

type memMessageRepository struct {
	store *memStore
}

func (r *memMessageRepository) CreateBatch(ctx context.Context, messages []*entity.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("insert"); err != nil {
		return err
	}
	for _, m := range messages {
		r.store.messages[m.ChatId] = append(r.store.messages[m.ChatId], *m)
	}
	r.store.mutations++
	return nil
}

func (r *memMessageRepository) DeleteByChatId(ctx context.Context, chatId string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.messages, chatId)
	r.store.mutations++
	return nil
}

func (r *memMessageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("find messages"); err != nil {
		return nil, err
	}
	var chatId string
	for _, spec := range specs {
		if sp, ok := spec.(specification.ByChatID); ok {
			chatId = sp.ChatID
		}
	}
	result := make([]*entity.Message, 0)
	for _, m := range r.store.messages[chatId] {
		m := m
		result = append(result, &m)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Position < result[j].Position
	})
	return result, nil
}

func (r *memMessageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	messages, err := r.FindAll(ctx, specs...)
	return int64(len(messages)), err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

// scriptedProvider streams the configured chunks. When gate is set, every chunk after the first
// waits for a value on gate.
type scriptedProvider struct {
	chunks   []llm.Chunk
	failAt   int // index of the chunk replaced by an error, -1 for none
	startErr error
	gate     chan struct{}

	mu        sync.Mutex
	history   []llm.Message
	lastModel string
}

func newScriptedProvider(chunks ...llm.Chunk) *scriptedProvider {
	return &scriptedProvider{chunks: chunks, failAt: -1}
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (p *scriptedProvider) Stream(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	p.mu.Lock()
	p.history = history
	p.lastModel = llm.Apply(llm.Options{}, opts...).Model
	p.mu.Unlock()
	if p.startErr != nil {
		return nil, p.startErr
	}
	return &scriptedStream{provider: p, ctx: ctx}, nil
}

func (p *scriptedProvider) seen() ([]llm.Message, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history, p.lastModel
}

type scriptedStream struct {
	provider *scriptedProvider
	ctx      context.Context
	next     int
}

func (s *scriptedStream) Recv() (llm.Chunk, error) {
	if s.next >= len(s.provider.chunks) {
		return llm.Chunk{}, io.EOF
	}
	if s.next > 0 && s.provider.gate != nil {
		select {
		case <-s.provider.gate:
		case <-s.ctx.Done():
			return llm.Chunk{}, s.ctx.Err()
		}
	}
	i := s.next
	s.next++
	if i == s.provider.failAt {
		return llm.Chunk{}, errors.New("upstream reset")
	}
	return s.provider.chunks[i], nil
}

func (s *scriptedStream) Close() error {
	return nil
}
