package service

import (
	"context"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/identity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	"ai-chat-be/pkg/idgen"
)

const chatStoreModule = "CHAT_STORE"

// IChatStoreService persists chat transcripts for the caller found in the request context.
// Chats owned by someone else behave exactly like chats that do not exist.
type IChatStoreService interface {
	CreateChat(ctx context.Context) (*dto.CreateChatResponse, error)
	LoadChat(ctx context.Context, chatId string) ([]dto.UIMessage, error)
	SaveChat(ctx context.Context, chatId string, messages []dto.UIMessage) error
	GetUserChats(ctx context.Context) ([]*dto.ChatSummaryResponse, error)
	GetChatById(ctx context.Context, chatId string) (*dto.ChatSummaryResponse, error)
	DeleteChat(ctx context.Context, chatId string) error
	UpdateChatVisibility(ctx context.Context, chatId string, isPublic bool) error
}

type chatStoreService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher events.Publisher
	logger         logger.ILogger
}

func NewChatStoreService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher events.Publisher,
	log logger.ILogger,
) IChatStoreService {
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &chatStoreService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *chatStoreService) CreateChat(ctx context.Context) (*dto.CreateChatResponse, error) {
	userId, ok := identity.UserID(ctx)
	if !ok {
		return nil, apperror.ErrUnauthenticated
	}

	id, err := idgen.NewChatID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	chat := entity.Chat{
		Id:        id,
		UserId:    userId,
		Title:     constant.DefaultChatTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatRepository().Create(ctx, &chat); err != nil {
		return nil, s.storeError("create chat", id, err)
	}

	s.publish(ctx, constant.EventChatCreated, map[string]interface{}{
		"chat_id": id,
		"user_id": userId,
	})

	return &dto.CreateChatResponse{Id: id}, nil
}

// LoadChat returns the transcript in load order. Anonymous callers and unknown chats get an empty slice.
func (s *chatStoreService) LoadChat(ctx context.Context, chatId string) ([]dto.UIMessage, error) {
	userId, ok := identity.UserID(ctx)
	if !ok {
		return []dto.UIMessage{}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, s.storeError("load chat", chatId, err)
	}
	if chat == nil {
		return []dto.UIMessage{}, nil
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.TranscriptOrder{},
	)
	if err != nil {
		return nil, s.storeError("load messages", chatId, err)
	}

	result := make([]dto.UIMessage, 0, len(messages))
	for _, msg := range messages {
		createdAt := msg.CreatedAt
		result = append(result, dto.UIMessage{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: &createdAt,
		})
	}

	return pairTurns(result), nil
}

// SaveChat replaces the whole transcript of chatId with messages. The chat row is created for the
// caller when missing; an existing row keeps its owner and creation time.
func (s *chatStoreService) SaveChat(ctx context.Context, chatId string, messages []dto.UIMessage) error {
	userId, ok := identity.UserID(ctx)
	if !ok {
		return apperror.ErrUnauthenticated
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return s.storeError("begin save chat", chatId, err)
	}
	defer uow.Rollback()

	now := time.Now()
	err := uow.ChatRepository().CreateIfAbsent(ctx, &entity.Chat{
		Id:        chatId,
		UserId:    userId,
		Title:     constant.DefaultChatTitle,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return s.storeError("upsert chat", chatId, err)
	}

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return s.storeError("find chat", chatId, err)
	}
	if chat == nil || chat.UserId != userId {
		s.logger.Warn(chatStoreModule, "Save ignored for chat not owned by caller", map[string]interface{}{
			"chat_id": chatId,
			"user_id": userId,
		})
		return nil
	}

	if err := uow.ChatRepository().Touch(ctx, chatId, now); err != nil {
		return s.storeError("touch chat", chatId, err)
	}
	if err := uow.MessageRepository().DeleteByChatId(ctx, chatId); err != nil {
		return s.storeError("delete messages", chatId, err)
	}

	rows := make([]*entity.Message, 0, len(messages))
	for i, msg := range messages {
		createdAt := now
		if msg.CreatedAt != nil && !msg.CreatedAt.IsZero() {
			createdAt = *msg.CreatedAt
		}
		rows = append(rows, &entity.Message{
			Id:        msg.Id,
			ChatId:    chatId,
			Role:      msg.Role,
			Content:   msg.Content,
			Position:  i,
			CreatedAt: createdAt,
		})
	}
	if len(rows) > 0 {
		if err := uow.MessageRepository().CreateBatch(ctx, rows); err != nil {
			return s.storeError("insert messages", chatId, err)
		}
	}

	if err := uow.Commit(); err != nil {
		return s.storeError("commit save chat", chatId, err)
	}

	s.publish(ctx, constant.EventChatSaved, map[string]interface{}{
		"chat_id":       chatId,
		"user_id":       userId,
		"message_count": len(rows),
	})

	return nil
}

func (s *chatStoreService) GetUserChats(ctx context.Context) ([]*dto.ChatSummaryResponse, error) {
	userId, ok := identity.UserID(ctx)
	if !ok {
		return []*dto.ChatSummaryResponse{}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chats, err := uow.ChatRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, s.storeError("list chats", "", err)
	}

	response := make([]*dto.ChatSummaryResponse, 0, len(chats))
	for _, c := range chats {
		response = append(response, toChatSummary(c))
	}

	return response, nil
}

func (s *chatStoreService) GetChatById(ctx context.Context, chatId string) (*dto.ChatSummaryResponse, error) {
	userId, ok := identity.UserID(ctx)
	if !ok {
		return nil, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, s.storeError("get chat", chatId, err)
	}
	if chat == nil {
		return nil, nil
	}

	return toChatSummary(chat), nil
}

// DeleteChat removes the caller's chat. Messages go with the foreign key cascade.
func (s *chatStoreService) DeleteChat(ctx context.Context, chatId string) error {
	userId, ok := identity.UserID(ctx)
	if !ok {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	affected, err := uow.ChatRepository().DeleteOwned(ctx, chatId, userId)
	if err != nil {
		return s.storeError("delete chat", chatId, err)
	}

	if affected > 0 {
		s.publish(ctx, constant.EventChatDeleted, map[string]interface{}{
			"chat_id": chatId,
			"user_id": userId,
		})
	}
	return nil
}

func (s *chatStoreService) UpdateChatVisibility(ctx context.Context, chatId string, isPublic bool) error {
	userId, ok := identity.UserID(ctx)
	if !ok {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	affected, err := uow.ChatRepository().UpdateVisibility(ctx, chatId, userId, isPublic)
	if err != nil {
		return s.storeError("update visibility", chatId, err)
	}

	if affected > 0 {
		s.publish(ctx, constant.EventChatVisibilityChanged, map[string]interface{}{
			"chat_id":   chatId,
			"user_id":   userId,
			"is_public": isPublic,
		})
	}
	return nil
}

func (s *chatStoreService) storeError(op, chatId string, err error) error {
	s.logger.Error(chatStoreModule, "Store operation failed", map[string]interface{}{
		"op":      op,
		"chat_id": chatId,
		"error":   err,
	})
	return apperror.NewStoreError(op, err)
}

// publish is best effort. A failed publish is logged and never fails the request.
func (s *chatStoreService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn(chatStoreModule, "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err,
		})
	}
}

func toChatSummary(c *entity.Chat) *dto.ChatSummaryResponse {
	return &dto.ChatSummaryResponse{
		Id:        c.Id,
		Title:     c.Title,
		IsPublic:  c.IsPublic,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// pairTurns keeps a user message and the assistant reply that directly follows it together.
// Input is already in load order, so the result has the same order.
func pairTurns(messages []dto.UIMessage) []dto.UIMessage {
	result := make([]dto.UIMessage, 0, len(messages))
	for i := 0; i < len(messages); i++ {
		result = append(result, messages[i])
		if messages[i].Role == constant.ChatMessageRoleUser &&
			i+1 < len(messages) &&
			messages[i+1].Role == constant.ChatMessageRoleAssistant {
			result = append(result, messages[i+1])
			i++
		}
	}
	return result
}

// appendClientMessage adds the incoming client message to the stored transcript. A message that
// repeats the id of the last stored one replaces it.
func appendClientMessage(messages []dto.UIMessage, message dto.UIMessage) []dto.UIMessage {
	result := make([]dto.UIMessage, len(messages), len(messages)+2)
	copy(result, messages)
	if n := len(result); n > 0 && result[n-1].Id == message.Id {
		result[n-1] = message
		return result
	}
	return append(result, message)
}
