package contract

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
)

type MessageRepository interface {
	CreateBatch(ctx context.Context, messages []*entity.Message) error
	DeleteByChatId(ctx context.Context, chatId string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
