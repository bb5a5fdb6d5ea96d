package contract

import (
	"context"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	CreateIfAbsent(ctx context.Context, chat *entity.Chat) error // ON CONFLICT (id) DO NOTHING
	Touch(ctx context.Context, id string, at time.Time) error     // bumps updated_at and version
	UpdateVisibility(ctx context.Context, id, userId string, isPublic bool) (int64, error)
	DeleteOwned(ctx context.Context, id, userId string) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error)
}
