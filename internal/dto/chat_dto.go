package dto

import (
	"time"
)

// UIMessage is the client SDK message shape.
type UIMessage struct {
	Id        string     `json:"id" validate:"required,max=128"`
	Role      string     `json:"role" validate:"required,oneof=user assistant"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type CompletionRequest struct {
	Id      string    `json:"id" validate:"required,max=128"`
	Message UIMessage `json:"message"`
}

type StatelessCompletionRequest struct {
	Messages []UIMessage `json:"messages" validate:"required,min=1,dive"`
}

type CreateChatResponse struct {
	Id string `json:"id"`
}

type ChatSummaryResponse struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SaveChatRequest struct {
	Messages []UIMessage `json:"messages" validate:"dive"`
}

type UpdateVisibilityRequest struct {
	IsPublic *bool `json:"is_public" validate:"required"`
}

type ChatPageResponse struct {
	Id              string      `json:"id,omitempty"`
	InitialMessages []UIMessage `json:"initialMessages"`
}
