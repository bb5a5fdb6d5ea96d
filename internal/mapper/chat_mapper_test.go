package mapper

import (
	"testing"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestChatMapperNil(t *testing.T) {
	m := NewChatMapper()
	assert.Nil(t, m.ChatToEntity(nil))
	assert.Nil(t, m.ChatToModel(nil))
	assert.Nil(t, m.MessageToEntity(nil))
	assert.Nil(t, m.MessageToModel(nil))
}

func TestChatMapperChat(t *testing.T) {
	m := NewChatMapper()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	chat := m.ChatToEntity(&model.Chat{
		Id:        "c1",
		UserId:    "u1",
		Title:     "Trip planning",
		IsPublic:  true,
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
	})

	assert.Equal(t, &entity.Chat{
		Id:        "c1",
		UserId:    "u1",
		Title:     "Trip planning",
		IsPublic:  true,
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
	}, chat)
}

func TestMessagesToModelsSkipsNil(t *testing.T) {
	m := NewChatMapper()
	models := m.MessagesToModels([]*entity.Message{
		{Id: "m1", ChatId: "c1", Role: "user", Content: "hi", Position: 0},
		nil,
		{Id: "m2", ChatId: "c1", Role: "assistant", Content: "hello", Position: 1},
	})

	assert.Len(t, models, 2)
	assert.Equal(t, "m2", models[1].Id)
	assert.Equal(t, 1, models[1].Position)
}
