package specification

import (
	"gorm.io/gorm"
)

type ByChatID struct {
	ChatID string
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatID)
}

// TranscriptOrder is the load order of a chat's messages: creation time, then saved position.
type TranscriptOrder struct{}

func (s TranscriptOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("position ASC")
}
