package model

import (
	"time"
)

type Message struct {
	Id        string    `gorm:"type:text;primaryKey"`
	ChatId    string    `gorm:"type:text;not null;index:idx_messages_chat_order,priority:1"`
	Role      string    `gorm:"type:varchar(16);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_messages_chat_order,priority:2"`
	Position  int       `gorm:"not null;default:0;index:idx_messages_chat_order,priority:3"`
}

func (Message) TableName() string {
	return "messages"
}
