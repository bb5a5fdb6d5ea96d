package model

import (
	"time"
)

type Chat struct {
	Id        string    `gorm:"type:text;primaryKey"`
	UserId    string    `gorm:"type:text;not null;default:'';index"` // Owner, as issued by the identity provider
	Title     string    `gorm:"type:text;default:'New Chat'"`
	IsPublic  bool      `gorm:"default:false"`
	Version   int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index"`
	Messages  []Message `gorm:"foreignKey:ChatId;constraint:OnDelete:CASCADE"`
}

func (Chat) TableName() string {
	return "chats"
}
