package entity

import (
	"time"
)

type Message struct {
	Id        string
	ChatId    string
	Role      string
	Content   string
	Position  int
	CreatedAt time.Time
}
