package entity

import (
	"time"
)

type Chat struct {
	Id        string
	UserId    string
	Title     string
	IsPublic  bool
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
