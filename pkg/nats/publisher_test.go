package nats

import (
	"testing"

	"ai-chat-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

var _ events.Publisher = (*Publisher)(nil)

func TestSubject(t *testing.T) {
	cases := map[string]string{
		"CHAT_CREATED":            "events.chat.created",
		"CHAT_SAVED":              "events.chat.saved",
		"CHAT_VISIBILITY_CHANGED": "events.chat.visibility.changed",
	}
	for eventType, want := range cases {
		assert.Equal(t, want, Subject(eventType), eventType)
	}
}
